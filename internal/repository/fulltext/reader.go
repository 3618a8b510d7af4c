// Package fulltext resolves a case contentRef to the decision text stored in
// the bulk parquet files.
package fulltext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/casedex/internal/domain"
)

const (
	columnID   = "id"
	columnText = "text"

	defaultOpenFiles = 16
	readBatch        = 256
)

// Reader looks up case text by file name and id. Opened files are kept in an LRU.
type Reader struct {
	dir   string
	files *lru.Cache[string, *handle]
	mu    sync.Mutex // serializes opens so one file is never opened twice
}

// New creates a reader rooted at dir keeping at most openFiles files open.
func New(dir string, openFiles int) (*Reader, error) {
	if dir == "" {
		return nil, fmt.Errorf("parquet dir is required")
	}
	if openFiles <= 0 {
		openFiles = defaultOpenFiles
	}
	files, err := lru.NewWithEvict(openFiles, func(_ string, h *handle) { h.evict() })
	if err != nil {
		return nil, fmt.Errorf("create file cache: %w", err)
	}
	return &Reader{dir: dir, files: files}, nil
}

// Read returns the full text of case id from the file named by contentRef.
func (r *Reader) Read(ctx context.Context, contentRef, id string) (string, error) {
	if !validRef(contentRef) {
		return "", fmt.Errorf("content ref %q: %w", contentRef, domain.ErrContentUnavailable)
	}

	h, err := r.acquire(contentRef)
	if err != nil {
		return "", err
	}
	defer h.release()

	text, found, err := h.find(ctx, id)
	if err != nil {
		return "", fmt.Errorf("read %s: %w: %w", contentRef, domain.ErrContentUnavailable, err)
	}
	if !found {
		return "", fmt.Errorf("case %s not in %s: %w", id, contentRef, domain.ErrContentUnavailable)
	}
	return text, nil
}

// Close releases every cached file.
func (r *Reader) Close() {
	r.files.Purge()
}

// validRef accepts a bare parquet file name only.
func validRef(ref string) bool {
	if ref == "" || ref == "." || ref == ".." {
		return false
	}
	if strings.ContainsAny(ref, `/\`) || filepath.Base(ref) != ref {
		return false
	}
	return strings.HasSuffix(ref, ".parquet")
}

func (r *Reader) acquire(name string) (*handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.files.Get(name); ok {
		h.retain()
		return h, nil
	}

	h, err := openParquet(filepath.Join(r.dir, name))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", name, domain.ErrContentUnavailable, err)
	}
	h.retain()
	r.files.Add(name, h)
	return h, nil
}

// handle wraps parquet.File and the underlying os.File. The file is closed
// once it has been evicted and no reader holds it.
type handle struct {
	pf      *parquet.File
	file    *os.File
	idCol   int
	textCol int

	mu      sync.Mutex
	refs    int
	evicted bool
}

func openParquet(path string) (*handle, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	h := &handle{pf: pf, file: f, idCol: -1, textCol: -1}
	for i, path := range pf.Schema().Columns() {
		if len(path) == 0 {
			continue
		}
		switch path[0] {
		case columnID:
			h.idCol = i
		case columnText:
			h.textCol = i
		}
	}
	if h.idCol < 0 || h.textCol < 0 {
		_ = f.Close()
		return nil, fmt.Errorf("missing %q or %q column", columnID, columnText)
	}
	return h, nil
}

func (h *handle) retain() {
	h.mu.Lock()
	h.refs++
	h.mu.Unlock()
}

func (h *handle) release() {
	h.mu.Lock()
	h.refs--
	closeNow := h.evicted && h.refs == 0
	h.mu.Unlock()
	if closeNow {
		_ = h.file.Close()
	}
}

func (h *handle) evict() {
	h.mu.Lock()
	h.evicted = true
	closeNow := h.refs == 0
	h.mu.Unlock()
	if closeNow {
		_ = h.file.Close()
	}
}

// find scans row groups for id. Ids are compared in their string form so
// integer and string id columns both work.
func (h *handle) find(ctx context.Context, id string) (string, bool, error) {
	buf := make([]parquet.Row, readBatch)
	for _, rg := range h.pf.RowGroups() {
		text, found, err := h.findInGroup(ctx, rg, id, buf)
		if err != nil || found {
			return text, found, err
		}
	}
	return "", false, nil
}

func (h *handle) findInGroup(
	ctx context.Context, rg parquet.RowGroup, id string, buf []parquet.Row,
) (string, bool, error) {
	rows := parquet.NewRowGroupReader(rg)
	for {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}

		n, readErr := rows.ReadRows(buf)
		for i := 0; i < n; i++ {
			var rowID, text string
			for _, v := range buf[i] {
				switch v.Column() {
				case h.idCol:
					if !v.IsNull() {
						rowID = v.String()
					}
				case h.textCol:
					if !v.IsNull() {
						text = v.String()
					}
				}
			}
			if rowID == id {
				return text, true, nil
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return "", false, nil
			}
			return "", false, fmt.Errorf("read rows: %w", readErr)
		}
	}
}
