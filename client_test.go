package casedex

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
	domenh "github.com/kailas-cloud/casedex/internal/domain/enhancement"
	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
	"github.com/kailas-cloud/casedex/internal/domain/search/order"
	"github.com/kailas-cloud/casedex/internal/domain/search/request"
	"github.com/kailas-cloud/casedex/internal/domain/search/result"
	casedetailuc "github.com/kailas-cloud/casedex/internal/usecase/casedetail"
	healthuc "github.com/kailas-cloud/casedex/internal/usecase/health"
)

var decided = time.Date(2008, 6, 5, 0, 0, 0, 0, time.UTC)

func gardner() courtcase.Case {
	return courtcase.Reconstruct(courtcase.Fields{
		ID:           "oh-1",
		Title:        "State v. Gardner",
		Court:        "Supreme Court of Ohio",
		Jurisdiction: "Ohio",
		CaseType:     "Criminal",
		Decided:      decided,
	})
}

type fakeSearch struct {
	page result.Page
	opts filter.Options
	err  error
	got  request.Request
}

func (f *fakeSearch) Search(_ context.Context, req request.Request) (result.Page, error) {
	f.got = req
	return f.page, f.err
}

func (f *fakeSearch) FilterOptions(context.Context) (filter.Options, error) {
	return f.opts, f.err
}

type fakeCases struct {
	full casedetailuc.Full
	err  error
}

func (f fakeCases) GetCase(context.Context, string) (courtcase.Case, error) {
	return f.full.Case, f.err
}

func (f fakeCases) GetCaseFull(context.Context, string) (casedetailuc.Full, error) {
	return f.full, f.err
}

type fakeHealth healthuc.Report

func (f fakeHealth) Check(context.Context) healthuc.Report { return healthuc.Report(f) }

func TestNew_NoAddress(t *testing.T) {
	_, err := New(WithSQLite("cases.db"))
	if err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestNew_NoSQLite(t *testing.T) {
	_, err := New(WithRedis("localhost:6379", ""))
	if err == nil {
		t.Fatal("expected error when no metadata database provided")
	}
}

func TestNoopEmbedder(t *testing.T) {
	_, err := noopEmbedder{}.Embed(context.Background(), "test")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestEmbedderAdapter(t *testing.T) {
	called := false
	mock := &mockEmbedder{
		fn: func(_ context.Context, text string) (EmbeddingResult, error) {
			called = true
			return EmbeddingResult{
				Embedding:    []float32{1, 2, 3},
				PromptTokens: 5,
				TotalTokens:  10,
			}, nil
		},
	}

	adapter := &embedderAdapter{inner: mock}
	result, err := adapter.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("inner embedder was not called")
	}
	if len(result.Embedding) != 3 {
		t.Errorf("embedding len = %d, want 3", len(result.Embedding))
	}
	if result.TotalTokens != 10 {
		t.Errorf("total tokens = %d, want 10", result.TotalTokens)
	}
}

func TestEmbedderAdapter_Error(t *testing.T) {
	mock := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{}, errors.New("provider down")
		},
	}

	adapter := &embedderAdapter{inner: mock}
	if _, err := adapter.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected error from adapter")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	WithRedis("localhost:6379", "secret").apply(cfg)
	if cfg.addrs[0] != "localhost:6379" {
		t.Errorf("addr = %q, want localhost:6379", cfg.addrs[0])
	}
	if cfg.password != "secret" {
		t.Errorf("password = %q, want secret", cfg.password)
	}

	WithSQLite("data/cases.db").apply(cfg)
	WithParquetDir("data/text").apply(cfg)
	WithKeyPrefix("test:case:").apply(cfg)
	if cfg.sqlitePath != "data/cases.db" || cfg.parquetDir != "data/text" || cfg.keyPrefix != "test:case:" {
		t.Errorf("paths = %q %q %q", cfg.sqlitePath, cfg.parquetDir, cfg.keyPrefix)
	}

	WithConfidenceThreshold(0.6).apply(cfg)
	WithParallelText().apply(cfg)
	if cfg.threshold != 0.6 || !cfg.parallelText {
		t.Errorf("search tuning = %v %v", cfg.threshold, cfg.parallelText)
	}

	WithEnhancementCache(50, time.Minute).apply(cfg)
	if cfg.cacheCapacity != 50 || cfg.cacheTTL != time.Minute {
		t.Errorf("cache = %d %v", cfg.cacheCapacity, cfg.cacheTTL)
	}

	WithMetrics().apply(cfg)
	if !cfg.metrics {
		t.Error("metrics not enabled")
	}
}

func TestClient_Close_NilResources(t *testing.T) {
	c := &Client{}
	c.Close()
}

func TestClient_Search(t *testing.T) {
	fs := &fakeSearch{page: result.Page{
		Hits:           []result.Hit{result.NewHit(gardner(), 0.8)},
		TotalAvailable: 12,
		Offset:         0,
		Limit:          10,
		QueryTimeMs:    15,
	}}
	c := &Client{search: fs}

	page, err := c.Search(context.Background(), "burglary", &SearchOptions{
		Courts: []string{"Supreme Court of Ohio"},
		Sort:   SortDateDesc,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Hits) != 1 || page.Hits[0].Case.ID != "oh-1" || page.Hits[0].Score != 0.8 {
		t.Fatalf("hits = %+v", page.Hits)
	}
	if !page.Hits[0].Case.Decided.Equal(decided) {
		t.Errorf("decided = %v", page.Hits[0].Case.Decided)
	}
	if page.Hits[0].Case.CaseType != Criminal {
		t.Errorf("case type = %q", page.Hits[0].Case.CaseType)
	}
	if page.TotalAvailable != 12 || page.QueryTime != 15*time.Millisecond {
		t.Errorf("page = %+v", page)
	}
	if fs.got.Order() != order.DateDesc || fs.got.Filters().Court != "Supreme Court of Ohio" {
		t.Errorf("request = %+v", fs.got)
	}

	if _, err := c.Search(context.Background(), "x", &SearchOptions{Sort: "random"}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}

	fs.err = fmt.Errorf("%w: both down", domain.ErrRetrievalFailed)
	if _, err := c.Search(context.Background(), "x", nil); !errors.Is(err, ErrRetrievalFailed) {
		t.Errorf("expected ErrRetrievalFailed, got %v", err)
	}
}

func TestClient_Cases(t *testing.T) {
	c := gardner().WithEnhancement("Key Legal Issue: burglary.", []string{"The home was occupied."})
	gen := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cl := &Client{cases: fakeCases{full: casedetailuc.Full{
		Case:        c,
		Text:        "OPINION",
		HasFullText: true,
		Enhancement: domenh.New(c.Summary(), c.KeyPassages(), domenh.SourceExcerpt, gen),
	}}}

	got, err := cl.Case(context.Background(), "oh-1")
	if err != nil {
		t.Fatalf("Case: %v", err)
	}
	if got.Summary != "Key Legal Issue: burglary." || len(got.KeyPassages) != 1 {
		t.Errorf("case = %+v", got)
	}

	full, err := cl.CaseFull(context.Background(), "oh-1")
	if err != nil {
		t.Fatalf("CaseFull: %v", err)
	}
	if full.Text != "OPINION" || !full.HasFullText || full.SummarySource != "excerpt" || !full.GeneratedAt.Equal(gen) {
		t.Errorf("full = %+v", full)
	}
	if full.Title != "State v. Gardner" {
		t.Errorf("title = %q", full.Title)
	}

	missing := &Client{cases: fakeCases{err: fmt.Errorf("case x: %w", domain.ErrCaseNotFound)}}
	if _, err := missing.Case(context.Background(), "x"); !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("expected ErrCaseNotFound, got %v", err)
	}
}

func TestClient_FilterOptionsAndHealth(t *testing.T) {
	c := &Client{
		search: &fakeSearch{opts: filter.Options{
			Jurisdictions: []string{"Ohio"},
			Courts:        []string{"Supreme Court of Ohio"},
			CaseTypes:     []courtcase.Type{courtcase.Civil},
		}},
		health: fakeHealth{
			Status: healthuc.Degraded,
			Checks: map[string]healthuc.CheckResult{healthuc.VectorIndex: healthuc.CheckError},
		},
	}

	opts, err := c.FilterOptions(context.Background())
	if err != nil {
		t.Fatalf("FilterOptions: %v", err)
	}
	if len(opts.CaseTypes) != 1 || opts.CaseTypes[0] != Civil || opts.Courts[0] != "Supreme Court of Ohio" {
		t.Errorf("options = %+v", opts)
	}

	h := c.Health(context.Background())
	if h.Status != "degraded" || h.Checks["vector_index"] != "error" {
		t.Errorf("health = %+v", h)
	}
}

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}
