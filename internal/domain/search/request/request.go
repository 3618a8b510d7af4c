package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
	"github.com/kailas-cloud/casedex/internal/domain/search/order"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 10
	MaxLimit       = 200
)

// Browse is the query text that lists filter matches without ranking by text.
const Browse = "*"

// Request is a validated search query.
type Request struct {
	text    string
	filters filter.Filters
	order   order.Order
	offset  int
	limit   int
}

// New validates and normalizes search parameters.
// Defaults: order=relevance, limit=10. Limit above MaxLimit is clamped.
func New(text string, filters filter.Filters, o order.Order, offset, limit int) (Request, error) {
	text = strings.TrimSpace(text)
	if len(text) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if o == "" {
		o = order.Relevance
	}
	if !o.IsValid() {
		return Request{}, fmt.Errorf("invalid sort order: %q", o)
	}
	if offset < 0 {
		return Request{}, fmt.Errorf("offset must be non-negative")
	}
	if limit < 0 {
		return Request{}, fmt.Errorf("limit must be non-negative")
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if text == Browse {
		text = ""
	}
	return Request{text: text, filters: filters, order: o, offset: offset, limit: limit}, nil
}

// Text returns the query text. Empty for browse requests.
func (r Request) Text() string { return r.text }

// Filters returns the raw filter object.
func (r Request) Filters() filter.Filters { return r.filters }

// Order returns the requested ordering.
func (r Request) Order() order.Order { return r.order }

// Offset returns the zero-based page start.
func (r Request) Offset() int { return r.offset }

// Limit returns the page size.
func (r Request) Limit() int { return r.limit }

// IsBrowse reports whether the request lists filter matches without query text.
func (r Request) IsBrowse() bool { return r.text == "" }

// Window returns offset+limit, the ranked prefix a page needs.
func (r Request) Window() int { return r.offset + r.limit }
