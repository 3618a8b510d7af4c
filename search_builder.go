package casedex

import (
	"context"
	"time"
)

// QueryBuilder is a fluent builder for searches.
type QueryBuilder struct {
	client *Client
	text   string
	opts   SearchOptions
}

// Query starts a search for text. Use "*" to list filter matches.
func (c *Client) Query(text string) *QueryBuilder {
	return &QueryBuilder{client: c, text: text}
}

// Jurisdiction restricts results to any of the given jurisdictions.
func (b *QueryBuilder) Jurisdiction(names ...string) *QueryBuilder {
	b.opts.Jurisdictions = append(b.opts.Jurisdictions, names...)
	return b
}

// Court restricts results to any of the given courts.
func (b *QueryBuilder) Court(names ...string) *QueryBuilder {
	b.opts.Courts = append(b.opts.Courts, names...)
	return b
}

// Type restricts results to any of the given case types.
func (b *QueryBuilder) Type(types ...CaseType) *QueryBuilder {
	b.opts.CaseTypes = append(b.opts.CaseTypes, types...)
	return b
}

// Since keeps cases decided on or after t.
func (b *QueryBuilder) Since(t time.Time) *QueryBuilder {
	b.opts.From = t
	return b
}

// Until keeps cases decided on or before t.
func (b *QueryBuilder) Until(t time.Time) *QueryBuilder {
	b.opts.To = t
	return b
}

// Newest orders by decision date, newest first.
func (b *QueryBuilder) Newest() *QueryBuilder {
	b.opts.Sort = SortDateDesc
	return b
}

// Oldest orders by decision date, oldest first.
func (b *QueryBuilder) Oldest() *QueryBuilder {
	b.opts.Sort = SortDateAsc
	return b
}

// Offset skips the first n ranked results.
func (b *QueryBuilder) Offset(n int) *QueryBuilder {
	b.opts.Offset = n
	return b
}

// Limit sets the page size.
func (b *QueryBuilder) Limit(n int) *QueryBuilder {
	b.opts.Limit = n
	return b
}

// Options returns a copy of the accumulated options.
func (b *QueryBuilder) Options() SearchOptions {
	return b.opts
}

// Do executes the search.
func (b *QueryBuilder) Do(ctx context.Context) (Page, error) {
	opts := b.opts
	return b.client.Search(ctx, b.text, &opts)
}
