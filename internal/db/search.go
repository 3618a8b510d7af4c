package db

import "github.com/kailas-cloud/casedex/internal/domain/search/filter"

// KNNQuery is the input for filtered vector similarity search.
// Filters are applied as a pre-filter, so the K results are the true top-K
// among matching documents.
type KNNQuery struct {
	IndexName    string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// CountQuery counts documents matching Filters without ranking.
type CountQuery struct {
	IndexName string
	Filters   filter.Expression
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
