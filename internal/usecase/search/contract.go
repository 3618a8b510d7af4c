package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
	"github.com/kailas-cloud/casedex/internal/domain/enhancement"
	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
	"github.com/kailas-cloud/casedex/internal/domain/search/order"
	"github.com/kailas-cloud/casedex/internal/domain/search/result"
)

// VectorIndex is the ANN side of hybrid search.
type VectorIndex interface {
	Search(ctx context.Context, vector []float32, expr filter.Expression, k int) ([]result.Candidate, error)
	Count(ctx context.Context, expr filter.Expression) (int, error)
}

// TextStore is the lexical and metadata side of hybrid search.
type TextStore interface {
	FullTextSearch(ctx context.Context, text string, expr filter.Expression, k int) ([]result.Candidate, int, error)
	Browse(ctx context.Context, expr filter.Expression, o order.Order, k int) ([]courtcase.Case, int, error)
	GetMany(ctx context.Context, ids []string) (map[string]courtcase.Case, error)
	FilterOptions(ctx context.Context) (filter.Options, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Refiner rewrites a user query into a better semantic search query.
type Refiner interface {
	Refine(ctx context.Context, query string) (string, error)
}

// EnhancementReader looks up cached enhancements. Search never triggers generation.
type EnhancementReader interface {
	Get(ctx context.Context, id string) (enhancement.Enhancement, bool)
}

// Prefetcher warms enhancements for the top hits in the background.
type Prefetcher interface {
	Prefetch(ids []string)
}

// Recorder receives search telemetry.
type Recorder interface {
	ObserveSearch(path, outcome string, d time.Duration)
	ObserveConfidence(v float64)
	IncDegradation(reason string)
}
