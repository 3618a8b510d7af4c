package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/casedex/internal/db"
	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
	"github.com/kailas-cloud/casedex/internal/domain/search/result"
)

// DefaultKeyPrefix is the hash key prefix for indexed cases.
const DefaultKeyPrefix = "casedex:case:"

// store is the consumer interface for vector index operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, q *db.CountQuery) (int, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo is the vector index client over a RediSearch HNSW index.
type Repo struct {
	store  store
	prefix string
}

// New creates a vector index repository. An empty prefix selects DefaultKeyPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// IndexName returns the FT index name.
func (r *Repo) IndexName() string {
	return r.prefix + "idx"
}

// Search returns the top-k cases nearest to vector among those matching expr.
// Scores are cosine similarity in [0,1], non-increasing.
func (r *Repo) Search(
	ctx context.Context, vector []float32, expr filter.Expression, k int,
) ([]result.Candidate, error) {
	if expr.IsNever() || k <= 0 {
		return nil, nil
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.IndexName(),
		Filters:      expr,
		Vector:       vector,
		K:            k,
		ReturnFields: payloadFields,
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w: %w", domain.ErrIndexUnavailable, err)
	}
	if sr == nil {
		return nil, nil
	}

	out := make([]result.Candidate, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		id := strings.TrimPrefix(e.Key, r.prefix)
		out = append(out, result.Candidate{
			ID:      id,
			Score:   e.Score,
			Source:  result.SourceVector,
			Payload: caseFromPayload(id, e.Fields),
		})
	}
	return out, nil
}

// Count returns the number of indexed cases matching expr.
func (r *Repo) Count(ctx context.Context, expr filter.Expression) (int, error) {
	if expr.IsNever() {
		return 0, nil
	}
	n, err := r.store.SearchCount(ctx, &db.CountQuery{IndexName: r.IndexName(), Filters: expr})
	if err != nil {
		return 0, fmt.Errorf("count: %w: %w", domain.ErrIndexUnavailable, err)
	}
	return n, nil
}

// Get reads the indexed payload of one case.
func (r *Repo) Get(ctx context.Context, id string) (courtcase.Case, error) {
	m, err := r.store.HGetAll(ctx, r.prefix+id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return courtcase.Case{}, fmt.Errorf("case %s: %w", id, domain.ErrCaseNotFound)
		}
		return courtcase.Case{}, fmt.Errorf("get %s: %w: %w", id, domain.ErrIndexUnavailable, err)
	}
	return caseFromPayload(id, m), nil
}

// EnsureIndex creates the case index if it does not exist yet.
// Returns true when the index was created.
func (r *Repo) EnsureIndex(ctx context.Context, dims int) (bool, error) {
	exists, err := r.store.IndexExists(ctx, r.IndexName())
	if err != nil {
		return false, fmt.Errorf("check index: %w", err)
	}
	if exists {
		return false, nil
	}

	def, err := db.NewIndex(r.IndexName()).
		Prefix(r.prefix).
		Tag(string(filter.FieldJurisdiction)).
		Tag(string(filter.FieldCourt)).
		Tag(string(filter.FieldCaseType)).
		Numeric(string(filter.FieldDecided)).
		Text(fieldTitle).
		VectorHNSW(fieldVector, dims, db.DistanceCosine, 16, 200).
		Build()
	if err != nil {
		return false, fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index: %w", err)
	}
	return true, nil
}
