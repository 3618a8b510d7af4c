package enhancecache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/db"
	"github.com/kailas-cloud/casedex/internal/domain/enhancement"
)

const keyPrefix = "casedex:enh:"

// store is the consumer interface for the shared KV store (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Redis shares enhancements across replicas. Read and write errors only cost latency,
// so they are logged and treated as misses.
type Redis struct {
	store  store
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis creates a shared cache. Non-positive ttl selects DefaultTTL.
func NewRedis(s store, ttl time.Duration, logger *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{store: s, ttl: ttl, logger: logger}
}

type enhancementJSON struct {
	Summary     string    `json:"summary"`
	KeyPassages []string  `json:"key_passages"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Get reads the cached enhancement for id.
func (r *Redis) Get(ctx context.Context, id string) (enhancement.Enhancement, bool) {
	data, err := r.store.Get(ctx, keyPrefix+id)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			r.logger.Warn("Failed to read cached enhancement", zap.String("case_id", id), zap.Error(err))
		}
		return enhancement.Enhancement{}, false
	}

	var v enhancementJSON
	if err := json.Unmarshal(data, &v); err != nil {
		r.logger.Warn("Failed to decode cached enhancement", zap.String("case_id", id), zap.Error(err))
		return enhancement.Enhancement{}, false
	}
	return enhancement.New(v.Summary, v.KeyPassages, enhancement.Source(v.Source), v.GeneratedAt), true
}

// Set writes e under id with the configured TTL.
func (r *Redis) Set(ctx context.Context, id string, e enhancement.Enhancement) {
	data, err := json.Marshal(enhancementJSON{
		Summary:     e.Summary(),
		KeyPassages: e.KeyPassages(),
		Source:      string(e.Source()),
		GeneratedAt: e.GeneratedAt().UTC(),
	})
	if err != nil {
		r.logger.Warn("Failed to encode enhancement", zap.String("case_id", id), zap.Error(err))
		return
	}
	if err := r.store.SetWithTTL(ctx, keyPrefix+id, data, r.ttl); err != nil {
		r.logger.Warn("Failed to cache enhancement", zap.String("case_id", id), zap.Error(err))
	}
}
