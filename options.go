package casedex

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs     []string
	password  string
	keyPrefix string

	sqlitePath string
	parquetDir string

	embedder   Embedder
	summarizer Summarizer

	threshold     float64
	parallelText  bool
	cacheCapacity int
	cacheTTL      time.Duration

	metrics bool
	logger  *zap.Logger
}

// WithRedis sets the Redis instance holding the case vector index.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix overrides the hash key prefix the index was built over.
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithSQLite sets the case metadata database. It is opened read-only.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.sqlitePath = path
	})
}

// WithParquetDir enables CaseFull by pointing at the opinion text files.
func WithParquetDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.parquetDir = dir
	})
}

// WithEmbedder sets the query embedding provider. Without one, searches
// use the full-text index only.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithSummarizer enables AI summaries in CaseFull. Without one, the summary
// is an excerpt of the opinion.
func WithSummarizer(s Summarizer) Option {
	return optionFunc(func(c *clientConfig) {
		c.summarizer = s
	})
}

// WithConfidenceThreshold sets the top vector score above which full-text
// fusion is skipped. Default: 0.45.
func WithConfidenceThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.threshold = t
	})
}

// WithParallelText runs the full-text search alongside the vector search
// instead of only after a low-confidence vector result.
func WithParallelText() Option {
	return optionFunc(func(c *clientConfig) {
		c.parallelText = true
	})
}

// WithEnhancementCache sizes the in-process summary cache.
// Defaults: 1024 entries, 1h.
func WithEnhancementCache(capacity int, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheCapacity = capacity
		c.cacheTTL = ttl
	})
}

// WithMetrics registers search and provider metrics on the default
// Prometheus registry.
func WithMetrics() Option {
	return optionFunc(func(c *clientConfig) {
		c.metrics = true
	})
}

// WithLogger enables structured logging. Default: no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
