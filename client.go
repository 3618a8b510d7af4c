package casedex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/casedex/internal/db/redis"
	"github.com/kailas-cloud/casedex/internal/db/sqlite"
	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
	"github.com/kailas-cloud/casedex/internal/domain/search/request"
	"github.com/kailas-cloud/casedex/internal/domain/search/result"
	"github.com/kailas-cloud/casedex/internal/metrics"
	"github.com/kailas-cloud/casedex/internal/repository/casestore"
	"github.com/kailas-cloud/casedex/internal/repository/enhancecache"
	"github.com/kailas-cloud/casedex/internal/repository/fulltext"
	"github.com/kailas-cloud/casedex/internal/repository/vectorindex"
	casedetailuc "github.com/kailas-cloud/casedex/internal/usecase/casedetail"
	enhancementuc "github.com/kailas-cloud/casedex/internal/usecase/enhancement"
	healthuc "github.com/kailas-cloud/casedex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/casedex/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, replaced by fakes in tests.
type searchUseCase interface {
	Search(ctx context.Context, req request.Request) (result.Page, error)
	FilterOptions(ctx context.Context) (filter.Options, error)
}

type caseUseCase interface {
	GetCase(ctx context.Context, id string) (courtcase.Case, error)
	GetCaseFull(ctx context.Context, id string) (casedetailuc.Full, error)
}

type healthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the casedex SDK entry point. It is safe for concurrent use.
type Client struct {
	redis   *dbRedis.Store
	meta    *sqlite.DB
	content *fulltext.Reader

	search searchUseCase
	cases  caseUseCase
	health healthChecker
}

// New creates a Client and connects to Redis and SQLite.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix: vectorindex.DefaultKeyPrefix,
		threshold: searchuc.DefaultThreshold,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if len(cfg.addrs) == 0 {
		return nil, errors.New("casedex: redis address required (use WithRedis)")
	}
	if cfg.sqlitePath == "" {
		return nil, errors.New("casedex: metadata database required (use WithSQLite)")
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	c := &Client{}
	if err := c.connect(cfg); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.wire(cfg); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) connect(cfg *clientConfig) error {
	ctx := context.Background()

	redis, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
	if err != nil {
		return fmt.Errorf("casedex: create redis store: %w", err)
	}
	c.redis = redis
	if err := redis.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		return fmt.Errorf("casedex: redis not ready: %w", err)
	}

	meta, err := sqlite.Open(sqlite.Config{Path: cfg.sqlitePath, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("casedex: open metadata store: %w", err)
	}
	c.meta = meta
	if err := meta.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		return fmt.Errorf("casedex: metadata store not ready: %w", err)
	}

	if cfg.parquetDir != "" {
		content, err := fulltext.New(cfg.parquetDir, 0)
		if err != nil {
			return fmt.Errorf("casedex: open full text corpus: %w", err)
		}
		c.content = content
	}
	return nil
}

func (c *Client) wire(cfg *clientConfig) error {
	index := vectorindex.New(c.redis, cfg.keyPrefix)
	store := casestore.New(c.meta)

	var embedder domain.Embedder = noopEmbedder{}
	if cfg.embedder != nil {
		embedder = &embedderAdapter{inner: cfg.embedder}
	}
	var summarizer enhancementuc.Summarizer
	if cfg.summarizer != nil {
		summarizer = cfg.summarizer
	}
	var content casedetailuc.ContentReader
	if c.content != nil {
		content = c.content
	}

	cache, err := enhancecache.NewMemory(cfg.cacheCapacity, cfg.cacheTTL)
	if err != nil {
		return fmt.Errorf("casedex: create enhancement cache: %w", err)
	}

	cases := casedetailuc.New(store, index, content, enhancementuc.New(summarizer, cfg.logger), cache, cfg.logger)

	scfg := searchuc.DefaultConfig()
	scfg.Threshold = cfg.threshold
	scfg.ParallelText = cfg.parallelText
	opts := []searchuc.Option{searchuc.WithEnhancementCache(cache)}

	if cfg.metrics {
		metrics.RegisterProviderMetrics()
		metrics.RegisterSearchMetrics()
		cases = cases.WithRecorder(metrics.EnhancementRecorder{})
		opts = append(opts, searchuc.WithRecorder(metrics.SearchRecorder{}))
	}

	c.cases = cases
	c.search = searchuc.New(index, store, embedder, scfg, opts...)
	c.health = healthuc.New(c.redis, store, nil)
	return nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.content != nil {
		c.content.Close()
	}
	if c.meta != nil {
		_ = c.meta.Close()
	}
	if c.redis != nil {
		c.redis.Close()
	}
}

// Health checks the vector index and the metadata store.
func (c *Client) Health(ctx context.Context) HealthReport {
	return fromReport(c.health.Check(ctx))
}

// Search runs a ranked search. Empty or "*" text lists the cases matching
// the filters, newest first.
func (c *Client) Search(ctx context.Context, text string, opts *SearchOptions) (Page, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}
	req, err := opts.request(text)
	if err != nil {
		return Page{}, fmt.Errorf("search: %w: %w", ErrInvalidRequest, err)
	}
	page, err := c.search.Search(ctx, req)
	if err != nil {
		return Page{}, fmt.Errorf("search: %w", err)
	}
	return fromPage(page), nil
}

// Case returns one case with its cached summary, if any.
func (c *Client) Case(ctx context.Context, id string) (Case, error) {
	cs, err := c.cases.GetCase(ctx, id)
	if err != nil {
		return Case{}, fmt.Errorf("get case: %w", err)
	}
	return fromCase(cs), nil
}

// CaseFull returns a case with its opinion text, generating a summary when
// none is cached.
func (c *Client) CaseFull(ctx context.Context, id string) (FullCase, error) {
	f, err := c.cases.GetCaseFull(ctx, id)
	if err != nil {
		return FullCase{}, fmt.Errorf("get case: %w", err)
	}
	return fromFull(f), nil
}

// FilterOptions lists the jurisdictions, courts and case types in the corpus.
func (c *Client) FilterOptions(ctx context.Context) (FilterOptions, error) {
	o, err := c.search.FilterOptions(ctx)
	if err != nil {
		return FilterOptions{}, fmt.Errorf("filter options: %w", err)
	}
	return fromOptions(o), nil
}
