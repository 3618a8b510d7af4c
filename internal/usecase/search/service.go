// Package search orchestrates hybrid vector and lexical case search.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
	"github.com/kailas-cloud/casedex/internal/domain/search/request"
	"github.com/kailas-cloud/casedex/internal/domain/search/result"
	"github.com/kailas-cloud/casedex/internal/logger"
	"github.com/kailas-cloud/casedex/internal/retry"
)

// Retrieval paths reported to the Recorder.
const (
	PathVector = "vector"
	PathHybrid = "hybrid"
	PathText   = "text"
	PathBrowse = "browse"
	PathEmpty  = "empty"
)

// Service runs searches. It holds no per-request state; the vocabulary
// snapshot is the only shared mutable data.
type Service struct {
	index    VectorIndex
	store    TextStore
	embed    Embedder
	refiner  Refiner
	cache    EnhancementReader
	prefetch Prefetcher
	rec      Recorder
	cfg      Config
	now      func() time.Time
	vocab    *vocabularyCache
}

// Option configures optional collaborators.
type Option func(*Service)

// WithRefiner enables query refinement before embedding.
func WithRefiner(r Refiner) Option { return func(s *Service) { s.refiner = r } }

// WithEnhancementCache attaches cached enhancements to hits.
func WithEnhancementCache(c EnhancementReader) Option { return func(s *Service) { s.cache = c } }

// WithPrefetcher warms enhancements of the first hits after each search.
func WithPrefetcher(p Prefetcher) Option { return func(s *Service) { s.prefetch = p } }

// WithRecorder reports telemetry.
func WithRecorder(r Recorder) Option { return func(s *Service) { s.rec = r } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// New creates a search service.
func New(index VectorIndex, store TextStore, embed Embedder, cfg Config, opts ...Option) *Service {
	s := &Service{
		index: index,
		store: store,
		embed: embed,
		cfg:   cfg.withDefaults(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.vocab = &vocabularyCache{
		store:   store,
		ttl:     s.cfg.VocabularyTTL,
		timeout: s.cfg.StoreTimeout,
		now:     s.now,
	}
	return s
}

// FilterOptions returns the distinct filter values, served from the vocabulary snapshot.
func (s *Service) FilterOptions(ctx context.Context) (filter.Options, error) {
	opts, err := s.vocab.options(ctx)
	if err != nil {
		return filter.Options{}, fmt.Errorf("filter options: %w", err)
	}
	return opts, nil
}

// legs collects the outcome of both retrieval paths.
type legs struct {
	vec      []result.Candidate
	vecCount int
	vecErr   error

	txt      []result.Candidate
	txtCount int
	txtErr   error
	txtRan   bool
}

// Search ranks cases for req. Unsatisfiable filters give an empty page. A
// failing path degrades to the other one; only when both fail does Search
// return domain.ErrRetrievalFailed.
func (s *Service) Search(ctx context.Context, req request.Request) (result.Page, error) {
	start := s.now()
	log := logger.FromContext(ctx)

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	page := result.Page{Offset: req.Offset(), Limit: req.Limit()}

	expr := filter.Compile(req.Filters(), s.vocab.get(ctx))
	if expr.IsNever() {
		page.QueryTimeMs = s.since(start)
		s.observe(PathEmpty, "ok", start)
		return page, nil
	}

	if req.IsBrowse() {
		return s.browse(ctx, req, expr, page, start)
	}

	k := s.window(req)
	l := s.retrieve(ctx, req.Text(), expr, k)

	path := PathVector
	var cands []result.Candidate
	switch {
	case !l.txtRan:
		cands = l.vec
	case l.vecErr != nil && l.txtErr != nil:
		s.observe(PathHybrid, "error", start)
		return result.Page{}, fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, errors.Join(l.vecErr, l.txtErr))
	case l.vecErr != nil:
		path = PathText
		cands = fuse(nil, l.txt)
	default:
		path = PathHybrid
		if l.txtErr != nil {
			s.degrade(log, "text_unavailable", l.txtErr)
		}
		cands = fuse(l.vec, l.txt)
	}

	rank(cands, req.Order())
	if len(cands) > s.cfg.Cap {
		cands = cands[:s.cfg.Cap]
	}
	page.TotalAvailable = min(max(l.vecCount, l.txtCount, len(cands)), s.cfg.Cap)
	page.Hits = s.hydrate(ctx, log, paginate(cands, req.Offset(), req.Limit()), true)
	page.QueryTimeMs = s.since(start)

	s.afterSearch(page)
	outcome := "ok"
	if l.vecErr != nil || (l.txtRan && l.txtErr != nil) {
		outcome = "degraded"
	}
	s.observe(path, outcome, start)
	return page, nil
}

// retrieve runs the vector path and, when confidence is low or the vector
// path failed, the text path. With ParallelText both run concurrently and
// neither failure cancels the other.
func (s *Service) retrieve(ctx context.Context, text string, expr filter.Expression, k int) legs {
	var l legs
	log := logger.FromContext(ctx)

	if s.cfg.ParallelText {
		var g errgroup.Group
		g.Go(func() error {
			l.vec, l.vecCount, l.vecErr = s.vectorLeg(ctx, text, expr, k)
			return nil
		})
		g.Go(func() error {
			l.txt, l.txtCount, l.txtErr = s.textLeg(ctx, text, expr, k)
			return nil
		})
		_ = g.Wait()
		l.txtRan = true
	} else {
		l.vec, l.vecCount, l.vecErr = s.vectorLeg(ctx, text, expr, k)
	}

	conf := confidence(l.vec, s.cfg.ConfidenceMetric)
	if l.vecErr == nil && s.rec != nil {
		s.rec.ObserveConfidence(conf)
	}
	if l.vecErr != nil {
		s.degrade(log, "vector_unavailable", l.vecErr)
	}

	if l.vecErr == nil && conf >= s.cfg.Threshold {
		// confident vector results stand alone
		l.txt, l.txtCount, l.txtErr, l.txtRan = nil, 0, nil, false
		return l
	}

	if !l.txtRan {
		l.txt, l.txtCount, l.txtErr = s.textLeg(ctx, text, expr, k)
		l.txtRan = true
	}
	log.Debug("Low vector confidence, fused with text search",
		zap.Float64("confidence", conf), zap.Float64("threshold", s.cfg.Threshold),
		zap.Int("vector_hits", len(l.vec)), zap.Int("text_hits", len(l.txt)))
	return l
}

func (s *Service) vectorLeg(
	ctx context.Context, text string, expr filter.Expression, k int,
) ([]result.Candidate, int, error) {
	query := s.refine(ctx, text)

	emb, err := retry.Do(ctx, s.cfg.EmbedRetry, func(ctx context.Context) (domain.EmbeddingResult, error) {
		return s.embed.Embed(ctx, query)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("embed query: %w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	var (
		hits  []result.Candidate
		count int
		g     errgroup.Group
	)
	g.Go(func() error {
		var err error
		hits, err = retry.Do(ctx, s.indexRetry(), func(ctx context.Context) ([]result.Candidate, error) {
			return s.index.Search(ctx, emb.Embedding, expr, k)
		})
		return err
	})
	g.Go(func() error {
		var err error
		count, err = retry.Do(ctx, s.indexRetry(), func(ctx context.Context) (int, error) {
			return s.index.Count(ctx, expr)
		})
		if err != nil {
			logger.FromContext(ctx).Warn("Vector count failed", zap.Error(err))
			count = 0
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return hits, count, nil
}

func (s *Service) textLeg(
	ctx context.Context, text string, expr filter.Expression, k int,
) ([]result.Candidate, int, error) {
	type found struct {
		cands []result.Candidate
		total int
	}
	f, err := retry.Do(ctx, s.storeRetry(), func(ctx context.Context) (found, error) {
		cands, total, err := s.store.FullTextSearch(ctx, text, expr, k)
		return found{cands, total}, err
	})
	return f.cands, f.total, err
}

// refine rewrites text for embedding only. Failures keep the raw text.
func (s *Service) refine(ctx context.Context, text string) string {
	if s.refiner == nil || len([]rune(text)) <= 2 {
		return text
	}
	refined, err := s.refiner.Refine(ctx, text)
	if err != nil || refined == "" {
		if err != nil {
			logger.FromContext(ctx).Warn("Query refinement failed, using raw query", zap.Error(err))
		}
		return text
	}
	return refined
}

// browse lists filter matches without a query, already ordered by the store.
func (s *Service) browse(
	ctx context.Context, req request.Request, expr filter.Expression, page result.Page, start time.Time,
) (result.Page, error) {
	type listed struct {
		cases []courtcase.Case
		total int
	}
	l, err := retry.Do(ctx, s.storeRetry(), func(ctx context.Context) (listed, error) {
		cases, total, err := s.store.Browse(ctx, expr, req.Order(), s.cfg.Cap)
		return listed{cases, total}, err
	})
	if err != nil {
		s.observe(PathBrowse, "error", start)
		return result.Page{}, fmt.Errorf("browse: %w: %w", domain.ErrRetrievalFailed, err)
	}

	cands := make([]result.Candidate, len(l.cases))
	for i, c := range l.cases {
		cands[i] = result.Candidate{ID: c.ID(), Source: result.SourceText, Payload: c}
	}
	page.TotalAvailable = min(max(l.total, len(cands)), s.cfg.Cap)
	page.Hits = s.hydrate(ctx, logger.FromContext(ctx), paginate(cands, req.Offset(), req.Limit()), false)
	page.QueryTimeMs = s.since(start)

	s.afterSearch(page)
	s.observe(PathBrowse, "ok", start)
	return page, nil
}

// window is the per-path candidate count. Date orders rank the whole capped
// set so every page sees the same candidates.
func (s *Service) window(req request.Request) int {
	if s.cfg.Window == WindowCap || req.Order().ByDate() {
		return s.cfg.Cap
	}
	return min(req.Window(), s.cfg.Cap)
}

// paginate slices [offset, offset+limit). An offset past the end is an empty page.
func paginate(cands []result.Candidate, offset, limit int) []result.Candidate {
	if offset >= len(cands) {
		return nil
	}
	return cands[offset:min(offset+limit, len(cands))]
}

// hydrate turns page candidates into hits. Stored metadata wins over index
// payloads; when the store is down the payload is kept as is.
func (s *Service) hydrate(ctx context.Context, log *zap.Logger, cands []result.Candidate, fromStore bool) []result.Hit {
	if len(cands) == 0 {
		return nil
	}

	var stored map[string]courtcase.Case
	if fromStore {
		ids := make([]string, len(cands))
		for i, c := range cands {
			ids[i] = c.ID
		}
		m, err := retry.Do(ctx, s.storeRetry(), func(ctx context.Context) (map[string]courtcase.Case, error) {
			return s.store.GetMany(ctx, ids)
		})
		if err != nil {
			s.degrade(log, "hydrate_unavailable", err)
		}
		stored = m
	}

	hits := make([]result.Hit, len(cands))
	for i, c := range cands {
		cs := c.Payload
		if row, ok := stored[c.ID]; ok {
			cs = cs.Merge(row)
		}
		cs = cs.Lite()
		if s.cache != nil {
			if e, ok := s.cache.Get(ctx, c.ID); ok {
				cs = cs.WithEnhancement(e.Summary(), e.KeyPassages())
			}
		}
		hits[i] = result.NewHit(cs, c.Score)
	}
	return hits
}

func (s *Service) afterSearch(page result.Page) {
	if s.prefetch == nil || s.cfg.PrefetchTop <= 0 || len(page.Hits) == 0 {
		return
	}
	ids := page.IDs()
	s.prefetch.Prefetch(ids[:min(s.cfg.PrefetchTop, len(ids))])
}

func (s *Service) degrade(log *zap.Logger, reason string, err error) {
	log.Warn("Search degraded", zap.String("reason", reason), zap.Error(err))
	if s.rec != nil {
		s.rec.IncDegradation(reason)
	}
}

func (s *Service) observe(path, outcome string, start time.Time) {
	if s.rec != nil {
		s.rec.ObserveSearch(path, outcome, s.now().Sub(start))
	}
}

func (s *Service) since(start time.Time) int64 {
	return s.now().Sub(start).Milliseconds()
}

func (s *Service) indexRetry() retry.Config {
	cfg := s.cfg.IndexRetry
	cfg.AttemptTimeout = s.cfg.IndexTimeout
	return cfg
}

func (s *Service) storeRetry() retry.Config {
	cfg := s.cfg.StoreRetry
	cfg.AttemptTimeout = s.cfg.StoreTimeout
	return cfg
}
