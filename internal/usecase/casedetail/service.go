// Package casedetail serves single-case reads and on-demand enhancement.
package casedetail

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
	"github.com/kailas-cloud/casedex/internal/domain/enhancement"
)

// Full is a case with its opinion text and enhancement.
type Full struct {
	Case        courtcase.Case
	Text        string
	HasFullText bool
	Enhancement enhancement.Enhancement
}

// Service reads cases from the metadata store, falling back to the vector
// index payload when the store is down or lacks the case.
type Service struct {
	store    CaseReader
	index    CaseReader
	content  ContentReader
	enhancer Enhancer
	cache    EnhancementCache
	group    singleflight.Group
	rec      Recorder
	logger   *zap.Logger
}

// New creates a case detail service. index, content and cache may be nil.
func New(
	store CaseReader, index CaseReader, content ContentReader,
	enhancer Enhancer, cache EnhancementCache, logger *zap.Logger,
) *Service {
	return &Service{
		store:    store,
		index:    index,
		content:  content,
		enhancer: enhancer,
		cache:    cache,
		logger:   logger,
	}
}

// WithRecorder reports cache lookups and generations to r.
func (s *Service) WithRecorder(r Recorder) *Service {
	s.rec = r
	return s
}

// GetCase returns one case with its cached enhancement, if any. It never
// generates an enhancement.
func (s *Service) GetCase(ctx context.Context, id string) (courtcase.Case, error) {
	c, err := s.lookup(ctx, id)
	if err != nil {
		return courtcase.Case{}, err
	}
	if e, ok := s.cached(ctx, id); ok {
		c = c.WithEnhancement(e.Summary(), e.KeyPassages())
	}
	return c, nil
}

// GetCaseFull returns the case with its full text and an enhancement,
// generating the enhancement when it is not cached. Concurrent calls for one
// id share a single generation.
func (s *Service) GetCaseFull(ctx context.Context, id string) (Full, error) {
	c, err := s.lookup(ctx, id)
	if err != nil {
		return Full{}, err
	}

	text, hasText := s.readText(ctx, c)
	e := s.enhancement(ctx, c, text)

	return Full{
		Case:        c.WithEnhancement(e.Summary(), e.KeyPassages()),
		Text:        text,
		HasFullText: hasText,
		Enhancement: e,
	}, nil
}

// Warm makes sure the enhancement of id is cached. Errors are logged only.
func (s *Service) Warm(ctx context.Context, id string) {
	if s.cache != nil {
		if _, ok := s.cache.Get(ctx, id); ok {
			return
		}
	}
	c, err := s.lookup(ctx, id)
	if err != nil {
		s.logger.Debug("Skipping enhancement warm-up", zap.String("case_id", id), zap.Error(err))
		return
	}
	text, _ := s.readText(ctx, c)
	s.enhancement(ctx, c, text)
}

func (s *Service) lookup(ctx context.Context, id string) (courtcase.Case, error) {
	if id == "" {
		return courtcase.Case{}, fmt.Errorf("case id is required: %w", domain.ErrInvalidRequest)
	}

	c, storeErr := s.store.Get(ctx, id)
	if storeErr == nil {
		return c, nil
	}
	if s.index == nil {
		return courtcase.Case{}, storeErr
	}
	if !errors.Is(storeErr, domain.ErrCaseNotFound) {
		s.logger.Warn("Metadata store unavailable, reading vector payload",
			zap.String("case_id", id), zap.Error(storeErr))
	}

	c, indexErr := s.index.Get(ctx, id)
	if indexErr == nil {
		return c, nil
	}

	// a definite miss from either source wins over an outage of the other
	if errors.Is(storeErr, domain.ErrCaseNotFound) || errors.Is(indexErr, domain.ErrCaseNotFound) {
		return courtcase.Case{}, fmt.Errorf("case %s: %w", id, domain.ErrCaseNotFound)
	}
	return courtcase.Case{}, fmt.Errorf("get case %s: %w: %w", id, domain.ErrRetrievalFailed,
		errors.Join(storeErr, indexErr))
}

// readText loads the opinion, falling back to the snippet.
func (s *Service) readText(ctx context.Context, c courtcase.Case) (string, bool) {
	if s.content != nil && c.ContentRef() != "" {
		text, err := s.content.Read(ctx, c.ContentRef(), c.ID())
		if err == nil && text != "" {
			return text, true
		}
		if err != nil {
			s.logger.Warn("Full text unavailable, using snippet",
				zap.String("case_id", c.ID()), zap.String("content_ref", c.ContentRef()), zap.Error(err))
		}
	}
	return c.Snippet(), false
}

func (s *Service) cached(ctx context.Context, id string) (enhancement.Enhancement, bool) {
	if s.cache == nil {
		return enhancement.Enhancement{}, false
	}
	e, ok := s.cache.Get(ctx, id)
	if s.rec != nil {
		s.rec.CacheLookup(ok)
	}
	return e, ok
}

func (s *Service) enhancement(ctx context.Context, c courtcase.Case, text string) enhancement.Enhancement {
	if e, ok := s.cached(ctx, c.ID()); ok {
		return e
	}
	if text == "" || s.enhancer == nil {
		return enhancement.Enhancement{}
	}

	v, _, _ := s.group.Do(c.ID(), func() (any, error) {
		// generation outlives the first caller's cancellation
		genCtx := context.WithoutCancel(ctx)
		if s.cache != nil {
			if e, ok := s.cache.Get(genCtx, c.ID()); ok {
				return e, nil
			}
		}
		e := s.enhancer.Enhance(genCtx, c.ID(), text)
		if s.rec != nil {
			s.rec.Generated(string(e.Source()))
		}
		if s.cache != nil {
			s.cache.Set(genCtx, c.ID(), e)
		}
		return e, nil
	})
	return v.(enhancement.Enhancement)
}
