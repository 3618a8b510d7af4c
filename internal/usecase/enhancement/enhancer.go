// Package enhancement derives a summary and key passages for a case.
package enhancement

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/domain"
	domenh "github.com/kailas-cloud/casedex/internal/domain/enhancement"
)

const (
	// MaxSummaryInput bounds the text sent to the summarizer.
	MaxSummaryInput = 8000
	excerptLength   = 500
)

// Summarizer turns opinion text into a structured syllabus.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Enhancer builds enhancements. It never fails: a summarizer error falls back to an excerpt.
type Enhancer struct {
	summarizer Summarizer
	now        func() time.Time
	logger     *zap.Logger
}

// New creates an enhancer. A nil summarizer always produces excerpts.
func New(s Summarizer, logger *zap.Logger) *Enhancer {
	return &Enhancer{summarizer: s, now: time.Now, logger: logger}
}

// Enhance summarizes text and extracts key passages.
func (e *Enhancer) Enhance(ctx context.Context, caseID, text string) domenh.Enhancement {
	passages := KeyPassages(text)

	if e.summarizer != nil {
		summary, err := e.summarizer.Summarize(ctx, domain.TruncateRunes(text, MaxSummaryInput))
		if err == nil && summary != "" {
			return domenh.New(summary, passages, domenh.SourceAI, e.now())
		}
		e.logger.Warn("Summary generation failed, using excerpt",
			zap.String("case_id", caseID), zap.Error(err))
	}

	return domenh.New(Excerpt(text), passages, domenh.SourceExcerpt, e.now())
}

// Excerpt returns the first 500 characters of text, marked with "..." when cut.
func Excerpt(text string) string {
	cut := domain.TruncateRunes(text, excerptLength)
	if len(cut) < len(text) {
		return cut + "..."
	}
	return cut
}
