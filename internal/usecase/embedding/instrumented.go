// Package embedding holds the query embedding decorators that sit between the
// provider client and the search orchestrator.
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/retry"
)

// BudgetChecker is the token budget as seen by the decorator.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	Remaining() (daily, monthly int64)
}

// InstrumentedEmbedder enforces the token budget and logs every provider call.
// Request counters and latency are recorded by the transport.
type InstrumentedEmbedder struct {
	inner     domain.Embedder
	provider  string
	model     string
	budget    BudgetChecker
	remaining *prometheus.GaugeVec
	logger    *zap.Logger
}

// NewInstrumentedEmbedder wraps inner. budget and remaining may be nil.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	budget BudgetChecker, remaining *prometheus.GaugeVec, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:     inner,
		provider:  provider,
		model:     model,
		budget:    budget,
		remaining: remaining,
		logger:    logger,
	}
}

// Embed checks the budget, delegates and records usage. A spent budget is
// returned as a permanent error so callers do not retry it.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if p.budget != nil {
		if err := p.budget.Check(ctx); err != nil {
			p.logger.Error("Token budget exceeded",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Error(err),
			)
			return domain.EmbeddingResult{}, retry.Permanent(fmt.Errorf("budget check: %w", err))
		}
	}

	start := time.Now()
	res, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.record(res.TotalTokens)

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(res.Embedding)),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res, nil
}

func (p *InstrumentedEmbedder) record(tokens int) {
	if p.budget == nil || tokens <= 0 {
		return
	}
	p.budget.Record(int64(tokens))
	if p.remaining == nil {
		return
	}
	daily, monthly := p.budget.Remaining()
	p.remaining.WithLabelValues(p.provider, "daily").Set(float64(daily))
	p.remaining.WithLabelValues(p.provider, "monthly").Set(float64(monthly))
}
