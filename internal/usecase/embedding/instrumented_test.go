package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/retry"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

func newRemainingGauge() *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "test_budget_remaining"}, []string{"provider", "period"})
}

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	p := NewInstrumentedEmbedder(inner, "openai", "text-embedding-3-small", nil, nil, zap.NewNop())

	res, err := p.Embed(context.Background(), "miranda warning")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(res.Embedding))
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("api error")}
	p := NewInstrumentedEmbedder(inner, "openai", "m", nil, nil, zap.NewNop())

	_, err := p.Embed(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error")
	}
	if retry.IsPermanent(err) {
		t.Error("provider errors should stay retryable")
	}
}

func TestInstrumentedEmbedder_BudgetRejectionIsPermanent(t *testing.T) {
	b, _ := newTestBudget(100, 0, BudgetActionReject)
	b.Record(100)
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	p := NewInstrumentedEmbedder(inner, "openai", "m", b, nil, zap.NewNop())

	_, err := p.Embed(context.Background(), "q")
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if !retry.IsPermanent(err) {
		t.Error("budget rejection should not be retried")
	}
	if inner.calls != 0 {
		t.Error("provider must not be called over budget")
	}
}

func TestInstrumentedEmbedder_RecordsUsage(t *testing.T) {
	b, _ := newTestBudget(1000, 10000, BudgetActionReject)
	gauge := newRemainingGauge()
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}, TotalTokens: 250}}
	p := NewInstrumentedEmbedder(inner, "openai", "m", b, gauge, zap.NewNop())

	if _, err := p.Embed(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if daily, _ := b.Used(); daily != 250 {
		t.Errorf("daily used = %d, want 250", daily)
	}
	if got := testutil.ToFloat64(gauge.WithLabelValues("openai", "daily")); got != 750 {
		t.Errorf("daily gauge = %v, want 750", got)
	}
	if got := testutil.ToFloat64(gauge.WithLabelValues("openai", "monthly")); got != 9750 {
		t.Errorf("monthly gauge = %v, want 9750", got)
	}
}

func TestInstrumentedEmbedder_CacheHitDoesNotRecord(t *testing.T) {
	b, _ := newTestBudget(1000, 0, BudgetActionReject)
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	p := NewInstrumentedEmbedder(inner, "openai", "m", b, nil, zap.NewNop())

	if _, err := p.Embed(context.Background(), "q"); err != nil {
		t.Fatal(err)
	}
	if daily, _ := b.Used(); daily != 0 {
		t.Errorf("zero-token result recorded %d", daily)
	}
}
