package search

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
	"github.com/kailas-cloud/casedex/internal/domain/enhancement"
	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
	"github.com/kailas-cloud/casedex/internal/domain/search/order"
	"github.com/kailas-cloud/casedex/internal/domain/search/request"
	"github.com/kailas-cloud/casedex/internal/domain/search/result"
	"github.com/kailas-cloud/casedex/internal/retry"
)

// --- Fixture corpus ---

// corpus holds 50 federal cases (fed-00..fed-29 decided 2015-2019, fed-30..fed-49
// decided 2000), 20 state cases that score higher than any federal case, and
// 5 undated cases from "Court-X".
type corpus struct {
	cases   map[string]courtcase.Case
	vector  map[string]float64
	text    map[string]float64
	ordered []string
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newCorpus() *corpus {
	c := &corpus{
		cases:  map[string]courtcase.Case{},
		vector: map[string]float64{},
		text:   map[string]float64{},
	}
	add := func(f courtcase.Fields, vec, txt float64) {
		c.cases[f.ID] = courtcase.Reconstruct(f)
		c.ordered = append(c.ordered, f.ID)
		c.vector[f.ID] = vec
		if txt > 0 {
			c.text[f.ID] = txt
		}
	}

	for i := range 50 {
		decided := day(2015, 1, 1).AddDate(0, 0, i*60)
		if i >= 30 {
			decided = day(2000, 1, 1).AddDate(0, 0, i)
		}
		add(courtcase.Fields{
			ID:           fmt.Sprintf("fed-%02d", i),
			Title:        fmt.Sprintf("United States v. Defendant %d", i),
			Court:        "Court of Appeals",
			Jurisdiction: "federal",
			CaseType:     "criminal",
			Decided:      decided,
		}, 0.90-float64(i)*0.01, float64(50-i%7))
	}
	for i := range 20 {
		add(courtcase.Fields{
			ID:           fmt.Sprintf("st-%02d", i),
			Title:        fmt.Sprintf("People v. Defendant %d", i),
			Court:        "Superior Court",
			Jurisdiction: "california",
			CaseType:     "civil",
			Decided:      day(2016, 6, 1).AddDate(0, 0, i),
		}, 0.99-float64(i)*0.001, 80)
	}
	for i := range 5 {
		add(courtcase.Fields{
			ID:           fmt.Sprintf("x-%d", i),
			Title:        fmt.Sprintf("Matter of X %d", i),
			Court:        "Court-X",
			Jurisdiction: "texas",
			CaseType:     "administrative",
		}, 0.20+float64(i)*0.01, 0)
	}
	return c
}

func (c *corpus) options() filter.Options {
	return filter.Options{
		Jurisdictions: []string{"california", "federal", "texas"},
		Courts:        []string{"Court of Appeals", "Court-X", "Superior Court"},
		CaseTypes:     []courtcase.Type{courtcase.Criminal, courtcase.Civil, courtcase.Administrative},
	}
}

// ranked returns ids matching expr with a positive score, best first.
func (c *corpus) ranked(scores map[string]float64, expr filter.Expression) []string {
	var ids []string
	for _, id := range c.ordered {
		if s, ok := scores[id]; ok && s > 0 && expr.Matches(c.cases[id]) {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, func(a, b string) int {
		if x := cmp.Compare(scores[b], scores[a]); x != 0 {
			return x
		}
		return cmp.Compare(a, b)
	})
	return ids
}

// --- Mocks ---

type fakeIndex struct {
	corpus   *corpus
	err      error
	countErr error
	calls    atomic.Int32
	lastK    atomic.Int32
	// failures makes the next Search calls fail with ErrIndexUnavailable.
	failures atomic.Int32
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, expr filter.Expression, k int) ([]result.Candidate, error) {
	f.calls.Add(1)
	f.lastK.Store(int32(k))
	if f.err != nil {
		return nil, f.err
	}
	if f.failures.Add(-1) >= 0 {
		return nil, domain.ErrIndexUnavailable
	}
	ids := f.corpus.ranked(f.corpus.vector, expr)
	if len(ids) > k {
		ids = ids[:k]
	}
	out := make([]result.Candidate, len(ids))
	for i, id := range ids {
		// payloads carry a stale title so hydration is observable
		c := f.corpus.cases[id]
		payload := courtcase.Reconstruct(courtcase.Fields{
			ID: id, Title: c.Title() + " (index)", Court: c.Court(), Jurisdiction: c.Jurisdiction(),
			CaseType: string(c.CaseType()), Decided: c.Decided(),
		})
		out[i] = result.Candidate{ID: id, Score: f.corpus.vector[id], Source: result.SourceVector, Payload: payload}
	}
	return out, nil
}

func (f *fakeIndex) Count(_ context.Context, expr filter.Expression) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.corpus.ranked(f.corpus.vector, expr)), nil
}

type fakeStore struct {
	corpus     *corpus
	ftsErr     error
	getManyErr error
	optsErr    error
	ftsBlock   bool
	optsBlock  bool

	// ftsFailures makes the next FullTextSearch calls fail with ErrStoreUnavailable.
	ftsFailures atomic.Int32

	ftsCalls    atomic.Int32
	browseCalls atomic.Int32
	optsCalls   atomic.Int32

	mu       sync.Mutex
	lastText string
}

func (f *fakeStore) FullTextSearch(
	ctx context.Context, text string, expr filter.Expression, k int,
) ([]result.Candidate, int, error) {
	f.ftsCalls.Add(1)
	f.mu.Lock()
	f.lastText = text
	f.mu.Unlock()
	if f.ftsBlock {
		<-ctx.Done()
		return nil, 0, ctx.Err()
	}
	if f.ftsErr != nil {
		return nil, 0, f.ftsErr
	}
	if f.ftsFailures.Add(-1) >= 0 {
		return nil, 0, domain.ErrStoreUnavailable
	}
	ids := f.corpus.ranked(f.corpus.text, expr)
	total := len(ids)
	if len(ids) > k {
		ids = ids[:k]
	}
	out := make([]result.Candidate, len(ids))
	for i, id := range ids {
		out[i] = result.Candidate{ID: id, Score: f.corpus.text[id], Source: result.SourceText, Payload: f.corpus.cases[id]}
	}
	return out, total, nil
}

func (f *fakeStore) Browse(
	_ context.Context, expr filter.Expression, o order.Order, k int,
) ([]courtcase.Case, int, error) {
	f.browseCalls.Add(1)
	if f.ftsErr != nil {
		return nil, 0, f.ftsErr
	}
	var out []courtcase.Case
	for _, id := range f.corpus.ordered {
		if c := f.corpus.cases[id]; expr.Matches(c) {
			out = append(out, c)
		}
	}
	cands := make([]result.Candidate, len(out))
	for i, c := range out {
		cands[i] = result.Candidate{ID: c.ID(), Payload: c}
	}
	if o == order.Relevance {
		o = order.DateDesc
	}
	rank(cands, o)
	total := len(cands)
	if len(cands) > k {
		cands = cands[:k]
	}
	out = out[:0]
	for _, c := range cands {
		out = append(out, c.Payload)
	}
	return out, total, nil
}

func (f *fakeStore) GetMany(_ context.Context, ids []string) (map[string]courtcase.Case, error) {
	if f.getManyErr != nil {
		return nil, f.getManyErr
	}
	out := make(map[string]courtcase.Case, len(ids))
	for _, id := range ids {
		if c, ok := f.corpus.cases[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (f *fakeStore) FilterOptions(ctx context.Context) (filter.Options, error) {
	f.optsCalls.Add(1)
	if f.optsBlock {
		<-ctx.Done()
		return filter.Options{}, ctx.Err()
	}
	if f.optsErr != nil {
		return filter.Options{}, f.optsErr
	}
	return f.corpus.options(), nil
}

type mockEmbedder struct {
	err   error
	calls atomic.Int32

	mu       sync.Mutex
	lastText string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.lastText = text
	m.mu.Unlock()
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}, nil
}

type mockRefiner struct {
	out string
	err error
}

func (m *mockRefiner) Refine(context.Context, string) (string, error) {
	return m.out, m.err
}

type mapCache map[string]enhancement.Enhancement

func (m mapCache) Get(_ context.Context, id string) (enhancement.Enhancement, bool) {
	e, ok := m[id]
	return e, ok
}

type recordingPrefetcher struct {
	ids []string
}

func (p *recordingPrefetcher) Prefetch(ids []string) {
	p.ids = append(p.ids, ids...)
}

type recordingRecorder struct {
	mu           sync.Mutex
	paths        []string
	outcomes     []string
	degradations []string
	confidences  []float64
}

func (r *recordingRecorder) ObserveSearch(path, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recordingRecorder) ObserveConfidence(v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confidences = append(r.confidences, v)
}

func (r *recordingRecorder) IncDegradation(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.degradations = append(r.degradations, reason)
}

// stepClock advances by one millisecond on every read.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// --- Helpers ---

type fixture struct {
	svc    *Service
	corpus *corpus
	index  *fakeIndex
	store  *fakeStore
	embed  *mockEmbedder
	rec    *recordingRecorder
	clock  *stepClock
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.EmbedRetry = retry.Config{Attempts: 3, InitialDelay: time.Millisecond, Multiplier: 2}
	cfg.IndexRetry = retry.Config{Attempts: 2, InitialDelay: time.Millisecond}
	cfg.StoreRetry = retry.Config{Attempts: 2, InitialDelay: time.Millisecond}
	cfg.RequestTimeout = 0
	return cfg
}

func newFixture(t *testing.T, cfg Config, opts ...Option) *fixture {
	t.Helper()
	c := newCorpus()
	f := &fixture{
		corpus: c,
		index:  &fakeIndex{corpus: c},
		store:  &fakeStore{corpus: c},
		embed:  &mockEmbedder{},
		rec:    &recordingRecorder{},
		clock:  &stepClock{now: day(2026, 1, 1)},
	}
	opts = append([]Option{WithRecorder(f.rec), WithClock(f.clock.Now)}, opts...)
	f.svc = New(f.index, f.store, f.embed, cfg, opts...)
	return f
}

func mustRequest(t *testing.T, text string, f filter.Filters, o order.Order, offset, limit int) request.Request {
	t.Helper()
	r, err := request.New(text, f, o, offset, limit)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return r
}

func ptr(t time.Time) *time.Time { return &t }

func hitIDs(p result.Page) []string { return p.IDs() }
