package search

import (
	"time"

	"github.com/kailas-cloud/casedex/internal/retry"
)

// ConfidenceMetric selects how vector confidence is computed.
type ConfidenceMetric string

// Confidence metrics.
const (
	ConfidenceTop1     ConfidenceMetric = "top1"
	ConfidenceMeanTop5 ConfidenceMetric = "mean_top5"
)

// CandidateWindow selects how many candidates each retrieval path returns.
type CandidateWindow string

// Candidate windows. Cap always fetches the cap, so pages never overlap or skip.
// Page fetches offset+limit candidates, which is cheaper for shallow reads.
// Under fusion it does not keep pages disjoint: a case found by the text path
// on one page can rank by its vector score on a later, deeper page and show up
// twice. Only relevance order uses it; date orders always fetch the cap.
const (
	WindowPage CandidateWindow = "page"
	WindowCap  CandidateWindow = "cap"
)

// Defaults.
const (
	DefaultThreshold     = 0.45
	DefaultCap           = 200
	DefaultVocabularyTTL = 5 * time.Minute
)

// Config tunes the orchestrator.
type Config struct {
	Threshold        float64
	ConfidenceMetric ConfidenceMetric
	Cap              int
	Window           CandidateWindow
	ParallelText     bool

	RequestTimeout time.Duration
	// IndexTimeout and StoreTimeout bound a single attempt against each source.
	IndexTimeout time.Duration
	StoreTimeout time.Duration

	// EmbedRetry carries the per-attempt embed timeout.
	EmbedRetry retry.Config
	// IndexRetry and StoreRetry take their attempt timeout from IndexTimeout
	// and StoreTimeout.
	IndexRetry retry.Config
	StoreRetry retry.Config

	VocabularyTTL time.Duration
	PrefetchTop   int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	embedRetry := retry.DefaultConfig()
	embedRetry.AttemptTimeout = 3 * time.Second
	return Config{
		Threshold:        DefaultThreshold,
		ConfidenceMetric: ConfidenceTop1,
		Cap:              DefaultCap,
		Window:           WindowCap,
		RequestTimeout:   10 * time.Second,
		IndexTimeout:     2 * time.Second,
		StoreTimeout:     2 * time.Second,
		EmbedRetry:       embedRetry,
		IndexRetry:       sourceRetry(),
		StoreRetry:       sourceRetry(),
		VocabularyTTL:    DefaultVocabularyTTL,
	}
}

// sourceRetry is a short policy for index and store calls: one retry of a
// transient failure before the request degrades to the other path.
func sourceRetry() retry.Config {
	return retry.Config{
		Attempts:     2,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     200 * time.Millisecond,
		Multiplier:   2,
		Jitter:       true,
	}
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.ConfidenceMetric == "" {
		c.ConfidenceMetric = ConfidenceTop1
	}
	if c.Cap <= 0 {
		c.Cap = DefaultCap
	}
	if c.Window == "" {
		c.Window = WindowCap
	}
	if c.VocabularyTTL <= 0 {
		c.VocabularyTTL = DefaultVocabularyTTL
	}
	return c
}
