package casedetail

import (
	"context"

	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
	"github.com/kailas-cloud/casedex/internal/domain/enhancement"
)

// CaseReader reads authoritative case metadata.
type CaseReader interface {
	Get(ctx context.Context, id string) (courtcase.Case, error)
}

// ContentReader resolves a contentRef to the full opinion text.
type ContentReader interface {
	Read(ctx context.Context, contentRef, id string) (string, error)
}

// Enhancer derives an enhancement from opinion text. It never fails.
type Enhancer interface {
	Enhance(ctx context.Context, caseID, text string) enhancement.Enhancement
}

// EnhancementCache memoizes enhancements by case id.
type EnhancementCache interface {
	Get(ctx context.Context, id string) (enhancement.Enhancement, bool)
	Set(ctx context.Context, id string, e enhancement.Enhancement)
}

// Recorder reports enhancement cache and generation telemetry.
type Recorder interface {
	CacheLookup(hit bool)
	Generated(source string)
}
