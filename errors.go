package casedex

import "github.com/kailas-cloud/casedex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrCaseNotFound       = domain.ErrCaseNotFound
	ErrInvalidRequest     = domain.ErrInvalidRequest
	ErrRetrievalFailed    = domain.ErrRetrievalFailed
	ErrStoreUnavailable   = domain.ErrStoreUnavailable
	ErrIndexUnavailable   = domain.ErrIndexUnavailable
	ErrRateLimited        = domain.ErrRateLimited
	ErrQuotaExceeded      = domain.ErrQuotaExceeded
	ErrContentUnavailable = domain.ErrContentUnavailable
)
