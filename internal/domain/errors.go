package domain

import "errors"

var (
	// ErrEmbeddingUnavailable signals that the query could not be vectorized.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrIndexUnavailable signals a vector index failure.
	ErrIndexUnavailable = errors.New("vector index unavailable")
	// ErrStoreUnavailable signals a metadata/text store failure.
	ErrStoreUnavailable = errors.New("case store unavailable")
	// ErrRetrievalFailed signals that no retrieval source produced an answer.
	ErrRetrievalFailed = errors.New("retrieval failed")
	// ErrInvalidFilter signals an unrecognized filter value. Search resolves it to zero results.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidRequest signals a malformed caller request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrCaseNotFound signals a missing case id.
	ErrCaseNotFound = errors.New("case not found")
	// ErrContentUnavailable signals that the full text behind a case could not be read.
	ErrContentUnavailable = errors.New("case content unavailable")
	// ErrEnhancementUnavailable signals a summary generation failure.
	ErrEnhancementUnavailable = errors.New("enhancement unavailable")
	// ErrRateLimited signals a provider rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded signals that the provider token budget is spent.
	ErrQuotaExceeded = errors.New("token quota exceeded")
)
