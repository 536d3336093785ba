package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a malformed request that fails before any upstream call.
	ErrInvalidInput = errors.New("invalid input")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrProfileVectorMissing signals an actor without a stored profile embedding.
	ErrProfileVectorMissing = errors.New("profile vector missing")

	// ErrUpstreamUnavailable signals that the vector index, history or sampler
	// could not be reached or timed out.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrTagExtractionFailed signals an LLM tag extraction failure.
	ErrTagExtractionFailed = errors.New("tag extraction failed")
)
