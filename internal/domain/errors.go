package domain

import "errors"

var (
	// ErrUnknownTicker signals a ticker the SEC directory cannot map to a CIK.
	ErrUnknownTicker = errors.New("unknown ticker")
	// ErrNoMatchingFiling signals a resolved issuer with no 10-Q for the requested period.
	ErrNoMatchingFiling = errors.New("no matching filing")
	// ErrNotCached signals a freshness-cache miss.
	ErrNotCached = errors.New("not cached")
	// ErrArityMismatch signals a fragment/embedding count mismatch on upsert.
	ErrArityMismatch = errors.New("fragment and embedding counts differ")
	// ErrRateLimited signals a rate limit hit on an upstream API.
	ErrRateLimited = errors.New("rate limited")
	// ErrUpstreamUnavailable signals a network or HTTP failure from an upstream API.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrAnalystProviderError signals an LLM provider failure during report generation.
	ErrAnalystProviderError = errors.New("analyst provider error")
	// ErrInvalidInput signals a malformed request.
	ErrInvalidInput = errors.New("invalid input")
)
