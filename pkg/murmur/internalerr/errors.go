package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")

	// Analysis failures
	ErrUnknownTerm        = errors.New("unknown term")
	ErrInvalidGranularity = errors.New("invalid granularity")
	ErrModelInference     = errors.New("model inference failed")
	ErrCacheWrite         = errors.New("cache write failed")
)
