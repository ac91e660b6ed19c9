package rag

import "errors"

var (
	// ErrInvalidInput indicates a malformed request: missing or wrong-typed fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyIndex is returned when a query runs before anything was ingested.
	ErrEmptyIndex = errors.New("no documents indexed")

	// ErrNotConfigured indicates the generation collaborator is unavailable.
	ErrNotConfigured = errors.New("generation client not configured")

	// ErrUpstream matches every failure reported by the generation collaborator.
	ErrUpstream = errors.New("generation failed")

	// ErrInvalidChunking is returned for chunk settings outside 0 < overlap < size.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrDimensionMismatch is returned when an embedding does not have the store's dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// UpstreamError wraps an error from the generation collaborator.
// Its message is the collaborator's message, unchanged.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return e.Err.Error() }

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }
