package models

import "errors"

// Backend failure taxonomy. Every provider error wraps exactly one of these so
// callers can classify without knowing the backend.
var (
	// ErrUnavailable means the backend could not be reached or is not configured.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrTimeout means the per-attempt timeout budget was exhausted.
	ErrTimeout = errors.New("backend timeout")

	// ErrMalformedResponse means the backend answered but the body could not be
	// decoded into the expected shape.
	ErrMalformedResponse = errors.New("malformed backend response")
)
