package climate

import "errors"

// Domain-specific errors for climate proxy operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrMissingOption indicates a required option or argument was not provided.
	ErrMissingOption = errors.New("climate: missing required option")

	// ErrAlreadyAttached indicates Attach was called on an attached proxy.
	ErrAlreadyAttached = errors.New("climate: proxy already attached")

	// ErrNotFound indicates no proxy exists for the requested instance.
	ErrNotFound = errors.New("climate: proxy not found")
)
