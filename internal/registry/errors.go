package registry

import "errors"

// Domain-specific errors for registry operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidPayload indicates a statestream message could not be decoded.
	ErrInvalidPayload = errors.New("registry: invalid state payload")
)
