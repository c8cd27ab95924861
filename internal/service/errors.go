package service

import "errors"

// Domain-specific errors for service call dispatch.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidCall indicates the domain or service name is empty.
	ErrInvalidCall = errors.New("service: domain and service are required")

	// ErrEncodeFailed indicates the call envelope could not be encoded.
	ErrEncodeFailed = errors.New("service: encoding call failed")

	// ErrPublishFailed indicates the broker publish failed.
	ErrPublishFailed = errors.New("service: publish failed")
)
