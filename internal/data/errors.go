package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrKeyRequired is returned by cache operations given an empty key.
	ErrKeyRequired = errors.New("key cannot be empty")
	// ErrSessionRequestRequired is returned when Create is called without a request.
	ErrSessionRequestRequired = errors.New("create session request is required")
)
