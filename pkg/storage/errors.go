package storage

import "errors"

// Common errors returned by page-store implementations.
var (
	// ErrInvalidToken is returned when a token does not look like a solution
	// token (12 lowercase hex characters). Stores validate tokens before
	// touching the backing medium so a crafted token can never escape it.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNoPages is returned when SavePages is called with an empty page set.
	ErrNoPages = errors.New("no pages to store")
)
