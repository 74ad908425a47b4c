// Package storage defines the page-store interface the application relies on.
// It abstracts persistence of rendered solution pages so that different
// backends (e.g. the local filesystem) can provide concrete implementations.
package storage

import (
	"context"
	"time"
)

// PageStore persists and retrieves the rendered pages of a solution. Pages
// are immutable once written: implementations may cache reads freely.
type PageStore interface {
	// SavePages stores the ordered pages of a solution under the given token,
	// replacing any previously stored set.
	SavePages(ctx context.Context, token string, pages [][]byte) error

	// Page returns the raw bytes of one page. It returns an error wrapping
	// serrors.ErrNotFound when the token or page does not exist.
	Page(ctx context.Context, token string, page int) ([]byte, error)

	// PageCount reports how many pages are stored for the token, or an error
	// wrapping serrors.ErrNotFound when the token is unknown.
	PageCount(ctx context.Context, token string) (int, error)
}

// Sweeper is implemented by stores that can discard expired page sets.
type Sweeper interface {
	// Sweep removes page sets that have not been written for at least
	// olderThan and returns how many were removed.
	Sweep(ctx context.Context, olderThan time.Duration) (int, error)
}
