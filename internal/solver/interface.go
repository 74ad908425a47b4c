package solver

import (
	"context"

	"github.com/kike-0203/watchy-solver-clean/pkg/domain"
)

// Solver turns an uploaded problem image into a stored, paginated solution.
type Solver interface {
	// Solve sends the image to the vision model, renders the answer into
	// bitmap pages, stores them, and returns the solution descriptor.
	Solve(ctx context.Context, image []byte) (*domain.Solution, error)
}
