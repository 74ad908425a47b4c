// Package vision defines the interface used to obtain a written solution for
// the math problem contained in an image, abstracted from any specific model
// provider.
package vision

import "context"

// Client is the abstraction for vision-capable solvers. Implementations send
// the image to a model provider and return the solution text (typically
// LaTeX). Implementations must be safe for concurrent use.
type Client interface {
	// Solve submits the image and returns the model's solution text. Upstream
	// quota rejections are reported as serrors.ErrRateLimited, other provider
	// failures as serrors.ErrUnavailable.
	Solve(ctx context.Context, image []byte) (string, error)
}
