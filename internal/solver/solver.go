// Package solver contains the core pipeline: derive a content token from the
// uploaded image, obtain the solution text from the vision model, render it
// into bitmap pages and persist them.
package solver

import (
	"context"
	"crypto/sha1" //nolint: gosec
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kike-0203/watchy-solver-clean/internal/config"
	"github.com/kike-0203/watchy-solver-clean/internal/render"
	"github.com/kike-0203/watchy-solver-clean/pkg/domain"
	"github.com/kike-0203/watchy-solver-clean/pkg/logger"
	"github.com/kike-0203/watchy-solver-clean/pkg/metrics"
	"github.com/kike-0203/watchy-solver-clean/pkg/serrors"
	"github.com/kike-0203/watchy-solver-clean/pkg/storage"
	"github.com/kike-0203/watchy-solver-clean/pkg/vision"

	"go.uber.org/zap"
)

// Options configure solving behavior. These settings are typically derived
// from application configuration.
type Options struct {
	// ReuseStored skips the model call when pages for the image's token are
	// already stored. The token is a content hash, so a stored set is always
	// a valid answer for the same image.
	ReuseStored bool
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		ReuseStored: cfg.Solver.ReuseStored,
	}
}

// solver is the concrete implementation of the Solver interface. It
// coordinates the vision client, the renderer and the page store.
type solver struct {
	options Options
	vision  vision.Client
	store   storage.PageStore
}

// Token derives the solution token from the image content: the first 12 hex
// characters of its SHA-1 digest. SHA-1 is used as a cheap content key here,
// not for security.
func Token(image []byte) string {
	sum := sha1.Sum(image) //nolint: gosec

	return hex.EncodeToString(sum[:])[:domain.TokenLength]
}

// Solve runs the full pipeline for one uploaded image.
func (s solver) Solve(ctx context.Context, image []byte) (*domain.Solution, error) {
	if len(image) == 0 {
		return nil, serrors.With(serrors.ErrBadRequest, "empty image")
	}

	start := time.Now()
	token := Token(image)
	ctx = logger.WithFields(ctx, zap.String("token", token))

	if s.options.ReuseStored {
		if n, err := s.store.PageCount(ctx, token); err == nil && n > 0 {
			logger.Info(ctx, "reusing stored solution", zap.Int("pages", n))
			metrics.SolveRequests.WithLabelValues("reused").Inc()

			return &domain.Solution{Token: token, Pages: n}, nil
		}
	}

	text, err := s.vision.Solve(ctx, image)
	if err != nil {
		metrics.SolveRequests.WithLabelValues("error").Inc()

		return nil, fmt.Errorf("could not solve image: %w", err)
	}

	pages := render.Pages(text)
	metrics.PagesRendered.Add(float64(len(pages)))

	if err := s.store.SavePages(ctx, token, pages); err != nil {
		metrics.SolveRequests.WithLabelValues("error").Inc()

		return nil, fmt.Errorf("could not store pages: %w", err)
	}

	metrics.SolveRequests.WithLabelValues("ok").Inc()
	metrics.SolveDuration.Observe(time.Since(start).Seconds())
	logger.Info(ctx, "image solved", zap.Int("pages", len(pages)))

	return &domain.Solution{Token: token, Pages: len(pages)}, nil
}

// New creates a Solver backed by the provided vision client and page store.
func New(visionClient vision.Client, store storage.PageStore, options Options) Solver {
	return &solver{
		options: options,
		vision:  visionClient,
		store:   store,
	}
}
