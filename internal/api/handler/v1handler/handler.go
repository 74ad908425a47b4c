// Package v1handler implements the HTTP handlers of the solve API: image
// upload and page retrieval. Handlers translate between the HTTP layer and
// the solver/storage interfaces and map semantic errors to status codes.
package v1handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kike-0203/watchy-solver-clean/internal/config"
	"github.com/kike-0203/watchy-solver-clean/internal/solver"
	"github.com/kike-0203/watchy-solver-clean/pkg/logger"
	"github.com/kike-0203/watchy-solver-clean/pkg/serrors"
	"github.com/kike-0203/watchy-solver-clean/pkg/storage"

	"go.uber.org/zap"
)

// Deps are the collaborators handlers delegate to. The solver is the
// injected application handle: tests substitute a stub implementation.
type Deps struct {
	// Solver runs the image-to-pages pipeline.
	Solver solver.Solver
	// Store serves previously rendered pages.
	Store storage.PageStore
}

// Options holds handler tunables derived from configuration.
type Options struct {
	// MaxUploadBytes caps the size of an uploaded image, including multipart
	// framing overhead.
	MaxUploadBytes int64
}

// NewOptions constructs an Options value from the application configuration.
func NewOptions(cfg *config.Config) Options {
	return Options{
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
	}
}

// Handler bundles the route handlers of the solve API.
type Handler struct {
	deps Deps
	opts Options
}

// New creates a Handler with the given collaborators.
func New(deps Deps, opts Options) *Handler {
	return &Handler{deps: deps, opts: opts}
}

// Health reports liveness for orchestration probes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError logs the error and writes the matching JSON error envelope.
// Internal details are never leaked to clients on 5xx responses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := serrors.HTTPStatus(err)

	if status >= http.StatusInternalServerError {
		logger.Error(r.Context(), "request failed", zap.Error(err), zap.Int("status", status))
		writeJSON(w, status, map[string]string{"error": http.StatusText(status)})

		return
	}

	logger.Warn(r.Context(), "request rejected", zap.Error(err), zap.Int("status", status))

	msg := err.Error()
	var serr *serrors.Error
	if errors.As(err, &serr) && serr.Message() != "" {
		msg = serr.Message()
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
