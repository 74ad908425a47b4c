// Package api configures and exposes the HTTP server, routes, metrics, docs
// and related middleware for the solver service.
package api

import (
	_ "embed"
	"net/http"
	"time"

	"github.com/kike-0203/watchy-solver-clean/internal/api/handler/v1handler"
	"github.com/kike-0203/watchy-solver-clean/internal/config"
	"github.com/kike-0203/watchy-solver-clean/pkg/controller"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
)

// v1Spec contains the embedded OpenAPI specification for version 1 of the API.
//
//go:embed specs/v1.yaml
var v1Spec []byte

// Options holds configuration for the HTTP server. All durations configure
// server timeouts; zero values use the net/http defaults where applicable.
type Options struct {
	// HandlerOptions configures the route handlers.
	HandlerOptions v1handler.Options

	// Addr is the TCP address the server listens on, e.g. "0.0.0.0:8000".
	Addr string
	// ReadTimeout is the maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration
	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
	// RequestTimeout is the global timeout applied via http.TimeoutHandler.
	RequestTimeout time.Duration
	// MaxHeaderBytes controls the maximum number of bytes the server
	// will read parsing the request header's keys and values.
	MaxHeaderBytes int
	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	MetricsPath string
}

// NewOptions constructs an Options value from the provided application
// configuration.
func NewOptions(cfg *config.Config) Options {
	return Options{
		HandlerOptions: v1handler.NewOptions(cfg),

		Addr:              cfg.HTTP.Addr,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		RequestTimeout:    cfg.HTTP.RequestTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MetricsPath:       cfg.HTTP.MetricsPath,
	}
}

// Deps carries the collaborators injected into the route handlers. The
// solver inside is the application handle the server delegates requests to.
type Deps struct {
	v1handler.Deps
}

// NewServer wires up and returns a configured *http.Server. It sets up:
//   - the solve API routes (/solve_image, /pbm/{token}/{page}, /healthz)
//   - the Prometheus metrics endpoint (MetricsPath)
//   - the embedded OpenAPI spec and the Swagger playground
//   - pprof endpoints for profiling
//
// The router is wrapped with CORS, panic-recovery and access-log middlewares
// and a global request timeout.
func NewServer(deps Deps, opts Options) *http.Server {
	router := mux.NewRouter()

	// prometheus metrics
	router.Handle(opts.MetricsPath, promhttp.Handler())

	// v1 spec file + swagger playground
	router.HandleFunc("/specs/v1.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(v1Spec)
	})
	router.PathPrefix("/docs/").Handler(v5emb.New(
		"Watchy Solver",
		"/specs/v1.yaml",
		"/docs/",
	))

	// solve API
	h := v1handler.New(deps.Deps, opts.HandlerOptions)
	router.HandleFunc("/solve_image", h.SolveImage).Methods(http.MethodPost)
	router.HandleFunc("/pbm/{token}/{page}", h.GetPage).Methods(http.MethodGet)
	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	// pprof
	router.PathPrefix("/debug/pprof/").Handler(controller.PprofMux())

	// cors, panic isolation, access log (outermost)
	handler := controller.WithCORS(router)
	handler = controller.WithRecover(handler)
	handler = controller.WithLogger(handler)

	if opts.RequestTimeout > 0 {
		handler = http.TimeoutHandler(handler, opts.RequestTimeout, `{"error":"request timed out"}`)
	}

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
	}
}
