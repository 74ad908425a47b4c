package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kike-0203/watchy-solver-clean/internal/api"
	"github.com/kike-0203/watchy-solver-clean/internal/api/handler/v1handler"
	"github.com/kike-0203/watchy-solver-clean/internal/config"
	"github.com/kike-0203/watchy-solver-clean/internal/solver"
	"github.com/kike-0203/watchy-solver-clean/pkg/logger"
	"github.com/kike-0203/watchy-solver-clean/pkg/storage/fsstore"
	"github.com/kike-0203/watchy-solver-clean/pkg/vision/openai"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// buildDeps constructs the application handle (the solver) and its
// collaborators. A failure here is fatal: an unservable application is
// unrecoverable without a new deployment.
func buildDeps(ctx context.Context, cfg *config.Config) (v1handler.Deps, error) {
	store, err := fsstore.New(fsstore.Options{
		Root:      cfg.Store.Root,
		CacheSize: cfg.Store.CacheSize,
	})
	if err != nil {
		return v1handler.Deps{}, fmt.Errorf("could not create page store: %w", err)
	}
	logger.Info(ctx, "page store ready", zap.String("root", store.Root()))

	if cfg.Vision.APIKey == "" {
		logger.Warn(ctx, "OPENAI_API_KEY is empty, solve requests will fail")
	}
	visionClient := openai.New(
		&http.Client{Timeout: cfg.Vision.RequestTimeout},
		openai.Options{
			BaseURL: cfg.Vision.BaseURL,
			APIKey:  cfg.Vision.APIKey,
			Model:   cfg.Vision.Model,
		},
	)

	return v1handler.Deps{
		Solver: solver.New(visionClient, store, solver.NewOptions(cfg)),
		Store:  store,
	}, nil
}

// serveCommand starts the HTTP server and blocks until a termination signal
// arrives, then drains in-flight requests within the configured grace period.
func serveCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the solver API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps, err := buildDeps(ctx, cfg)
			if err != nil {
				return err
			}

			server := api.NewServer(api.Deps{Deps: deps}, api.NewOptions(cfg))

			return runServer(ctx, server, cfg.GracefulShutdownTimeout)
		},
	}

	return cmd
}

// runServer serves until ctx is canceled, then stops accepting new
// connections and drains in-flight requests within gracefulTimeout. It
// returns nil after a clean drain and an error when the listener fails,
// which includes a failure to bind the address.
func runServer(ctx context.Context, server *http.Server, gracefulTimeout time.Duration) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "starting webserver...", zap.String("addr", server.Addr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		// bind failure or an unexpected listener error; the
		// orchestrator is expected to restart the process
		return fmt.Errorf("could not serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info(ctx, "termination signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "could not drain in time, closing", zap.Error(err))
		_ = server.Close()
	}

	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		logger.Error(ctx, "webserver stopped with error", zap.Error(err))
	}
	logger.Info(ctx, "webserver stopped")

	return nil
}
