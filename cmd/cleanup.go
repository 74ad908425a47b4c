package main

import (
	"fmt"
	"time"

	"github.com/kike-0203/watchy-solver-clean/internal/config"
	"github.com/kike-0203/watchy-solver-clean/pkg/logger"
	"github.com/kike-0203/watchy-solver-clean/pkg/storage/fsstore"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cleanupCommand removes stored page sets older than the retention window.
// Meant to be run from cron or a one-off job against the same store root the
// server uses.
func cleanupCommand(cfg *config.Config) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Removes stored page sets older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := fsstore.New(fsstore.Options{
				Root: cfg.Store.Root,
				// No point warming a cache for a single sweep.
				CacheSize: -1,
			})
			if err != nil {
				return fmt.Errorf("could not open page store: %w", err)
			}

			ctx := cmd.Context()
			removed, err := store.Sweep(ctx, olderThan)
			if err != nil {
				return fmt.Errorf("could not sweep page store: %w", err)
			}
			logger.Info(ctx, "sweep finished",
				zap.Int("removed", removed),
				zap.Duration("olderThan", olderThan))

			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", cfg.Store.TTL,
		"remove page sets not touched for this long")

	return cmd
}
