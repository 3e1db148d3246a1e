package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coretrust/policyd/internal/cleanup"
	"github.com/coretrust/policyd/internal/clock"
)

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Filter, dedupe and sort the raw snapshot into the cleaned one",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfigAndLogger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx := cmd.Context()

			store, err := buildStorage(ctx, cfg, logger)
			if err != nil {
				return err
			}

			cleaner, err := cleanup.New(store, clock.System{}, logger, cleanup.Config{
				RawObject:      cfg.Crawler.RawObject,
				CleanedObject:  cfg.Crawler.CleanedObject,
				StalenessYears: cfg.Crawler.StalenessYears,
			})
			if err != nil {
				return err
			}

			result, err := cleaner.Run(ctx)
			if err != nil {
				return err
			}
			logger.Info("cleanup finished",
				zap.Int("original", result.OriginalCount),
				zap.Int("kept", result.CleanedCount),
				zap.Int("removed", result.RemovedCount),
				zap.String("object", result.CleanedObject),
			)
			return nil
		},
	}
}
