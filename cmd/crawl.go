package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coretrust/policyd/internal/clock"
	"github.com/coretrust/policyd/internal/crawl"
	"github.com/coretrust/policyd/internal/extract"
	"github.com/coretrust/policyd/internal/normalize"
)

func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Fetch every configured source URL and write the raw policy snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfigAndLogger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx := cmd.Context()

			source, closeSource, err := buildFetchClient(cfg, logger)
			if err != nil {
				return err
			}
			defer closeSource()

			completer, err := extract.NewAnthropicCompleter(extract.AnthropicConfig{
				APIKey:    cfg.LLM.APIKey,
				Model:     cfg.LLM.Model,
				MaxTokens: cfg.LLM.MaxTokens,
			})
			if err != nil {
				return err
			}

			store, err := buildStorage(ctx, cfg, logger)
			if err != nil {
				return err
			}
			runs, err := buildRunStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer runs.Close()
			notifier, err := buildNotifier(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer notifier.Close() //nolint:errcheck

			var relevance *crawl.RelevanceFilter
			if len(cfg.Crawler.RelevanceKeywords) > 0 {
				relevance = crawl.NewRelevanceFilter(cfg.Crawler.RelevanceKeywords)
			}

			orch, err := crawl.New(crawl.Config{
				Source:     source,
				Extractor:  extract.New(completer, logger),
				Normalizer: normalize.New(logger),
				Relevance:  relevance,
				Store:      store,
				Runs:       runs,
				Notifier:   notifier,
				Clock:      clock.System{},
				Logger:     logger,
				Object:     cfg.Crawler.RawObject,
			})
			if err != nil {
				return err
			}

			summary, err := orch.Run(ctx, cfg.Crawler.SourceURLs)
			if err != nil {
				return err
			}
			logger.Info("crawl finished",
				zap.String("run_id", summary.RunID),
				zap.Int("urls", summary.URLCount),
				zap.Int("succeeded", summary.SuccessCount),
				zap.Int("failed", summary.FailureCount),
				zap.String("object", summary.Object),
				zap.Duration("took", summary.CompletedAt.Sub(summary.StartedAt)),
			)
			return nil
		},
	}
}
