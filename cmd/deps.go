package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/coretrust/policyd/internal/config"
	"github.com/coretrust/policyd/internal/database"
	"github.com/coretrust/policyd/internal/fetch"
	"github.com/coretrust/policyd/internal/notify"
	"github.com/coretrust/policyd/internal/storage"
)

// buildStorage instantiates the snapshot blob store selected in config.
func buildStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Provider, error) {
	switch cfg.Storage.Provider {
	case "local":
		logger.Info("using local storage", zap.String("base_dir", cfg.Storage.BaseDir))
		return storage.NewLocalProvider(cfg.Storage.BaseDir)
	case "gcs":
		logger.Info("using GCS storage", zap.String("bucket", cfg.Storage.GCSBucket))
		return storage.NewGCSProvider(ctx, cfg.Storage.GCSBucket)
	case "noop":
		logger.Info("using no-op storage; snapshots will be discarded")
		return storage.NoOpProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}

// buildRunStore instantiates the optional crawl-run history store.
func buildRunStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (database.Store, error) {
	switch cfg.Database.Provider {
	case "postgres":
		logger.Info("recording run history in postgres", zap.String("table", cfg.Database.Table))
		return database.NewRunStore(ctx, database.RunStoreConfig{
			DSN:   cfg.Database.DSN,
			Table: cfg.Database.Table,
		})
	case "noop":
		return database.NoOpStore{}, nil
	default:
		return nil, fmt.Errorf("unknown database provider %q", cfg.Database.Provider)
	}
}

// buildNotifier instantiates the optional run-completion publisher.
func buildNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (notify.Publisher, error) {
	switch cfg.Notify.Provider {
	case "pubsub":
		logger.Info("publishing run events to pubsub", zap.String("topic", cfg.Notify.TopicID))
		return notify.NewPubSubPublisher(ctx, cfg.Notify.ProjectID, cfg.Notify.TopicID)
	case "noop":
		return notify.NoOpPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown notify provider %q", cfg.Notify.Provider)
	}
}

// buildFetchClient assembles the text source, including the headless
// fallback when enabled.
func buildFetchClient(cfg config.Config, logger *zap.Logger) (*fetch.Client, func(), error) {
	fetchCfg := fetch.Config{
		UserAgent:    cfg.HTTP.UserAgent,
		Timeout:      cfg.HTTP.Timeout(),
		MaxTextChars: cfg.Crawler.MaxTextChars,
	}
	if !cfg.Headless.Enabled {
		return fetch.New(fetchCfg, logger), func() {}, nil
	}

	renderer, err := fetch.NewChromedpRenderer(fetch.HeadlessConfig{
		UserAgent:      cfg.HTTP.UserAgent,
		NavTimeout:     time.Duration(cfg.Headless.NavTimeoutSeconds) * time.Second,
		MaxConcurrency: cfg.Headless.MaxConcurrency,
		DomainQPS:      cfg.Headless.DomainQPS,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("start headless renderer: %w", err)
	}
	detector := fetch.NewHeuristicDetector(cfg.Headless.MinHTMLBytes, cfg.Headless.Keywords)
	client := fetch.New(fetchCfg, logger, fetch.WithRenderer(renderer, detector))
	return client, renderer.Close, nil
}
