// Package crawl runs the policy ingestion pipeline: fetch each source URL,
// extract a structured record, normalize it, and persist the aggregated
// snapshot. URLs are processed strictly sequentially; the downstream LLM
// API is rate limited and the ordered log stream is a useful debugging
// property.
package crawl

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coretrust/policyd/internal/clock"
	"github.com/coretrust/policyd/internal/database"
	"github.com/coretrust/policyd/internal/fetch"
	"github.com/coretrust/policyd/internal/metrics"
	"github.com/coretrust/policyd/internal/normalize"
	"github.com/coretrust/policyd/internal/notify"
	"github.com/coretrust/policyd/internal/policy"
	"github.com/coretrust/policyd/internal/storage"
)

// Extractor turns document text into a policy record.
type Extractor interface {
	Extract(ctx context.Context, text, url string) (policy.Record, error)
}

// Summary reports the outcome of one crawl run.
type Summary struct {
	RunID        string
	StartedAt    time.Time
	CompletedAt  time.Time
	URLCount     int
	SuccessCount int
	FailureCount int
	Object       string
}

// Orchestrator wires the pipeline stages together. Run history and
// notification are optional; pass the no-op implementations to disable
// them.
type Orchestrator struct {
	source     fetch.TextSource
	extractor  Extractor
	normalizer *normalize.Normalizer
	relevance  *RelevanceFilter
	store      storage.Provider
	runs       database.Store
	notifier   notify.Publisher
	clk        clock.Clock
	logger     *zap.Logger
	object     string
}

// Config holds the orchestrator's collaborators.
type Config struct {
	Source     fetch.TextSource
	Extractor  Extractor
	Normalizer *normalize.Normalizer
	// Relevance, when set, screens fetched text before extraction.
	Relevance *RelevanceFilter
	Store     storage.Provider
	Runs      database.Store
	Notifier  notify.Publisher
	Clock     clock.Clock
	Logger    *zap.Logger
	Object    string
}

// New constructs an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("text source is required")
	}
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("storage provider is required")
	}
	if cfg.Normalizer == nil {
		cfg.Normalizer = normalize.New(cfg.Logger)
	}
	if cfg.Runs == nil {
		cfg.Runs = database.NoOpStore{}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.NoOpPublisher{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Object == "" {
		cfg.Object = "policies.json"
	}
	return &Orchestrator{
		source:     cfg.Source,
		extractor:  cfg.Extractor,
		normalizer: cfg.Normalizer,
		relevance:  cfg.Relevance,
		store:      cfg.Store,
		runs:       cfg.Runs,
		notifier:   cfg.Notifier,
		clk:        cfg.Clock,
		logger:     cfg.Logger,
		object:     cfg.Object,
	}, nil
}

// Run processes every URL in order and writes the aggregated snapshot. A
// single bad source never aborts the batch: per-URL failures are logged
// and skipped. The snapshot is written unconditionally, even with zero
// successes, so consumers always see the latest run timestamp.
func (o *Orchestrator) Run(ctx context.Context, urls []string) (Summary, error) {
	runID := uuid.NewString()
	started := o.clk.Now()
	logger := o.logger.With(zap.String("run_id", runID))
	logger.Info("starting crawl", zap.Int("urls", len(urls)))

	records := make([]policy.Record, 0, len(urls))
	failures := 0
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return Summary{}, fmt.Errorf("crawl canceled: %w", err)
		}
		rec, err := o.processURL(ctx, url)
		if err != nil {
			failures++
			metrics.ObserveURL("failure")
			logger.Warn("skipping source", zap.String("url", url), zap.Error(err))
			continue
		}
		metrics.ObserveURL("success")
		logger.Info("extracted policy", zap.String("url", url), zap.String("name", rec.Name))
		records = append(records, rec)
	}

	completed := o.clk.Now()
	snapshot := policy.Snapshot{
		LastUpdated: completed.Format(time.RFC3339),
		Policies:    records,
	}
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return Summary{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := o.store.Save(ctx, o.object, payload); err != nil {
		return Summary{}, fmt.Errorf("save snapshot: %w", err)
	}

	metrics.ObserveCrawlDuration(completed.Sub(started))
	metrics.SetSnapshotSize(len(records))

	summary := Summary{
		RunID:        runID,
		StartedAt:    started,
		CompletedAt:  completed,
		URLCount:     len(urls),
		SuccessCount: len(records),
		FailureCount: failures,
		Object:       o.object,
	}
	o.recordRun(ctx, summary, logger)

	logger.Info("crawl complete",
		zap.Int("succeeded", summary.SuccessCount),
		zap.Int("failed", summary.FailureCount),
		zap.String("object", o.object),
	)
	return summary, nil
}

// processURL runs fetch, extract, and normalize for one source.
func (o *Orchestrator) processURL(ctx context.Context, url string) (policy.Record, error) {
	text, err := o.source.FetchText(ctx, url)
	if err != nil {
		metrics.ObserveStageFailure("fetch")
		return policy.Record{}, fmt.Errorf("fetch: %w", err)
	}
	if o.relevance != nil && !o.relevance.Relevant(text, url) {
		metrics.ObserveStageFailure("relevance")
		return policy.Record{}, ErrNotRelevant
	}
	rec, err := o.extractor.Extract(ctx, text, url)
	if err != nil {
		metrics.ObserveStageFailure("extract")
		return policy.Record{}, fmt.Errorf("extract: %w", err)
	}
	return o.normalizer.Normalize(rec, url, o.clk.Now()), nil
}

// recordRun persists run history and publishes the completion event. Both
// are observability side channels; failures are logged, not fatal.
func (o *Orchestrator) recordRun(ctx context.Context, s Summary, logger *zap.Logger) {
	if err := o.runs.RecordRun(ctx, database.Run{
		ID:           s.RunID,
		StartedAt:    s.StartedAt,
		CompletedAt:  s.CompletedAt,
		URLCount:     s.URLCount,
		SuccessCount: s.SuccessCount,
		FailureCount: s.FailureCount,
		SnapshotURI:  s.Object,
	}); err != nil {
		logger.Warn("failed to record run history", zap.Error(err))
	}
	if err := o.notifier.RunCompleted(ctx, notify.Event{
		RunID:        s.RunID,
		CompletedAt:  s.CompletedAt,
		URLCount:     s.URLCount,
		SuccessCount: s.SuccessCount,
		FailureCount: s.FailureCount,
		SnapshotURI:  s.Object,
	}); err != nil {
		logger.Warn("failed to publish run event", zap.Error(err))
	}
}
