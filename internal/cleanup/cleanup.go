// Package cleanup filters a raw crawl snapshot into the dataset the API
// serves: placeholder-laden records dropped, stale records dropped,
// duplicates collapsed, and the remainder sorted newest-first.
package cleanup

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/coretrust/policyd/internal/clock"
	"github.com/coretrust/policyd/internal/policy"
	"github.com/coretrust/policyd/internal/storage"
)

// DefaultStalenessYears is the trailing activity window: a record whose
// most recent dated entry is older than this is dropped.
const DefaultStalenessYears = 5

// Result reports cleanup statistics for observability. A zero-record
// outcome is not an error.
type Result struct {
	OriginalCount int
	CleanedCount  int
	RemovedCount  int
	CleanedObject string
}

// Config controls a Cleaner.
type Config struct {
	RawObject      string
	CleanedObject  string
	StalenessYears int
}

// Cleaner reads the raw snapshot and writes the cleaned one.
type Cleaner struct {
	store  storage.Provider
	clk    clock.Clock
	logger *zap.Logger
	cfg    Config
}

// New constructs a Cleaner.
func New(store storage.Provider, clk clock.Clock, logger *zap.Logger, cfg Config) (*Cleaner, error) {
	if store == nil {
		return nil, fmt.Errorf("storage provider is required")
	}
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RawObject == "" {
		cfg.RawObject = "policies.json"
	}
	if cfg.CleanedObject == "" {
		cfg.CleanedObject = "policies.cleaned.json"
	}
	if cfg.StalenessYears <= 0 {
		cfg.StalenessYears = DefaultStalenessYears
	}
	return &Cleaner{store: store, clk: clk, logger: logger, cfg: cfg}, nil
}

// Run applies the cleanup rules and writes the cleaned snapshot. Read and
// parse failures come back as errors, never panics.
func (c *Cleaner) Run(ctx context.Context) (Result, error) {
	raw, err := c.store.Load(ctx, c.cfg.RawObject)
	if err != nil {
		return Result{}, fmt.Errorf("read raw snapshot: %w", err)
	}
	var snap policy.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Result{}, fmt.Errorf("parse raw snapshot: %w", err)
	}

	now := c.clk.Now()
	staleBefore := now.AddDate(-c.cfg.StalenessYears, 0, 0)

	cleaned := make([]policy.Record, 0, len(snap.Policies))
	seenKeys := make(map[string]struct{}, len(snap.Policies))
	seenHashes := make(map[string]struct{}, len(snap.Policies))
	for _, rec := range snap.Policies {
		if rec.HasUnknownFields() {
			continue
		}
		latest, ok := rec.MostRecentDate()
		if !ok || latest.Before(staleBefore) {
			continue
		}
		key := rec.Key()
		if _, dup := seenKeys[key]; dup {
			// First occurrence wins.
			continue
		}
		// Same document crawled through two URLs produces two keys but one
		// content hash; keep the first of those too.
		hash := rec.ContentHash()
		if _, dup := seenHashes[hash]; dup {
			continue
		}
		seenKeys[key] = struct{}{}
		seenHashes[hash] = struct{}{}
		cleaned = append(cleaned, rec)
	}

	sortByRecency(cleaned)

	out := policy.Snapshot{
		LastUpdated: now.Format(time.RFC3339),
		Policies:    cleaned,
	}
	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("marshal cleaned snapshot: %w", err)
	}
	if err := c.store.Save(ctx, c.cfg.CleanedObject, payload); err != nil {
		return Result{}, fmt.Errorf("save cleaned snapshot: %w", err)
	}

	result := Result{
		OriginalCount: len(snap.Policies),
		CleanedCount:  len(cleaned),
		RemovedCount:  len(snap.Policies) - len(cleaned),
		CleanedObject: c.cfg.CleanedObject,
	}
	c.logger.Info("cleanup complete",
		zap.Int("original", result.OriginalCount),
		zap.Int("cleaned", result.CleanedCount),
		zap.Int("removed", result.RemovedCount),
		zap.String("object", result.CleanedObject),
	)
	return result, nil
}

// sortByRecency orders records newest-first by their most recent derived
// date. Records with no derivable date are treated as epoch and sort last.
// The sort is stable so equal-dated records keep input order.
func sortByRecency(records []policy.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		di, _ := records[i].MostRecentDate()
		dj, _ := records[j].MostRecentDate()
		return di.After(dj)
	})
}
