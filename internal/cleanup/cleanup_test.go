package cleanup

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coretrust/policyd/internal/clock"
	"github.com/coretrust/policyd/internal/policy"
	"github.com/coretrust/policyd/internal/storage"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func validRecord(name, source, latestDate string) policy.Record {
	return policy.Record{
		Name:     name,
		Region:   "United States",
		Status:   "Enacted",
		Progress: policy.Progress{Value: 80, Known: true},
		Impact:   "High",
		Source:   source,
		RecentChanges: []policy.Change{
			{Date: latestDate, Change: "Latest action"},
		},
	}
}

func seedRaw(t *testing.T, store storage.Provider, records []policy.Record) {
	t.Helper()
	snap := policy.Snapshot{LastUpdated: testNow.Format(time.RFC3339), Policies: records}
	data, err := json.MarshalIndent(snap, "", "  ")
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), "policies.json", data))
}

func runCleanup(t *testing.T, store storage.Provider) (Result, policy.Snapshot) {
	t.Helper()
	c, err := New(store, clock.Fixed{TS: testNow}, nil, Config{})
	require.NoError(t, err)
	result, err := c.Run(context.Background())
	require.NoError(t, err)

	data, err := store.Load(context.Background(), "policies.cleaned.json")
	require.NoError(t, err)
	var snap policy.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	return result, snap
}

func TestRunDropsRecordsWithUnknownFields(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryProvider()
	unknownRegion := validRecord("Unknown Region Act", "https://a.example", "2025-01-01")
	unknownRegion.Region = policy.Unknown
	seedRaw(t, store, []policy.Record{
		validRecord("Good Act", "https://b.example", "2025-01-01"),
		unknownRegion,
	})

	result, snap := runCleanup(t, store)
	require.Equal(t, 2, result.OriginalCount)
	require.Equal(t, 1, result.CleanedCount)
	require.Equal(t, 1, result.RemovedCount)
	require.Len(t, snap.Policies, 1)
	require.Equal(t, "Good Act", snap.Policies[0].Name)
}

func TestRunDropsUnknownLeaderSubfields(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryProvider()
	rec := validRecord("Leader Act", "https://a.example", "2025-01-01")
	rec.Leader = &policy.Leader{Name: "Jane Doe", Role: policy.Unknown, Organization: "OSTP"}
	seedRaw(t, store, []policy.Record{rec})

	result, _ := runCleanup(t, store)
	require.Zero(t, result.CleanedCount)
	require.Equal(t, 1, result.RemovedCount)
}

func TestRunDropsStaleAndDatelessRecords(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryProvider()
	stale := validRecord("Stale Act", "https://stale.example", "2019-01-01")
	dateless := validRecord("Dateless Act", "https://dateless.example", "2025-01-01")
	dateless.RecentChanges = nil
	fresh := validRecord("Fresh Act", "https://fresh.example", "2024-12-01")
	seedRaw(t, store, []policy.Record{stale, dateless, fresh})

	result, snap := runCleanup(t, store)
	require.Equal(t, 1, result.CleanedCount)
	require.Equal(t, "Fresh Act", snap.Policies[0].Name)
}

func TestRunKeepsRecordAliveViaFutureMilestone(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryProvider()
	rec := validRecord("Milestone Act", "https://m.example", "2018-01-01")
	rec.FutureMilestones = []policy.Milestone{{Date: "2026-08-01", Event: "Enforcement begins"}}
	seedRaw(t, store, []policy.Record{rec})

	result, _ := runCleanup(t, store)
	require.Equal(t, 1, result.CleanedCount)
}

func TestRunDeduplicatesByNameAndSource(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryProvider()
	first := validRecord("Dup Act", "https://same.example", "2025-01-01")
	first.Impact = "High"
	second := validRecord("Dup Act", "https://same.example", "2025-02-01")
	second.Impact = "Low"
	otherSource := validRecord("Dup Act", "https://other.example", "2025-01-15")
	otherSource.RecentChanges[0].Change = "Different action entirely"
	seedRaw(t, store, []policy.Record{first, second, otherSource})

	result, snap := runCleanup(t, store)
	require.Equal(t, 2, result.CleanedCount)

	var sameSource policy.Record
	for _, rec := range snap.Policies {
		if rec.Source == "https://same.example" {
			sameSource = rec
		}
	}
	// First occurrence wins.
	require.Equal(t, "High", sameSource.Impact)
}

func TestRunDropsIdenticalContentAcrossSources(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryProvider()
	canonical := validRecord("Mirror Act", "https://gov.example/act", "2025-01-01")
	mirrored := validRecord("Mirror Act", "https://mirror.example/act", "2025-01-01")
	seedRaw(t, store, []policy.Record{canonical, mirrored})

	result, snap := runCleanup(t, store)
	require.Equal(t, 1, result.CleanedCount)
	require.Equal(t, 1, result.RemovedCount)
	// First occurrence wins, same as key dedup.
	require.Equal(t, "https://gov.example/act", snap.Policies[0].Source)
}

func TestRunSortsByMostRecentDateDescending(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryProvider()
	oldest := validRecord("Oldest", "https://1.example", "2023-01-01")
	middle := validRecord("Middle", "https://2.example", "2024-06-15")
	newest := validRecord("Newest", "https://3.example", "2025-03-01")
	seedRaw(t, store, []policy.Record{middle, oldest, newest})

	_, snap := runCleanup(t, store)
	require.Len(t, snap.Policies, 3)
	require.Equal(t, "Newest", snap.Policies[0].Name)
	require.Equal(t, "Middle", snap.Policies[1].Name)
	require.Equal(t, "Oldest", snap.Policies[2].Name)
}

func TestRunHandlesEmptySnapshot(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryProvider()
	seedRaw(t, store, nil)

	result, snap := runCleanup(t, store)
	require.Zero(t, result.OriginalCount)
	require.Zero(t, result.CleanedCount)
	require.Empty(t, snap.Policies)
	require.Equal(t, testNow.Format(time.RFC3339), snap.LastUpdated)
}

func TestRunReportsMissingInputAsError(t *testing.T) {
	t.Parallel()

	c, err := New(storage.NewMemoryProvider(), clock.Fixed{TS: testNow}, nil, Config{})
	require.NoError(t, err)

	_, err = c.Run(context.Background())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunReportsMalformedInputAsError(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryProvider()
	require.NoError(t, store.Save(context.Background(), "policies.json", []byte("{not json")))

	c, err := New(store, clock.Fixed{TS: testNow}, nil, Config{})
	require.NoError(t, err)

	_, err = c.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse raw snapshot")
}
