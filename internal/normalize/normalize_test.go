package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coretrust/policyd/internal/policy"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNormalizeMapsRegionSynonyms(t *testing.T) {
	t.Parallel()

	n := New(nil)
	cases := map[string]string{
		"U.S.":           "United States",
		"US":             "United States",
		"USA":            "United States",
		"Europe":         "European Union",
		"EU":             "European Union",
		"Global":         "Global",
		"United States":  "United States",
		"European Union": "European Union",
	}
	for in, want := range cases {
		rec := n.Normalize(policy.Record{Region: in}, "https://example.org", testNow)
		require.Equal(t, want, rec.Region, "region %q", in)
	}

	// Canonical forms are fixed points, unknown regions pass through.
	rec := n.Normalize(policy.Record{Region: "Asia-Pacific"}, "https://example.org", testNow)
	require.Equal(t, "Asia-Pacific", rec.Region)
}

func TestNormalizeSetsSource(t *testing.T) {
	t.Parallel()

	rec := New(nil).Normalize(policy.Record{Name: "AI Act"}, "https://europa.eu/ai-act", testNow)
	require.Equal(t, "https://europa.eu/ai-act", rec.Source)
}

func TestNormalizeDropsFutureChanges(t *testing.T) {
	t.Parallel()

	rec := policy.Record{
		RecentChanges: []policy.Change{
			{Date: "2024-03-13", Change: "Passed parliament"},
			{Date: "2027-01-01", Change: "Scheduled review"},
		},
	}
	out := New(nil).Normalize(rec, "https://example.org", testNow)
	require.Len(t, out.RecentChanges, 1)
	require.Equal(t, "2024-03-13", out.RecentChanges[0].Date)
}

func TestNormalizeCanonicalizesChangeDates(t *testing.T) {
	t.Parallel()

	rec := policy.Record{
		RecentChanges: []policy.Change{
			{Date: "March 13, 2024", Change: "Passed parliament"},
			{Date: "sometime soon", Change: "unclear"},
		},
	}
	out := New(nil).Normalize(rec, "https://example.org", testNow)
	require.Len(t, out.RecentChanges, 2)
	require.Equal(t, "2024-03-13", out.RecentChanges[0].Date)
	// Unparseable dates pass through verbatim.
	require.Equal(t, "sometime soon", out.RecentChanges[1].Date)
}

func TestNormalizeLeavesFutureMilestonesAlone(t *testing.T) {
	t.Parallel()

	rec := policy.Record{
		FutureMilestones: []policy.Milestone{
			{Date: "2030-01-01", Event: "Full enforcement"},
		},
	}
	out := New(nil).Normalize(rec, "https://example.org", testNow)
	require.Len(t, out.FutureMilestones, 1)
	require.Equal(t, "2030-01-01", out.FutureMilestones[0].Date)
}

func TestCategorizeNIST(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		url  string
		want string
	}{
		{"NIST AI RMF Playbook v1", "https://nist.gov/playbook.pdf", "NIST RMF Playbook"},
		{"NIST AI 600-1", "https://nvlpubs.nist.gov/ai/600-1.pdf", "NIST GAI Profile"},
		{"NIST AI RMF 1.0", "https://nvlpubs.nist.gov/nistpubs/ai/NIST.AI.100-1.pdf", "NIST RMF 1.0"},
		{"NIST AI guidance", "https://nist.gov/ai", "NIST RMF General"},
		{"EU AI Act", "https://europa.eu/ai-act", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CategorizeNIST(tc.name, tc.url), "%s / %s", tc.name, tc.url)
	}
}

func TestCategorizeNISTOrderedRules(t *testing.T) {
	t.Parallel()

	// 600-1 outranks the 1.0 rule even when both substrings appear.
	got := CategorizeNIST("NIST AI 600-1 companion to RMF 1.0", "https://nist.gov")
	require.Equal(t, "NIST GAI Profile", got)
}

func TestCategorizeNISTPublicationNumberOnlyMatchesURLs(t *testing.T) {
	t.Parallel()

	// "100-1" in a URL identifies the RMF 1.0 publication.
	got := CategorizeNIST("NIST framework", "https://nvlpubs.nist.gov/nistpubs/ai/NIST.AI.100-1.pdf")
	require.Equal(t, "NIST RMF 1.0", got)

	// The same token inside a name does not.
	got = CategorizeNIST("NIST SP 100-1 overview", "https://nist.gov/ai")
	require.Equal(t, "NIST RMF General", got)
}

func TestNormalizeAssignsCategoryFromRecord(t *testing.T) {
	t.Parallel()

	rec := New(nil).Normalize(policy.Record{Name: "NIST AI RMF Playbook v1"}, "https://nist.gov/playbook.pdf", testNow)
	require.Equal(t, "NIST RMF Playbook", rec.Category)

	plain := New(nil).Normalize(policy.Record{Name: "EU AI Act"}, "https://europa.eu", testNow)
	require.Empty(t, plain.Category)
}
