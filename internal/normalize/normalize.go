// Package normalize post-processes extracted policy records: canonical
// region names, NIST sub-categorization, date canonicalization, and
// filtering of future-dated change entries.
package normalize

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/coretrust/policyd/internal/policy"
)

// regionSynonyms maps free-text region spellings onto the canonical set.
// Unrecognized values pass through unchanged.
var regionSynonyms = map[string]string{
	"U.S.":           "United States",
	"US":             "United States",
	"USA":            "United States",
	"United States":  "United States",
	"Europe":         "European Union",
	"EU":             "European Union",
	"European Union": "European Union",
	"Global":         "Global",
}

// nistRule maps substrings of the record name or source URL to a category.
// Rules are checked in order; the first match wins. Name and URL carry
// separate substring lists: the "100-1" publication number is only
// meaningful inside a document URL, not in a policy name.
type nistRule struct {
	nameSubstrings []string
	urlSubstrings  []string
	category       string
}

var nistRules = []nistRule{
	{nameSubstrings: []string{"600-1"}, urlSubstrings: []string{"600-1"}, category: "NIST GAI Profile"},
	{nameSubstrings: []string{"playbook"}, urlSubstrings: []string{"playbook"}, category: "NIST RMF Playbook"},
	{nameSubstrings: []string{"1.0"}, urlSubstrings: []string{"100-1", "1.0"}, category: "NIST RMF 1.0"},
}

const nistFallbackCategory = "NIST RMF General"

// Normalizer applies the post-extraction cleanup rules to records.
type Normalizer struct {
	logger *zap.Logger
}

// New constructs a Normalizer. A nil logger disables warning output.
func New(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger}
}

// Normalize returns a copy of rec with the source URL attached, the region
// mapped to its canonical form, a NIST category assigned where applicable,
// change dates canonicalized, and future-dated changes removed. Future
// milestones are intentionally left unfiltered.
func (n *Normalizer) Normalize(rec policy.Record, url string, now time.Time) policy.Record {
	rec.Source = url

	if canonical, ok := regionSynonyms[rec.Region]; ok {
		rec.Region = canonical
	}

	if category := CategorizeNIST(rec.Name, url); category != "" {
		rec.Category = category
	}

	rec.RecentChanges = n.normalizeChanges(rec.RecentChanges, now)
	return rec
}

// normalizeChanges canonicalizes each change date to YYYY-MM-DD and drops
// entries dated after now. Entries with unparseable dates keep their
// original string; whether that leniency should become an error is an open
// product question, so they are only logged.
func (n *Normalizer) normalizeChanges(changes []policy.Change, now time.Time) []policy.Change {
	if len(changes) == 0 {
		return changes
	}
	kept := make([]policy.Change, 0, len(changes))
	for _, c := range changes {
		ts, ok := policy.ParseDate(c.Date)
		if !ok {
			n.logger.Warn("unparseable change date kept verbatim",
				zap.String("date", c.Date),
				zap.String("change", c.Change),
			)
			kept = append(kept, c)
			continue
		}
		if ts.After(now) {
			continue
		}
		c.Date = ts.Format("2006-01-02")
		kept = append(kept, c)
	}
	return kept
}

// CategorizeNIST classifies NIST AI RMF documents into sub-categories by
// keyword. It returns the empty string for anything that does not mention
// NIST in its name or source URL.
func CategorizeNIST(name, url string) string {
	n := strings.ToLower(name)
	u := strings.ToLower(url)
	if !strings.Contains(n, "nist") && !strings.Contains(u, "nist") {
		return ""
	}
	for _, rule := range nistRules {
		for _, sub := range rule.nameSubstrings {
			if strings.Contains(n, sub) {
				return rule.category
			}
		}
		for _, sub := range rule.urlSubstrings {
			if strings.Contains(u, sub) {
				return rule.category
			}
		}
	}
	return nistFallbackCategory
}
