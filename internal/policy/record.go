// Package policy defines the core types for tracked AI policy records.
// A Record is the structured representation of one regulation or policy
// document as extracted from its source page, and a Snapshot is the
// persisted envelope written by the crawl and cleanup stages.
package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Unknown is the placeholder the extractor emits for any field it could not
// determine from the source text. Fields are never defaulted to a
// valid-looking value.
const Unknown = "unknown"

// Change is one dated entry in a record's recent activity history.
type Change struct {
	Date   string `json:"date"`
	Change string `json:"change"`
}

// Milestone is one upcoming dated event for a record.
type Milestone struct {
	Date  string `json:"date"`
	Event string `json:"event"`
}

// Leader identifies the person or body driving a policy. Each field may
// independently hold the Unknown placeholder.
type Leader struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	Organization string `json:"organization"`
}

// Progress is a 0-100 completion estimate. The extractor may emit the
// Unknown placeholder instead of a number, so the type round-trips both.
type Progress struct {
	Value int
	Known bool
}

// MarshalJSON writes the numeric value, or the placeholder string when the
// value is not known.
func (p Progress) MarshalJSON() ([]byte, error) {
	if !p.Known {
		return json.Marshal(Unknown)
	}
	return json.Marshal(p.Value)
}

// UnmarshalJSON accepts either a JSON number or a placeholder string.
func (p *Progress) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("unmarshal progress: %w", err)
		}
		// Any non-numeric string is treated as the placeholder.
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			p.Value = n
			p.Known = true
			return nil
		}
		p.Value = 0
		p.Known = false
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unmarshal progress: %w", err)
	}
	p.Value = int(n)
	p.Known = true
	return nil
}

// Record is the canonical structured representation of one tracked policy.
type Record struct {
	Name             string      `json:"name"`
	Region           string      `json:"region"`
	Status           string      `json:"status"`
	Progress         Progress    `json:"progress"`
	RecentChanges    []Change    `json:"recentChanges"`
	FutureMilestones []Milestone `json:"futureMilestones"`
	Leader           *Leader     `json:"leader,omitempty"`
	Impact           string      `json:"impact"`
	Source           string      `json:"source,omitempty"`
	Category         string      `json:"category,omitempty"`
}

// Key returns the record's uniqueness key. The cleanup stage assumes the
// (name, source) pair is unique after deduplication.
func (r Record) Key() string {
	return r.Name + "-" + r.Source
}

// HasUnknownFields reports whether any of the fields required by the cleanup
// stage still carries the placeholder.
func (r Record) HasUnknownFields() bool {
	if r.Name == Unknown || r.Region == Unknown || r.Status == Unknown || r.Impact == Unknown {
		return true
	}
	if !r.Progress.Known || r.Progress.Value < 0 {
		return true
	}
	if r.Leader != nil {
		if r.Leader.Name == Unknown || r.Leader.Role == Unknown || r.Leader.Organization == Unknown {
			return true
		}
	}
	return false
}

// ContentHash returns a hex digest of the record's substantive content,
// ignoring the source URL. The same document reached through two different
// URLs hashes identically; the cleanup stage uses this as a second dedup
// key after (name, source). Text is lowercased and whitespace-collapsed
// before hashing so formatting noise does not defeat the comparison.
func (r Record) ContentHash() string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(strings.ToLower(strings.Join(strings.Fields(s), " "))))
		h.Write([]byte{0x1f})
	}
	write(r.Name)
	write(r.Region)
	write(r.Status)
	write(r.Impact)
	if r.Progress.Known {
		write(strconv.Itoa(r.Progress.Value))
	} else {
		write(Unknown)
	}
	for _, c := range r.RecentChanges {
		write(c.Date)
		write(c.Change)
	}
	for _, m := range r.FutureMilestones {
		write(m.Date)
		write(m.Event)
	}
	if r.Leader != nil {
		write(r.Leader.Name)
		write(r.Leader.Role)
		write(r.Leader.Organization)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// MostRecentDate returns the latest parseable date across the record's
// recent changes and future milestones. The second return is false when no
// entry carries a parseable date.
func (r Record) MostRecentDate() (time.Time, bool) {
	var (
		latest time.Time
		found  bool
	)
	consider := func(raw string) {
		ts, ok := ParseDate(raw)
		if !ok {
			return
		}
		if !found || ts.After(latest) {
			latest = ts
			found = true
		}
	}
	for _, c := range r.RecentChanges {
		consider(c.Date)
	}
	for _, m := range r.FutureMilestones {
		consider(m.Date)
	}
	return latest, found
}

// Snapshot is the persisted file format shared by the raw and cleaned
// outputs.
type Snapshot struct {
	LastUpdated string   `json:"lastUpdated"`
	Policies    []Record `json:"policies"`
}

// dateLayouts covers the formats seen in source documents and model output.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"01/02/2006",
	"2006/01/02",
	"January 2006",
	"2006",
}

// ParseDate parses a calendar date in any of the accepted layouts, returning
// false for strings that do not resemble a date.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
