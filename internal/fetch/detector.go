package fetch

import (
	"bytes"
	"strings"
)

// HeuristicDetector flags documents that look like JS-rendered shells:
// either the static HTML is suspiciously small, or it carries a known SPA
// framework marker.
type HeuristicDetector struct {
	minHTMLBytes int
	keywords     [][]byte
}

// DefaultSPAKeywords are the framework markers checked by default.
var DefaultSPAKeywords = []string{
	"__NEXT_DATA__",
	"data-reactroot",
	"ng-app",
	"window.__APOLLO_STATE__",
}

// NewHeuristicDetector builds a detector. Empty keywords disable the
// keyword check; minBytes <= 0 disables the size check.
func NewHeuristicDetector(minBytes int, keywords []string) *HeuristicDetector {
	lowered := make([][]byte, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		lowered = append(lowered, bytes.ToLower([]byte(kw)))
	}
	return &HeuristicDetector{
		minHTMLBytes: minBytes,
		keywords:     lowered,
	}
}

// NeedsJS reports whether the static document should be re-fetched through
// the headless renderer.
func (d *HeuristicDetector) NeedsJS(body []byte) bool {
	if d == nil {
		return false
	}
	if d.minHTMLBytes > 0 && len(body) < d.minHTMLBytes {
		return true
	}
	if len(d.keywords) == 0 {
		return false
	}
	lowered := bytes.ToLower(body)
	for _, kw := range d.keywords {
		if bytes.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
