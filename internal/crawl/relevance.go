package crawl

import (
	"errors"
	"strings"
)

// ErrNotRelevant marks a fetched document that matched no relevance
// keyword. The orchestrator contains it per URL like any other stage
// failure, so irrelevant sources never reach the completion API.
var ErrNotRelevant = errors.New("document matched no relevance keywords")

// RelevanceFilter screens fetched text against a keyword list before the
// extraction stage spends an LLM call on it. Multi-word keywords match when
// all of their words appear somewhere in the text or the URL; single-word
// keywords match as plain substrings.
type RelevanceFilter struct {
	keywords [][]string
}

// NewRelevanceFilter builds a filter from free-text keywords. Blank entries
// are ignored; a filter with no usable keywords accepts everything.
func NewRelevanceFilter(keywords []string) *RelevanceFilter {
	parsed := make([][]string, 0, len(keywords))
	for _, kw := range keywords {
		words := strings.Fields(strings.ToLower(kw))
		if len(words) == 0 {
			continue
		}
		parsed = append(parsed, words)
	}
	return &RelevanceFilter{keywords: parsed}
}

// Relevant reports whether the document text or its URL matches any
// keyword. URLs are matched with hyphens folded to spaces so slug paths
// like /ai-policy-update count.
func (f *RelevanceFilter) Relevant(text, url string) bool {
	if f == nil || len(f.keywords) == 0 {
		return true
	}
	textLower := strings.ToLower(text)
	urlLower := strings.ReplaceAll(strings.ToLower(url), "-", " ")

	for _, words := range f.keywords {
		if allContained(textLower, words) || allContained(urlLower, words) {
			return true
		}
	}
	return false
}

func allContained(haystack string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(haystack, w) {
			return false
		}
	}
	return true
}
