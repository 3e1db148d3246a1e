// Package extract turns raw document text into structured policy records by
// prompting a chat-completion model and parsing the fenced JSON block it
// returns. The fenced-block convention is a deliberate contract: models
// routinely prepend or append commentary, so the raw response is never
// assumed to be bare JSON.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/coretrust/policyd/internal/policy"
)

// maxExcerptChars bounds the document excerpt embedded in the prompt.
// Callers already cap HTML text at the same limit; this re-truncation keeps
// the PDF path and any future caller honest.
const maxExcerptChars = 9000

// snippetLen bounds how much raw model output is logged on failure.
const snippetLen = 300

// Extraction failure taxonomy. Both are per-URL errors: the orchestrator
// logs them and moves on to the next source.
var (
	// ErrNoJSONBlock means the model response contained no fenced code block.
	ErrNoJSONBlock = errors.New("no fenced JSON block in model response")
	// ErrInvalidJSON means the fenced block did not parse as JSON.
	ErrInvalidJSON = errors.New("fenced block is not valid JSON")
)

// fencedBlock captures the payload of the first triple-backtick block,
// with an optional json language tag.
var fencedBlock = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]+?)\\s*```")

// Completer is the narrow surface of a chat-completion client the extractor
// needs. Production uses the Anthropic client; tests substitute a stub.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Extractor prompts a model and parses its response into a policy record.
type Extractor struct {
	client Completer
	logger *zap.Logger
}

// New constructs an Extractor. A nil logger disables diagnostic output.
func New(client Completer, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{client: client, logger: logger}
}

// Extract sends the document text to the model and parses the structured
// record out of the response. It is a pure function of (text, url, model
// state) apart from the outbound API call.
func (e *Extractor) Extract(ctx context.Context, text, url string) (policy.Record, error) {
	prompt := buildPrompt(truncate(text, maxExcerptChars), url)

	raw, err := e.client.Complete(ctx, prompt)
	if err != nil {
		return policy.Record{}, fmt.Errorf("completion for %s: %w", url, err)
	}

	match := fencedBlock.FindStringSubmatch(raw)
	if match == nil {
		e.logger.Error("model response had no fenced JSON block",
			zap.String("url", url),
			zap.String("raw", truncate(raw, snippetLen)),
		)
		return policy.Record{}, fmt.Errorf("%w for URL %s", ErrNoJSONBlock, url)
	}

	var rec policy.Record
	if err := json.Unmarshal([]byte(match[1]), &rec); err != nil {
		e.logger.Error("fenced block failed to parse",
			zap.String("url", url),
			zap.String("block", truncate(match[1], snippetLen)),
			zap.Error(err),
		)
		return policy.Record{}, fmt.Errorf("%w for URL %s", ErrInvalidJSON, url)
	}
	return rec, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// buildPrompt assembles the fixed analyst prompt: schema, one worked
// example, extraction instructions, and the bounded document excerpt.
func buildPrompt(text, url string) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString(promptSchema)
	b.WriteString(promptExample)
	b.WriteString(promptInstructions)
	fmt.Fprintf(&b, "\n---\nDocument source: %s\n\nDocument text:\n\"\"\"%s\"\"\"\n", url, text)
	return b.String()
}

const promptHeader = `You are an AI policy analyst. Read the document below and return a structured JSON object summarizing key metadata.

Only use content directly found in the text. Do your best to fill in the information for a field but if it is missing or unclear, use "unknown".
`

const promptSchema = `
---
Schema:
{
  "name": string,
  "region": "United States" | "European Union" | "Global",
  "status": "Enacted" | "In Progress" | "In Development",
  "progress": number, // 0-100
  "recentChanges": [{ "date": string, "change": string }], // one sentence
  "futureMilestones": [{ "date": string, "event": string }], // one sentence
  "leader": {
    "name": string,
    "role": string,
    "organization": string
  },
  "impact": "High" | "Medium" | "Low"
}
`

const promptExample = `
---
Example:
{
  "name": "Artificial Intelligence Act",
  "region": "European Union",
  "status": "Enacted",
  "progress": 100,
  "recentChanges": [
    { "date": "2024-03-13", "change": "Passed the European Parliament" },
    { "date": "2024-05-21", "change": "Approved by the EU Council" },
    { "date": "2024-08-01", "change": "Act came into force" }
  ],
  "futureMilestones": [
    { "date": "2025-08-01", "event": "Phase 1 enforcement begins" },
    { "date": "2026-01-01", "event": "Compliance required for high-risk AI systems" }
  ],
  "leader": {
    "name": "European Commission",
    "role": "Proposer",
    "organization": "European Union"
  },
  "impact": "High"
}
`

const promptInstructions = `
---
Instructions:
- Do not infer or invent missing information.
- Return only a JSON object wrapped in triple backticks. Do not include text before or after.
- Only include dates that have already occurred (i.e. before today) in "recentChanges".
- Only include future or upcoming events in "futureMilestones".
- Keep all "change" and "event" descriptions concise: no more than 12 words.
- Focus on the essential action or outcome only.
- Remove redundant or explanatory phrases (e.g. "which will...", "in order to...").
`
