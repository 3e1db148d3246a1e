package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubCompleter returns canned model output.
type stubCompleter struct {
	response string
	err      error
	prompts  []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestExtractIgnoresCommentaryAroundFencedBlock(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{response: "Explanation: here is the summary.\n```json\n{\"name\":\"Test Act\",\"region\":\"Global\",\"status\":\"Enacted\",\"progress\":100,\"impact\":\"High\"}\n```\nHope that helps!"}
	rec, err := New(stub, nil).Extract(context.Background(), "document text", "https://example.org/act")
	require.NoError(t, err)
	require.Equal(t, "Test Act", rec.Name)
	require.Equal(t, "Global", rec.Region)
	require.True(t, rec.Progress.Known)
	require.Equal(t, 100, rec.Progress.Value)
}

func TestExtractAcceptsUntaggedFence(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{response: "```\n{\"name\":\"Test Act\",\"impact\":\"Low\"}\n```"}
	rec, err := New(stub, nil).Extract(context.Background(), "text", "https://example.org")
	require.NoError(t, err)
	require.Equal(t, "Test Act", rec.Name)
}

func TestExtractFailsWithoutFencedBlock(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{response: `{"name":"Test Act"}`}
	_, err := New(stub, nil).Extract(context.Background(), "text", "https://example.org")
	require.ErrorIs(t, err, ErrNoJSONBlock)
	require.Contains(t, err.Error(), "https://example.org")
}

func TestExtractFailsOnMalformedJSON(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{response: "```json\n{\"name\": \"Test Act\",}\n```"}
	_, err := New(stub, nil).Extract(context.Background(), "text", "https://example.org")
	require.ErrorIs(t, err, ErrInvalidJSON)
}

func TestExtractPropagatesCompletionErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("rate limited")
	stub := &stubCompleter{err: boom}
	_, err := New(stub, nil).Extract(context.Background(), "text", "https://example.org")
	require.ErrorIs(t, err, boom)
}

func TestExtractTruncatesExcerpt(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{response: "```json\n{\"name\":\"Test Act\"}\n```"}
	long := strings.Repeat("a", maxExcerptChars+500)
	_, err := New(stub, nil).Extract(context.Background(), long, "https://example.org")
	require.NoError(t, err)
	require.Len(t, stub.prompts, 1)
	require.NotContains(t, stub.prompts[0], strings.Repeat("a", maxExcerptChars+1))
	require.Contains(t, stub.prompts[0], "Document source: https://example.org")
}
