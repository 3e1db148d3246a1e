package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsPDF(t *testing.T) {
	t.Parallel()

	require.True(t, IsPDF("https://nist.gov/docs/rmf.pdf"))
	require.True(t, IsPDF("https://nist.gov/docs/RMF.PDF"))
	require.True(t, IsPDF("https://nist.gov/docs/rmf.pdf?version=2"))
	require.False(t, IsPDF("https://nist.gov/docs/rmf"))
	require.False(t, IsPDF("https://nist.gov/pdf-guidance.html"))
}

func TestFetchTextExtractsCollapsedBodyText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>ignored</title></head>
<body>
  <h1>AI   Policy</h1>
  <p>First    paragraph.</p>
  <p>Second paragraph.</p>
</body></html>`))
	}))
	defer srv.Close()

	c := New(Config{Timeout: 5 * time.Second}, nil)
	text, err := c.FetchText(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "AI Policy First paragraph. Second paragraph.", text)
}

func TestFetchTextTruncatesLongBodies(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>" + strings.Repeat("word ", 5000) + "</body></html>"))
	}))
	defer srv.Close()

	c := New(Config{Timeout: 5 * time.Second, MaxTextChars: 100}, nil)
	text, err := c.FetchText(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, []rune(text), 100)
}

func TestFetchTextPropagatesHTTPErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Config{Timeout: 5 * time.Second}, nil)
	_, err := c.FetchText(context.Background(), srv.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), srv.URL)
}

func TestFetchTextHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(Config{Timeout: 5 * time.Second}, nil)
	_, err := c.FetchText(ctx, "https://example.org")
	require.ErrorIs(t, err, context.Canceled)
}

type stubRenderer struct {
	html  []byte
	err   error
	calls int
}

func (s *stubRenderer) Render(_ context.Context, _ string) ([]byte, error) {
	s.calls++
	return s.html, s.err
}

type alwaysDetector struct{ needs bool }

func (d alwaysDetector) NeedsJS(_ []byte) bool { return d.needs }

func TestFetchTextEscalatesToRenderer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div id="root"></div></body></html>`))
	}))
	defer srv.Close()

	renderer := &stubRenderer{html: []byte(`<html><body>Rendered policy text</body></html>`)}
	c := New(Config{Timeout: 5 * time.Second}, nil, WithRenderer(renderer, alwaysDetector{needs: true}))

	text, err := c.FetchText(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "Rendered policy text", text)
	require.Equal(t, 1, renderer.calls)
}

func TestFetchTextFallsBackWhenRenderFails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>Static fallback text</body></html>`))
	}))
	defer srv.Close()

	renderer := &stubRenderer{err: context.DeadlineExceeded}
	c := New(Config{Timeout: 5 * time.Second}, nil, WithRenderer(renderer, alwaysDetector{needs: true}))

	text, err := c.FetchText(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "Static fallback text", text)
}

func TestHeuristicDetector(t *testing.T) {
	t.Parallel()

	d := NewHeuristicDetector(100, DefaultSPAKeywords)
	require.True(t, d.NeedsJS([]byte("<html></html>")), "tiny shell should escalate")

	padded := []byte("<html><body>" + strings.Repeat("policy text ", 50) + "</body></html>")
	require.False(t, d.NeedsJS(padded))

	spa := []byte("<html><body>" + strings.Repeat("x", 100) + `<script id="__NEXT_DATA__"></script></body></html>`)
	require.True(t, d.NeedsJS(spa))
}
