package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-assistant/internal/config"
)

const litePage = `<html><body><table>
<tr><td><a rel="nofollow" href="//duckduckgo.com/y.js?ad_provider=x" class='result-link'>Sponsored thing</a></td></tr>
<tr><td class='result-snippet'>Buy now</td></tr>
<tr><td><a rel="nofollow" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2Fdoc%2F&amp;rut=abc" class='result-link'>The <b>Go</b> Documentation</a></td></tr>
<tr><td class='result-snippet'>Official docs for the <b>Go</b> language.</td></tr>
<tr><td><a rel="nofollow" href="https://example.com/page" class='result-link'>Example Page</a></td></tr>
<tr><td class='result-snippet'>  An   example
 snippet </td></tr>
<tr><td><a rel="nofollow" href="https://third.example/" class='result-link'>Third</a></td></tr>
</table></body></html>`

func testSearchCfg() config.SearchConfig {
	cfg := config.Default().Search
	cfg.RequestsPerSecond = 0
	return cfg
}

func withLiteServer(t *testing.T, h http.HandlerFunc) *DuckDuckGo {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	old := liteEndpoint
	liteEndpoint = ts.URL
	t.Cleanup(func() { liteEndpoint = old })

	return NewDuckDuckGoWithClient(ts.Client(), testSearchCfg())
}

func TestParseLiteResults(t *testing.T) {
	results, err := parseLiteResults(strings.NewReader(litePage), 0)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "The Go Documentation", results[0].Title)
	assert.Equal(t, "https://go.dev/doc/", results[0].Href)
	assert.Equal(t, "Official docs for the Go language.", results[0].Body)

	assert.Equal(t, "Example Page", results[1].Title)
	assert.Equal(t, "https://example.com/page", results[1].Href)
	assert.Equal(t, "An example snippet", results[1].Body)

	assert.Equal(t, "Third", results[2].Title)
	assert.Empty(t, results[2].Body)
}

func TestParseLiteResults_MaxResults(t *testing.T) {
	results, err := parseLiteResults(strings.NewReader(litePage), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://go.dev/doc/", results[0].Href)
}

func TestParseLiteResults_NoResults(t *testing.T) {
	results, err := parseLiteResults(strings.NewReader("<html><body>No results.</body></html>"), 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDecodeHref(t *testing.T) {
	tests := []struct {
		name   string
		href   string
		want   string
		wantOK bool
	}{
		{"plain", "https://a.test/x", "https://a.test/x", true},
		{"redirect", "//duckduckgo.com/l/?uddg=https%3A%2F%2Fb.test%2F", "https://b.test/", true},
		{"sponsored", "//duckduckgo.com/y.js?ad=1", "", false},
		{"empty", "  ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodeHref(tt.href)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDuckDuckGoSearch_RequestShape(t *testing.T) {
	var captured *http.Request
	var form map[string]string
	d := withLiteServer(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		assert.NoError(t, r.ParseForm())
		form = map[string]string{"q": r.PostForm.Get("q"), "kl": r.PostForm.Get("kl"), "kp": r.PostForm.Get("kp")}
		io.WriteString(w, litePage)
	})

	results, err := d.Search(context.Background(), "go docs", Options{MaxResults: 2, Region: "wt-wt", SafeSearch: "moderate", Backend: "lite"})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Contains(t, captured.Header.Get("User-Agent"), "Mozilla/5.0")
	assert.Equal(t, "1", captured.Header.Get("DNT"))
	assert.Equal(t, "navigate", captured.Header.Get("Sec-Fetch-Mode"))
	assert.Equal(t, "go docs", form["q"])
	assert.Equal(t, "wt-wt", form["kl"])
	assert.Equal(t, "-1", form["kp"])
}

func TestDuckDuckGoSearch_RateLimitStatuses(t *testing.T) {
	for _, code := range []int{http.StatusTooManyRequests, http.StatusAccepted, http.StatusForbidden} {
		t.Run(fmt.Sprint(code), func(t *testing.T) {
			d := withLiteServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(code)
			})
			_, err := d.Search(context.Background(), "q", Options{})
			assert.ErrorIs(t, err, ErrRateLimited)
			assert.True(t, IsRateLimit(err))
		})
	}
}

func TestDuckDuckGoSearch_ServerError(t *testing.T) {
	d := withLiteServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := d.Search(context.Background(), "q", Options{})
	require.Error(t, err)
	assert.False(t, IsRateLimit(err))
}

func TestDuckDuckGoSearch_RejectsBadInput(t *testing.T) {
	d := NewDuckDuckGo(testSearchCfg())

	_, err := d.Search(context.Background(), "   ", Options{})
	assert.Error(t, err)

	_, err = d.Search(context.Background(), "q", Options{Backend: "api"})
	assert.Error(t, err)
}
