package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"research-assistant/internal/config"
	"research-assistant/internal/models"
)

// liteEndpoint is the DuckDuckGo lite HTML endpoint. Declared as a var so
// tests can point it at an httptest server.
var liteEndpoint = "https://lite.duckduckgo.com/lite/"

const (
	liteBackend  = "lite"
	maxBodyBytes = 1 << 20
)

var safeSearchCodes = map[string]string{
	"on":       "1",
	"strict":   "1",
	"moderate": "-1",
	"off":      "-2",
}

// DuckDuckGo scrapes the lite HTML interface. A token bucket shared by all
// callers of one instance keeps request bursts away from the provider.
type DuckDuckGo struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

func NewDuckDuckGo(cfg config.SearchConfig) *DuckDuckGo {
	return NewDuckDuckGoWithClient(&http.Client{Timeout: cfg.Timeout}, cfg)
}

func NewDuckDuckGoWithClient(client *http.Client, cfg config.SearchConfig) *DuckDuckGo {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &DuckDuckGo{
		client:    client,
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, opts Options) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is empty")
	}
	if opts.Backend != "" && opts.Backend != liteBackend {
		return nil, fmt.Errorf("unsupported duckduckgo backend %q", opts.Backend)
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("q", query)
	if opts.Region != "" {
		form.Set("kl", opts.Region)
	}
	if code, ok := safeSearchCodes[strings.ToLower(opts.SafeSearch)]; ok {
		form.Set("kp", code)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, liteEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	d.setHeaders(req)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests, http.StatusAccepted, http.StatusForbidden:
		return nil, fmt.Errorf("duckduckgo http %d: %w", resp.StatusCode, ErrRateLimited)
	default:
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}

	return parseLiteResults(io.LimitReader(resp.Body, maxBodyBytes), opts.MaxResults)
}

func (d *DuckDuckGo) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Cache-Control", "max-age=0")
}

// parseLiteResults walks the lite result table. Each result is a
// result-link anchor followed by a result-snippet cell.
func parseLiteResults(r io.Reader, maxResults int) ([]models.SearchResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing duckduckgo html: %w", err)
	}

	var results []models.SearchResult
	skipping := false

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result-link"):
				href, ok := decodeHref(attr(n, "href"))
				skipping = !ok
				if ok {
					results = append(results, models.SearchResult{Title: textContent(n), Href: href})
				}
				return
			case n.Data == "td" && hasClass(n, "result-snippet"):
				if !skipping && len(results) > 0 && results[len(results)-1].Body == "" {
					results[len(results)-1].Body = textContent(n)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// decodeHref unwraps //duckduckgo.com/l/?uddg= redirects. Sponsored links
// report ok=false.
func decodeHref(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href, true
	}
	if !strings.HasSuffix(u.Host, "duckduckgo.com") {
		return href, true
	}
	if u.Path == "/y.js" {
		return "", false
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target, true
	}
	return href, true
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
