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
)

// Engine errors.
var (
	ErrEmptyQuery   = errors.New("search query is empty")
	ErrEngineStatus = errors.New("search engine returned non-success status")
)

// Engine returns candidate URLs for a query, de-duplicated and in rank order.
type Engine interface {
	Search(ctx context.Context, query string, n int, lang string) ([]string, error)
}

// DuckDuckGo implements Engine by scraping the DuckDuckGo HTML endpoint.
type DuckDuckGo struct {
	client    *http.Client
	endpoint  string
	userAgent string
	limiter   *rate.Limiter
}

// NewDuckDuckGo creates an engine for endpoint. qps bounds the query rate
// across goroutines sharing the engine; zero disables the bound.
func NewDuckDuckGo(client *http.Client, endpoint, userAgent string, qps float64) *DuckDuckGo {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	if endpoint == "" {
		endpoint = DefaultEngineEndpoint
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	limit := rate.Inf
	if qps > 0 {
		limit = rate.Limit(qps)
	}
	return &DuckDuckGo{
		client:    client,
		endpoint:  endpoint,
		userAgent: userAgent,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Search posts the query and parses up to n result links.
func (d *DuckDuckGo) Search(ctx context.Context, query string, n int, lang string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("q", query)
	if region := regionForLanguage(lang); region != "" {
		form.Set("kl", region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %d", ErrEngineStatus, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}
	return parseResultLinks(doc, n), nil
}

// regionForLanguage maps a language hint to a DuckDuckGo region code.
func regionForLanguage(lang string) string {
	switch strings.ToLower(lang) {
	case "":
		return ""
	case "zh", "zh-tw", "zh-hant":
		return "tw-tzh"
	case "zh-cn", "zh-hans":
		return "cn-zh"
	case "en":
		return "us-en"
	case "ja":
		return "jp-jp"
	default:
		return "wt-wt"
	}
}

// parseResultLinks walks the result page and collects the targets of
// result anchors, unwrapping DuckDuckGo redirect links. Duplicates and
// non-http(s) targets are skipped.
func parseResultLinks(doc *html.Node, n int) []string {
	var urls []string
	seen := make(map[string]struct{})

	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if n > 0 && len(urls) >= n {
			return false
		}
		if node.Type == html.ElementNode && node.Data == "a" && isResultAnchor(node) {
			if target := resolveResultURL(attr(node, "href")); target != "" {
				if _, dup := seen[target]; !dup {
					seen[target] = struct{}{}
					urls = append(urls, target)
				}
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if !walk(child) {
				return false
			}
		}
		return true
	}
	walk(doc)

	return urls
}

// isResultAnchor matches result links on both the html and lite layouts.
func isResultAnchor(node *html.Node) bool {
	for _, class := range strings.Fields(attr(node, "class")) {
		if class == "result__a" || class == "result-link" {
			return true
		}
	}
	return false
}

// resolveResultURL unwraps "//duckduckgo.com/l/?uddg=<target>" redirects.
func resolveResultURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Hostname(), "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		target := u.Query().Get("uddg")
		if target == "" {
			return ""
		}
		return resolveResultURL(target)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func attr(node *html.Node, key string) string {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
