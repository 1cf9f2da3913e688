package search

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Page is a fetched HTML document.
type Page struct {
	URL         string
	ContentType string
	Body        []byte
}

// Fetcher retrieves HTML pages concurrently. A page is fetched only after a
// HEAD request reports a text/html content type; each request has its own
// timeout.
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	maxBodyBytes int64
	maxParallel  int
	userAgent    string
	logger       *slog.Logger
}

// NewFetcher creates a fetcher from cfg. A nil client gets a default
// transport honoring cfg.InsecureSkipVerify.
func NewFetcher(client *http.Client, cfg Config) *Fetcher {
	if client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.InsecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for scraping
		}
		client = &http.Client{Transport: transport}
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Fetcher{
		client:       client,
		timeout:      timeout,
		maxBodyBytes: maxBody,
		maxParallel:  cfg.MaxParallel,
		userAgent:    userAgent,
		logger:       slog.Default().With("component", "fetcher"),
	}
}

// FetchAll fetches every URL and returns one entry per input, in input
// order. Entries that could not be fetched, or are not HTML, are nil.
// Failures are isolated: one page never cancels another.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []*Page {
	pages := make([]*Page, len(urls))

	var g errgroup.Group
	if f.maxParallel > 0 {
		g.SetLimit(f.maxParallel)
	}
	for i, u := range urls {
		g.Go(func() error {
			page, err := f.fetch(ctx, u)
			if err != nil {
				f.logger.DebugContext(ctx, "page skipped", "url", u, "reason", err)
				return nil
			}
			pages[i] = page
			return nil
		})
	}
	_ = g.Wait()

	return pages
}

// fetch performs the HEAD check followed by the GET.
func (f *Fetcher) fetch(ctx context.Context, rawURL string) (*Page, error) {
	headType, err := f.head(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(headType, "text/html") {
		return nil, fmt.Errorf("content type %q is not html", headType)
	}

	getCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(getCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) == f.maxBodyBytes {
		body = trimPartialRune(body)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = headType
	}
	return &Page{URL: rawURL, ContentType: contentType, Body: body}, nil
}

func (f *Fetcher) head(ctx context.Context, rawURL string) (string, error) {
	headCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(headCtx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	_ = resp.Body.Close()

	return resp.Header.Get("Content-Type"), nil
}
