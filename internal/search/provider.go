package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahrav/go-groundqa/internal/domain"
)

// PageFetcher retrieves candidate pages; *Fetcher implements it.
type PageFetcher interface {
	FetchAll(ctx context.Context, urls []string) []*Page
}

// Provider produces search context for a question.
type Provider struct {
	engine   Engine
	fetcher  PageFetcher
	nResults int
	language string
	logger   *slog.Logger
}

// NewProvider wires an engine and fetcher with the result count and
// language from cfg.
func NewProvider(engine Engine, fetcher PageFetcher, cfg Config) *Provider {
	n := cfg.NResults
	if n <= 0 {
		n = DefaultNResults
	}
	return &Provider{
		engine:   engine,
		fetcher:  fetcher,
		nResults: n,
		language: cfg.Language,
		logger:   slog.Default().With("component", "search"),
	}
}

// New builds a Provider backed by DuckDuckGo and the default fetcher.
func New(cfg Config) *Provider {
	engine := NewDuckDuckGo(nil, cfg.EngineEndpoint, cfg.UserAgent, cfg.EngineQPS)
	return NewProvider(engine, NewFetcher(nil, cfg), cfg)
}

// Search returns up to domain.MaxContextChars code points of page text for
// query. An empty string is a valid result when no page qualifies.
// Only engine failures are returned as errors.
func (p *Provider) Search(ctx context.Context, query string) (string, error) {
	quoted := domain.TruncateRunes(`"`+strings.TrimSpace(query)+`"`, DefaultMaxQueryRunes)

	urls, err := p.engine.Search(ctx, quoted, 2*p.nResults, p.language)
	if err != nil {
		return "", fmt.Errorf("search engine: %w", err)
	}

	pages := p.fetcher.FetchAll(ctx, urls)

	texts := make([]string, 0, len(pages))
	for _, page := range pages {
		if page == nil || len(page.Body) == 0 {
			continue
		}
		if !IsUTF8(page.Body, page.ContentType) {
			p.logger.DebugContext(ctx, "page dropped: not utf-8", "url", page.URL)
			continue
		}
		if text := RemoveWhitespace(ExtractText(page.Body)); text != "" {
			texts = append(texts, text)
		}
	}

	p.logger.InfoContext(ctx, "search complete",
		"urls", len(urls),
		"pages_used", len(texts))

	return domain.TruncateRunes(strings.Join(texts, "\n\n"), domain.MaxContextChars), nil
}
