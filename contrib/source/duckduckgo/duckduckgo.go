// Package duckduckgo adapts the DuckDuckGo HTML results page as the web
// snippet source. No API key required.
package duckduckgo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sweetpotato0/evoseek/source"
)

const defaultEndpoint = "https://html.duckduckgo.com/html/"

// Config controls the web search adapter.
type Config struct {
	// Endpoint overrides the results URL, used in tests.
	Endpoint string
	// UserAgent identifies the client; DuckDuckGo rejects empty agents.
	UserAgent string
	Timeout   time.Duration
}

// Adapter implements source.Adapter over the DuckDuckGo HTML interface.
type Adapter struct {
	config *Config
	client *http.Client
}

// New builds the adapter with sane defaults.
func New(config *Config) *Adapter {
	if config == nil {
		config = &Config{}
	}
	if config.Endpoint == "" {
		config.Endpoint = defaultEndpoint
	}
	if config.UserAgent == "" {
		config.UserAgent = "Mozilla/5.0 (compatible; evoseek/1.0)"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Adapter{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

func (a *Adapter) Kind() source.Kind { return source.KindWeb }

// Configured is always true: web search needs no credentials.
func (a *Adapter) Configured() bool { return true }

// Search fetches the HTML results page and extracts title, snippet and
// target URL from each organic result.
func (a *Adapter) Search(ctx context.Context, query string, limit int) ([]source.Document, error) {
	if limit <= 0 {
		limit = 5
	}

	reqURL := a.config.Endpoint + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: create request: %w", err)
	}
	req.Header.Set("User-Agent", a.config.UserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: fetch results: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: parse results: %w", err)
	}

	var docs []source.Document
	doc.Find(".result").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		title := cleanText(sel.Find(".result__a").Text())
		snippet := cleanText(sel.Find(".result__snippet").Text())
		if snippet == "" {
			return true
		}
		href, _ := sel.Find(".result__a").Attr("href")
		docs = append(docs, source.Document{
			ID:      fmt.Sprintf("web-%d", len(docs)+1),
			Kind:    source.KindWeb,
			Title:   title,
			Snippet: snippet,
			URI:     resolveRedirect(href),
			// The page carries no scores; rank order stands in.
			Score: 1.0 / float64(len(docs)+1),
		})
		return len(docs) < limit
	})
	return docs, nil
}

var spaceRun = regexp.MustCompile(`\s+`)

func cleanText(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg=... redirect links to the
// real target URL.
func resolveRedirect(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		if decoded, err := url.QueryUnescape(target); err == nil {
			return decoded
		}
	}
	return href
}
