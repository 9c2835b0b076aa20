package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/davitran/finsight/internal/log"
)

const (
	defaultTavilyBaseURL = "https://api.tavily.com"

	crawlTimeout      = 10 * time.Second
	crawlContentLimit = 2000
	newsMaxResults    = 5
	scrapeMaxMatches  = 5
	scrapeMatchLimit  = 500
)

// WebOptions configures the web toolset.
type WebOptions struct {
	TavilyAPIKey  string
	TavilyBaseURL string
	HTTPTimeout   time.Duration

	// AllowPrivateHosts disables URL validation for crawl and scrape.
	// Test use only.
	AllowPrivateHosts bool
}

// WebToolset provides news search, article crawling and page scraping.
// summarize condenses crawled articles before they enter the conversation;
// when nil, crawled text is returned as-is.
type WebToolset struct {
	opts      WebOptions
	client    *http.Client
	validator *URLValidator
	summarize func(context.Context, string) string
	logger    log.Logger
}

// NewWebToolset creates the web toolset.
func NewWebToolset(opts WebOptions, summarize func(context.Context, string) string, logger log.Logger) *WebToolset {
	if logger == nil {
		logger = log.NewNop()
	}
	if opts.TavilyBaseURL == "" {
		opts.TavilyBaseURL = defaultTavilyBaseURL
	}
	ts := &WebToolset{
		opts:      opts,
		client:    newHTTPClient(opts.HTTPTimeout),
		summarize: summarize,
		logger:    logger,
	}
	if !opts.AllowPrivateHosts {
		ts.validator = NewURLValidator()
	}
	return ts
}

// validateURL rejects unsafe crawl and scrape targets.
func (w *WebToolset) validateURL(pageURL string) error {
	if w.validator == nil {
		return nil
	}
	return w.validator.Validate(pageURL)
}

// NewsInput is the argument object for the news search tool.
type NewsInput struct {
	Query string `json:"query" jsonschema:"the news topic to search for, e.g. Federal Reserve interest rates"`
}

// CrawlInput is the argument object for the article crawler tool.
type CrawlInput struct {
	URL string `json:"url" jsonschema:"the full URL of the article to read"`
}

// ScrapeInput is the argument object for the page scraper tool.
type ScrapeInput struct {
	URL      string `json:"url" jsonschema:"the URL of the page to scrape"`
	Selector string `json:"selector,omitempty" jsonschema:"optional CSS selector; when omitted the page title and description are returned"`
}

// Tools returns the web tools.
func (w *WebToolset) Tools() ([]Tool, error) {
	news, err := NewTool(
		"get_news",
		"Search recent news articles on a topic. Returns headlines with URLs; use crawl_url to read a full article.",
		func(ctx context.Context, input NewsInput) (string, error) {
			return w.news(ctx, input.Query), nil
		},
	)
	if err != nil {
		return nil, err
	}

	crawl, err := NewTool(
		"crawl_url",
		"Read the main content of a web article at a URL. Returns a condensed summary of the article text.",
		func(ctx context.Context, input CrawlInput) (string, error) {
			return w.crawl(ctx, input.URL), nil
		},
	)
	if err != nil {
		return nil, err
	}

	scrape, err := NewTool(
		"scrape_web_page",
		"Scrape elements from a web page by CSS selector. Without a selector, returns the page title and description.",
		func(ctx context.Context, input ScrapeInput) (string, error) {
			return w.scrape(ctx, input.URL, input.Selector), nil
		},
	)
	if err != nil {
		return nil, err
	}

	return []Tool{news, crawl, scrape}, nil
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	Topic      string `json:"topic"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		Content       string `json:"content"`
		PublishedDate string `json:"published_date"`
	} `json:"results"`
}

func (w *WebToolset) news(ctx context.Context, query string) string {
	if w.opts.TavilyAPIKey == "" {
		return "Error: news search is not configured (missing Tavily API key)"
	}

	payload, err := json.Marshal(tavilyRequest{
		APIKey:     w.opts.TavilyAPIKey,
		Query:      query,
		Topic:      "news",
		MaxResults: newsMaxResults,
	})
	if err != nil {
		return fmt.Sprintf("Error: could not build news request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.opts.TavilyBaseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return fmt.Sprintf("Error: could not build news request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Error("news search failed", "query", query, "error", err)
		return fmt.Sprintf("Error: news search failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		w.logger.Error("news search returned error", "status", resp.StatusCode, "body", string(data))
		return fmt.Sprintf("Error: news search returned status %d", resp.StatusCode)
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Sprintf("Error: could not parse news response: %v", err)
	}
	if len(parsed.Results) == 0 {
		return fmt.Sprintf("No news found for %q.", query)
	}

	var b strings.Builder
	for i, r := range parsed.Results {
		fmt.Fprintf(&b, "%d. %s", i+1, r.Title)
		if r.PublishedDate != "" {
			fmt.Fprintf(&b, " (%s)", r.PublishedDate)
		}
		b.WriteString("\n")
		if r.Content != "" {
			fmt.Fprintf(&b, "   %s\n", r.Content)
		}
		fmt.Fprintf(&b, "   URL: %s\n", r.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (w *WebToolset) crawl(ctx context.Context, pageURL string) string {
	if err := w.validateURL(pageURL); err != nil {
		w.logger.Warn("crawl target rejected", "url", pageURL, "error", err)
		return fmt.Sprintf("Error crawling %s: %v", pageURL, err)
	}

	article, err := readability.FromURL(pageURL, crawlTimeout)
	if err != nil {
		w.logger.Warn("crawl failed", "url", pageURL, "error", err)
		return fmt.Sprintf("Error crawling %s: %v", pageURL, err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return fmt.Sprintf("Error crawling %s: page has no readable content", pageURL)
	}

	runes := []rune(text)
	if len(runes) > crawlContentLimit {
		text = string(runes[:crawlContentLimit])
	}

	if w.summarize != nil {
		text = w.summarize(ctx, text)
	}
	return fmt.Sprintf("[Source: %s]\nSummary:\n%s", pageURL, text)
}

func (w *WebToolset) scrape(ctx context.Context, pageURL, selector string) string {
	if err := w.validateURL(pageURL); err != nil {
		w.logger.Warn("scrape target rejected", "url", pageURL, "error", err)
		return fmt.Sprintf("Error: unsafe URL %s: %v", pageURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return fmt.Sprintf("Error: invalid URL %s: %v", pageURL, err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Warn("scrape fetch failed", "url", pageURL, "error", err)
		return fmt.Sprintf("Error: could not fetch %s: %v", pageURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Error: %s returned status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error: could not parse %s: %v", pageURL, err)
	}

	if selector == "" {
		title := strings.TrimSpace(doc.Find("title").First().Text())
		desc, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
		if title == "" && desc == "" {
			return fmt.Sprintf("No title or description found at %s.", pageURL)
		}
		return strings.TrimSpace(fmt.Sprintf("Title: %s\nDescription: %s", title, strings.TrimSpace(desc)))
	}

	var parts []string
	doc.Find(selector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= scrapeMaxMatches {
			return false
		}
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return true
		}
		runes := []rune(text)
		if len(runes) > scrapeMatchLimit {
			text = string(runes[:scrapeMatchLimit])
		}
		parts = append(parts, text)
		return true
	})

	if len(parts) == 0 {
		return fmt.Sprintf("No elements matched %q at %s.", selector, pageURL)
	}
	return strings.Join(parts, "\n---\n")
}
