package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"llm-trading-agent/internal/logger"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Headline is one scraped news entry.
type Headline struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Scraper handles scraping crypto news headlines from multiple sources
type Scraper struct {
	sources []Source
	timeout time.Duration
}

// Source defines a news source configuration
type Source struct {
	Name       string
	BaseURL    string
	SearchPath string // e.g., "/search?q={symbol}"
	Selectors  HeadlineSelectors
	RateLimit  time.Duration
}

// HeadlineSelectors defines CSS selectors for extracting headline data
type HeadlineSelectors struct {
	Container string
	Title     string
	URL       string
}

// NewScraper creates a new headline scraper with default sources
func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{
		sources: getDefaultSources(),
		timeout: timeout,
	}
}

// getDefaultSources returns a list of crypto news sources to scrape
func getDefaultSources() []Source {
	return []Source{
		{
			Name:       "CoinDesk",
			BaseURL:    "https://www.coindesk.com",
			SearchPath: "/search?s={symbol}",
			Selectors: HeadlineSelectors{
				Container: "div.article-card",
				Title:     "h2 a, h3 a",
				URL:       "h2 a, h3 a",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "CoinTelegraph",
			BaseURL:    "https://cointelegraph.com",
			SearchPath: "/tags/{symbol}",
			Selectors: HeadlineSelectors{
				Container: "article",
				Title:     "a span",
				URL:       "a",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "Decrypt",
			BaseURL:    "https://decrypt.co",
			SearchPath: "/search?q={symbol}",
			Selectors: HeadlineSelectors{
				Container: "div.searchResult",
				Title:     "h3 a",
				URL:       "h3 a",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// Scrape fetches headlines for a symbol from all sources. Per-source failures
// are logged and skipped; the result holds whatever was collected.
func (s *Scraper) Scrape(ctx context.Context, symbol string, maxHeadlines int) []Headline {
	logger.Info(ctx, "Starting headline scraping", "symbol", symbol, "sources", len(s.sources))

	all := []Headline{}
	perSource := maxHeadlines / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	for i, source := range s.sources {
		headlines, err := s.scrapeSource(ctx, source, symbol, perSource)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape source", err, "source", source.Name, "symbol", symbol)
			continue
		}
		all = append(all, headlines...)
		if len(all) >= maxHeadlines {
			all = all[:maxHeadlines]
			break
		}

		// Rate limiting between sources
		if i < len(s.sources)-1 {
			select {
			case <-ctx.Done():
				return all
			case <-time.After(source.RateLimit):
			}
		}
	}

	logger.Info(ctx, "Headline scraping completed", "symbol", symbol, "headlines", len(all))
	return all
}

// scrapeSource scrapes headlines from a single news source
func (s *Scraper) scrapeSource(ctx context.Context, source Source, symbol string, maxHeadlines int) ([]Headline, error) {
	headlines := []Headline{}

	c := colly.NewCollector(
		colly.AllowedDomains(getDomain(source.BaseURL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)
	c.SetRequestTimeout(s.timeout)

	// Set user agent to avoid being blocked
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", userAgent)
	})

	c.OnHTML(source.Selectors.Container, func(e *colly.HTMLElement) {
		if len(headlines) >= maxHeadlines {
			return
		}
		if h, ok := headlineFrom(e.DOM, source.Selectors, source.BaseURL, source.Name); ok {
			headlines = append(headlines, h)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scraping error", err, "source", source.Name, "url", r.Request.URL.String())
	})

	searchURL := source.BaseURL + strings.ReplaceAll(source.SearchPath, "{symbol}", strings.ToLower(symbol))

	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", searchURL, err)
	}
	c.Wait()

	return headlines, nil
}

// headlineFrom pulls one headline out of a matched container node. The URL
// selector doubles as the title source when the title selector matches
// nothing, which is how tag pages on most sources are laid out.
func headlineFrom(dom *goquery.Selection, selectors HeadlineSelectors, baseURL, sourceName string) (Headline, bool) {
	link := dom.Find(selectors.URL).First()

	title := strings.TrimSpace(dom.Find(selectors.Title).First().Text())
	if title == "" {
		title = strings.TrimSpace(link.Text())
	}
	if title == "" {
		return Headline{}, false
	}

	href, _ := link.Attr("href")
	if href == "" {
		return Headline{}, false
	}
	if !strings.HasPrefix(href, "http") {
		href = baseURL + href
	}

	return Headline{Title: title, URL: href, Source: sourceName}, true
}

// getDomain extracts domain from URL
func getDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
