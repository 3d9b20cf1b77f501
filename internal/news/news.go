package news

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"llm-trading-agent/internal/logger"
	"llm-trading-agent/internal/sentiment"
	"llm-trading-agent/internal/store"
	"llm-trading-agent/internal/tools"
)

// headlineCacheTTL bounds how long scored headlines are reused across runs.
const headlineCacheTTL = time.Hour

// Tool exposes scraped news headlines with lexicon sentiment scoring as the
// optional NewsHeadlinesTool capability.
type Tool struct {
	scraper      *Scraper
	cache        *headlineCache
	maxHeadlines int
}

// New builds the news tool from config.
func New(cfg *store.Config) *Tool {
	return &Tool{
		scraper:      NewScraper(time.Duration(cfg.News.TimeoutSeconds) * time.Second),
		cache:        newHeadlineCache(headlineCacheTTL),
		maxHeadlines: cfg.News.MaxHeadlines,
	}
}

func (t *Tool) Spec() tools.CapabilitySpec {
	return tools.CapabilitySpec{
		Name:        "NewsHeadlinesTool",
		Description: "Fetches recent news headlines for a cryptocurrency and scores their sentiment",
		Methods: []tools.MethodSpec{{
			Name:        "get_headlines",
			Description: "Fetch recent headlines and overall news sentiment for a symbol",
			Params: []tools.ParamSpec{
				{Name: "symbol", Type: "string", Description: "Cryptocurrency symbol to search news for", Required: true},
				{Name: "count", Type: "integer", Description: "Maximum number of headlines to return"},
			},
			Run: t.GetHeadlines,
		}},
	}
}

// GetHeadlines scrapes, scores and caches headlines for a symbol. An empty
// scrape is returned as a zero-score result and never cached.
func (t *Tool) GetHeadlines(ctx context.Context, args map[string]any) (map[string]any, error) {
	symbol := strings.ToUpper(strings.TrimSpace(tools.StringArg(args, "symbol")))

	count := t.maxHeadlines
	if n, ok := tools.FloatArg(args, "count"); ok && int(n) > 0 && int(n) < count {
		count = int(n)
	}

	if cached, ok := t.cache.get(symbol); ok {
		logger.Debug(ctx, "Serving cached headlines", "symbol", symbol)
		return cached, nil
	}

	headlines := t.scraper.Scrape(ctx, symbol, count)
	if len(headlines) == 0 {
		return map[string]any{
			"symbol":          symbol,
			"headline_count":  0,
			"overall_score":   0.0,
			"sentiment_label": "Neutral",
			"message":         fmt.Sprintf("No recent headlines found for %s", symbol),
			"timestamp":       time.Now().Unix(),
		}, nil
	}

	titles := make([]string, len(headlines))
	for i, h := range headlines {
		titles[i] = h.Title
	}
	score := scoreText(titles)

	items := make([]map[string]any, len(headlines))
	for i, h := range headlines {
		items[i] = map[string]any{"title": h.Title, "source": h.Source, "url": h.URL}
	}

	result := map[string]any{
		"symbol":          symbol,
		"headline_count":  len(headlines),
		"overall_score":   math.Round(score.Overall*1e6) / 1e6,
		"sentiment_label": sentiment.Label(score.Overall),
		"positive_words":  score.PositiveWords,
		"negative_words":  score.NegativeWords,
		"headlines":       items,
		"timestamp":       time.Now().Unix(),
	}
	t.cache.set(symbol, result)
	return result, nil
}

// headlineCache stores scored headline results temporarily
type headlineCache struct {
	mu   sync.RWMutex
	data map[string]*cacheEntry
	ttl  time.Duration
}

type cacheEntry struct {
	result    map[string]any
	timestamp time.Time
}

func newHeadlineCache(ttl time.Duration) *headlineCache {
	return &headlineCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
	}
}

func (c *headlineCache) get(symbol string) (map[string]any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.data[symbol]
	if !found {
		return nil, false
	}
	if time.Since(entry.timestamp) > c.ttl {
		return nil, false
	}
	return entry.result, true
}

func (c *headlineCache) set(symbol string, result map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[symbol] = &cacheEntry{
		result:    result,
		timestamp: time.Now(),
	}
}
