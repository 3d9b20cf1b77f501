package sentiment

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"llm-trading-agent/internal/logger"
	"llm-trading-agent/internal/tools"
)

var positiveTweets = []string{
	"Just bought more $%s! To the moon!",
	"$%s is looking strong today. Bullish pattern forming.",
	"The $%s ecosystem is growing rapidly. Very promising project.",
	"$%s has great fundamentals. Holding for the long term.",
	"New partnerships for $%s looking promising. Good investment.",
}

var neutralTweets = []string{
	"$%s trading sideways today. Waiting for a breakout.",
	"Monitoring $%s price action. No clear trend yet.",
	"$%s volume seems average today. Nothing special to report.",
	"Wondering where $%s will go next. Any thoughts?",
	"$%s news today was exactly as expected. No surprises.",
}

// Tool generates synthetic Twitter sentiment.
// rand.Rand is not safe for concurrent use, hence the mutex.
type Tool struct {
	mu        sync.Mutex
	rng       *rand.Rand
	minTweets int
	maxTweets int
}

func New(minTweets, maxTweets int) *Tool {
	if minTweets <= 0 {
		minTweets = 100
	}
	if maxTweets < minTweets {
		maxTweets = minTweets
	}
	return &Tool{
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		minTweets: minTweets,
		maxTweets: maxTweets,
	}
}

func (t *Tool) Spec() tools.CapabilitySpec {
	return tools.CapabilitySpec{
		Name:        "TwitterSentimentTool",
		Description: "Analyzes recent Twitter sentiment for a cryptocurrency",
		Methods: []tools.MethodSpec{{
			Name:        "get_sentiment",
			Description: "Get aggregated Twitter sentiment for a symbol",
			Params: []tools.ParamSpec{
				{Name: "symbol", Type: "string", Description: "Cryptocurrency symbol, e.g. BTC", Required: true},
				{Name: "count", Type: "integer", Description: "Number of tweets to analyze"},
			},
			Run: t.GetSentiment,
		}},
	}
}

// GetSentiment returns an aggregated sentiment snapshot with sample tweets.
func (t *Tool) GetSentiment(ctx context.Context, args map[string]any) (map[string]any, error) {
	symbol := tools.StringArg(args, "symbol")
	logger.Info(ctx, "Generating Twitter sentiment", "symbol", symbol)

	t.mu.Lock()
	defer t.mu.Unlock()

	avg := t.uniform(0.5, 0.9)
	tweetCount := t.minTweets + t.rng.Intn(t.maxTweets-t.minTweets+1)

	positivePct := t.uniform(0.6, 0.9)
	negativePct := t.uniform(0.01, 0.1)
	neutralPct := 1 - positivePct - negativePct

	samples := make([]map[string]any, 0, 5)
	for i := 0; i < 5; i++ {
		var text string
		var score float64
		if t.rng.Float64() < positivePct {
			text = fmt.Sprintf(positiveTweets[t.rng.Intn(len(positiveTweets))], symbol)
			score = t.uniform(0.5, 0.9)
		} else {
			text = fmt.Sprintf(neutralTweets[t.rng.Intn(len(neutralTweets))], symbol)
			score = t.uniform(0.0, 0.3)
		}
		samples = append(samples, map[string]any{
			"text":      text,
			"sentiment": score,
		})
	}

	return map[string]any{
		"symbol":              symbol,
		"average_sentiment":   avg,
		"sentiment_label":     Label(avg),
		"tweet_count":         tweetCount,
		"positive_percentage": positivePct,
		"negative_percentage": negativePct,
		"neutral_percentage":  neutralPct,
		"sample_tweets":       samples,
	}, nil
}

func (t *Tool) uniform(lo, hi float64) float64 {
	return lo + t.rng.Float64()*(hi-lo)
}

// Label converts a sentiment score in [-1, 1] to a human-readable label.
func Label(score float64) string {
	switch {
	case score >= 0.5:
		return "Very Positive"
	case score >= 0.1:
		return "Positive"
	case score <= -0.5:
		return "Very Negative"
	case score <= -0.1:
		return "Negative"
	default:
		return "Neutral"
	}
}
