package decision

import (
	"fmt"
	"math"

	"llm-trading-agent/internal/types"
)

// Decide derives a trading decision from gathered market and sentiment data.
// It is a pure function: identical inputs produce identical decisions. Rule
// order matters; momentum extremes override sentiment.
func Decide(market, sentiment map[string]any) types.Decision {
	if len(market) == 0 && len(sentiment) == 0 {
		return types.Decision{
			Direction:  "NEUTRAL",
			Confidence: 0.0,
			Reasoning:  "Insufficient data for trading decision",
		}
	}

	sentimentScore := 0.0
	change24h := 0.0
	rsi := 50.0

	if v, ok := toFloat(sentiment["average_sentiment"]); ok {
		sentimentScore = v
	}
	if v, ok := toFloat(market["24h_change_percent"]); ok {
		change24h = v
	}
	if indicators, ok := market["indicators"].(map[string]any); ok {
		if v, ok := toFloat(indicators["rsi_14"]); ok {
			rsi = v
		} else if v, ok := toFloat(indicators["rsi"]); ok {
			rsi = v
		}
	}

	switch {
	case rsi > 80 && change24h > 5:
		return types.Decision{
			Direction:  "SHORT",
			Confidence: 0.8,
			Reasoning:  fmt.Sprintf("RSI is overbought at %g. Price increased %g%% in 24h", rsi, change24h),
		}
	case rsi < 20 && change24h < -5:
		return types.Decision{
			Direction:  "LONG",
			Confidence: 0.8,
			Reasoning:  fmt.Sprintf("RSI is oversold at %g. Price decreased %g%% in 24h", rsi, math.Abs(change24h)),
		}
	case sentimentScore > 0.5 && rsi < 70:
		return types.Decision{
			Direction:  "LONG",
			Confidence: 0.7,
			Reasoning:  fmt.Sprintf("Sentiment is bullish at %g. RSI is not overbought at %g", sentimentScore, rsi),
		}
	case sentimentScore < -0.5 && rsi > 30:
		return types.Decision{
			Direction:  "SHORT",
			Confidence: 0.7,
			Reasoning:  fmt.Sprintf("Sentiment is bearish at %g. RSI is not oversold at %g", sentimentScore, rsi),
		}
	default:
		return types.Decision{
			Direction:  "NEUTRAL",
			Confidence: 0.5,
			Reasoning:  fmt.Sprintf("No strong signals detected. Sentiment: %g, RSI: %g, 24h change: %g%%", sentimentScore, rsi, change24h),
		}
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
