package tools

import "strings"

// Facts holds the structured values absorbed from tool results during a run.
// Downstream consumers read these instead of re-parsing the raw result maps.
// First write wins: a second market fetch does not overwrite the values the
// decision was based on.
type Facts struct {
	LastPrice     *float64
	LastChange    *float64
	LastSentiment *float64

	Market    map[string]any
	Sentiment map[string]any
	Execution map[string]any
}

func (f *Facts) setPrice(v float64) {
	if f.LastPrice == nil {
		f.LastPrice = &v
	}
}

func (f *Facts) setChange(v float64) {
	if f.LastChange == nil {
		f.LastChange = &v
	}
}

func (f *Facts) setSentiment(v float64) {
	if f.LastSentiment == nil {
		f.LastSentiment = &v
	}
}

// RunContext carries the state of a single agent run: the request parameters,
// every stored tool result in call order, and the facts extracted from them.
type RunContext struct {
	Prompt string
	Symbol string
	DryRun bool
	Amount float64

	keys    []string
	results map[string]map[string]any

	Facts Facts

	Message    string
	Error      string
	TradeError string
	Elapsed    float64
}

func NewRunContext(prompt, symbol string, dryRun bool, amount float64) *RunContext {
	return &RunContext{
		Prompt:  prompt,
		Symbol:  symbol,
		DryRun:  dryRun,
		Amount:  amount,
		results: make(map[string]map[string]any),
	}
}

// Store records a tool result under its function name and absorbs any facts
// it carries. Repeated calls to the same function keep the newest result map
// but preserve first-seen facts.
func (rc *RunContext) Store(key string, result map[string]any) {
	if _, exists := rc.results[key]; !exists {
		rc.keys = append(rc.keys, key)
	}
	rc.results[key] = result

	idx := strings.Index(key, "_")
	if idx <= 0 {
		return
	}
	rc.absorb(key[:idx], result)
}

func (rc *RunContext) absorb(capability string, result map[string]any) {
	if result == nil {
		return
	}
	if _, failed := result["error"]; failed {
		return
	}
	switch capability {
	case "MarketDataTool":
		price, ok := toFloat(result["current_price"])
		if !ok {
			return
		}
		rc.Facts.setPrice(price)
		if change, ok := toFloat(result["24h_change_percent"]); ok {
			rc.Facts.setChange(change)
		}
		if rc.Facts.Market == nil {
			rc.Facts.Market = result
		}
	case "TwitterSentimentTool":
		score, ok := toFloat(result["average_sentiment"])
		if !ok {
			return
		}
		rc.Facts.setSentiment(score)
		if rc.Facts.Sentiment == nil {
			rc.Facts.Sentiment = result
		}
	case "TradingExecutionTool":
		if rc.Facts.Execution == nil {
			rc.Facts.Execution = result
		}
	}
}

// Result returns the stored result for a function name, or nil.
func (rc *RunContext) Result(key string) map[string]any {
	return rc.results[key]
}

// HasPrefix reports whether any stored key starts with the given prefix.
// Used to check whether a capability has run at all.
func (rc *RunContext) HasPrefix(prefix string) bool {
	for _, k := range rc.keys {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// Keys returns the stored function names in first-stored order.
func (rc *RunContext) Keys() []string {
	out := make([]string, len(rc.keys))
	copy(out, rc.keys)
	return out
}

// ToolResults returns the full result map keyed by function name.
func (rc *RunContext) ToolResults() map[string]map[string]any {
	return rc.results
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
