package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"llm-trading-agent/internal/logger"
	"llm-trading-agent/internal/tools"
	"llm-trading-agent/internal/types"
)

type recommendation struct {
	Direction string `json:"direction"`
	Reasoning string `json:"reasoning"`
}

// recommend runs a fresh, tool-free conversation asking for the final
// LONG/SHORT/NEUTRAL call. A transport failure returns an empty direction so
// the execution engine falls back to deciding from the gathered facts.
func (a *Agent) recommend(ctx context.Context, rc *tools.RunContext, req types.RunRequest) recommendation {
	messages := []types.ChatMessage{
		{Role: "system", Content: a.catalog.SystemPrompt()},
		{Role: "user", Content: fmt.Sprintf(
			"I want to %s for %s. Based on your analysis, what's your final trading recommendation? "+
				"Should I go LONG, SHORT, or NEUTRAL on %s? Please provide a clear recommendation with reasoning. "+
				`Respond ONLY with compact JSON matching {"direction": "LONG|SHORT|NEUTRAL", "reasoning": "..."}.`,
			req.Prompt, req.Symbol, req.Symbol)},
	}
	if summary := factsSummary(rc); summary != "" {
		messages = append(messages, types.ChatMessage{Role: "user", Content: summary})
	}

	resp, err := a.model.Complete(ctx, types.ChatRequest{
		Messages:    messages,
		Temperature: a.cfg.Agent.Temperature,
		MaxTokens:   a.cfg.Agent.MaxTokens,
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Recommendation request failed", err, "symbol", req.Symbol)
		return recommendation{}
	}

	return parseRecommendation(ctx, resp.Content)
}

// factsSummary renders the gathered data as a short bullet list for the
// recommendation request. Empty when no facts were absorbed.
func factsSummary(rc *tools.RunContext) string {
	var b strings.Builder
	if m := rc.Facts.Market; m != nil {
		fmt.Fprintf(&b, "- Market price for %v: $%v\n", m["symbol"], m["current_price"])
	}
	if s := rc.Facts.Sentiment; s != nil {
		fmt.Fprintf(&b, "- Twitter sentiment: %v (%v)\n", s["sentiment_label"], s["average_sentiment"])
		fmt.Fprintf(&b, "- Tweet count: %v\n", s["tweet_count"])
	}
	if b.Len() == 0 {
		return ""
	}
	return "Here's the data we've gathered:\n" + b.String()
}

// parseRecommendation extracts the direction from the model reply. It first
// tries the JSON object between the outermost braces, then falls back to a
// substring scan where LONG beats SHORT beats the NEUTRAL default.
func parseRecommendation(ctx context.Context, text string) recommendation {
	t := strings.TrimSpace(text)

	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		var rec recommendation
		if err := json.Unmarshal([]byte(t[start:end+1]), &rec); err == nil {
			rec.Direction = strings.ToUpper(strings.TrimSpace(rec.Direction))
			if rec.Direction == "LONG" || rec.Direction == "SHORT" || rec.Direction == "NEUTRAL" {
				logger.Debug(ctx, "Parsed recommendation JSON", "direction", rec.Direction)
				return rec
			}
		}
	}

	upper := strings.ToUpper(t)
	rec := recommendation{Direction: "NEUTRAL", Reasoning: t}
	switch {
	case strings.Contains(upper, "LONG"):
		rec.Direction = "LONG"
	case strings.Contains(upper, "SHORT"):
		rec.Direction = "SHORT"
	}
	logger.Debug(ctx, "Parsed recommendation from text scan", "direction", rec.Direction)
	return rec
}
