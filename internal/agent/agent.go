package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"llm-trading-agent/internal/interfaces"
	"llm-trading-agent/internal/logger"
	"llm-trading-agent/internal/store"
	"llm-trading-agent/internal/tools"
	"llm-trading-agent/internal/types"
)

// Agent drives the multi-turn conversation between the chat model and the
// tool catalog for one trading instruction. Every run ends with either an
// answer-only reply or a TradingExecutionTool result, forced if the model
// stops calling tools before executing.
type Agent struct {
	cfg     *store.Config
	catalog *tools.Catalog
	invoker *tools.Invoker
	model   interfaces.ChatModel
	now     func() time.Time
}

// Compile-time interface check
var _ interfaces.Runner = (*Agent)(nil)

// New wires the agent from its collaborators. The catalog must already be
// validated and non-empty. The optional clock override is for tests.
func New(cfg *store.Config, catalog *tools.Catalog, invoker *tools.Invoker, model interfaces.ChatModel, clock ...func() time.Time) (*Agent, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if catalog == nil || catalog.Len() == 0 {
		return nil, errors.New("tool catalog is empty")
	}
	if invoker == nil {
		return nil, errors.New("tool invoker is required")
	}
	if model == nil {
		return nil, errors.New("chat model is required")
	}

	now := time.Now
	if len(clock) > 0 && clock[0] != nil {
		now = clock[0]
	}
	return &Agent{cfg: cfg, catalog: catalog, invoker: invoker, model: model, now: now}, nil
}

// Run processes one trading instruction and returns the structured result
// map. It never returns an error; failures are recorded inside the result.
func (a *Agent) Run(ctx context.Context, req types.RunRequest) (result map[string]any) {
	runID := uuid.NewString()
	start := a.now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "Agent run panicked", "run_id", runID, "panic", fmt.Sprintf("%v", r))
			result = map[string]any{
				"symbol":    req.Symbol,
				"error":     fmt.Sprintf("%v", r),
				"message":   "An error occurred while processing your request",
				"timestamp": time.Now().Unix(),
			}
		}
	}()

	logger.Info(ctx, "Processing prompt",
		"run_id", runID,
		"prompt", req.Prompt,
		"symbol", req.Symbol,
		"dry_run", req.DryRun,
		"amount", req.Amount,
	)

	rc := tools.NewRunContext(req.Prompt, req.Symbol, req.DryRun, req.Amount)

	messages := []types.ChatMessage{
		{Role: "system", Content: a.catalog.SystemPrompt()},
		{Role: "user", Content: fmt.Sprintf("I want to %s for %s", req.Prompt, req.Symbol)},
	}

	madeToolCalls := false
	var lastContent string

	maxTurns := a.cfg.Agent.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 5
	}

	for turn := 1; turn <= maxTurns; turn++ {
		logger.Info(ctx, "Starting conversation turn", "run_id", runID, "turn", turn, "max_turns", maxTurns)

		resp, err := a.model.Complete(ctx, types.ChatRequest{
			Messages:    messages,
			Tools:       a.catalog.Manifest(),
			Temperature: a.cfg.Agent.Temperature,
			MaxTokens:   a.cfg.Agent.MaxTokens,
		})
		if err != nil {
			logger.ErrorWithErr(ctx, "Model call failed", err, "run_id", runID, "turn", turn)
			rc.Error = err.Error()
			break
		}

		// The assistant turn goes into the transcript before any tool turns,
		// exactly as the wire protocol requires.
		messages = append(messages, assistantTurn(resp))
		if resp.Content != "" {
			lastContent = resp.Content
		}

		if len(resp.ToolCalls) > 0 {
			madeToolCalls = true
			logger.Info(ctx, "Model requested tool calls", "run_id", runID, "turn", turn, "count", len(resp.ToolCalls))

			for _, call := range resp.ToolCalls {
				_, toolResult := a.invoker.Invoke(ctx, call, rc)
				messages = append(messages, types.ChatMessage{
					Role:       "tool",
					Content:    tools.SerializeResult(toolResult),
					ToolCallID: call.ID,
				})
			}
			continue
		}

		if turn == 1 && resp.Content != "" {
			logger.Warn(ctx, "Model answered without using any tools", "run_id", runID)
			break
		}
		if madeToolCalls && resp.Content != "" {
			logger.Info(ctx, "Model stopped requesting tools, checking task completion", "run_id", runID, "turn", turn)
			break
		}
		logger.Warn(ctx, "Model returned neither content nor tool calls", "run_id", runID, "turn", turn)
		break
	}

	// A run that gathered data must end in an execution decision, even when
	// the model wandered off before calling the execution tool.
	if madeToolCalls && rc.Error == "" && !rc.HasPrefix("TradingExecutionTool") {
		a.ensureExecution(ctx, runID, rc, req)
	}

	if rc.Message == "" {
		rc.Message = lastContent
	}

	elapsed := math.Round(a.now().Sub(start).Seconds()*100) / 100
	rc.Elapsed = elapsed
	logger.Info(ctx, "Prompt processing completed", "run_id", runID, "elapsed_seconds", elapsed)

	return a.buildResult(runID, rc, req)
}

// ensureExecution asks the model for a final LONG/SHORT/NEUTRAL call and then
// dispatches the execution capability directly. Gathered market and sentiment
// data reach the tool through the regular injection path.
func (a *Agent) ensureExecution(ctx context.Context, runID string, rc *tools.RunContext, req types.RunRequest) {
	logger.Info(ctx, "No execution call was made, forcing a final trade decision",
		"run_id", runID, "symbol", req.Symbol)

	rec := a.recommend(ctx, rc, req)
	logger.Info(ctx, "Final recommendation", "run_id", runID, "direction", rec.Direction, "reasoning", rec.Reasoning)

	args := map[string]any{
		"symbol":  req.Symbol,
		"amount":  req.Amount,
		"dry_run": req.DryRun,
	}
	if rec.Direction != "" {
		args["direction"] = rec.Direction
	}
	payload, err := json.Marshal(args)
	if err != nil {
		rc.TradeError = err.Error()
		return
	}

	call := types.ToolCall{
		ID:   "forced-execution",
		Type: "function",
		Function: types.FunctionCall{
			Name:      "TradingExecutionTool_execute_trade",
			Arguments: string(payload),
		},
	}
	_, toolResult := a.invoker.Invoke(ctx, call, rc)
	if msg, ok := toolResult["error"].(string); ok {
		rc.TradeError = msg
	}
}

func (a *Agent) buildResult(runID string, rc *tools.RunContext, req types.RunRequest) map[string]any {
	result := map[string]any{
		"prompt":       req.Prompt,
		"symbol":       req.Symbol,
		"dry_run":      req.DryRun,
		"amount":       req.Amount,
		"run_id":       runID,
		"tool_results": rc.ToolResults(),
		"elapsed_time": rc.Elapsed,
		"timestamp":    time.Now().Unix(),
	}
	if rc.Message != "" {
		result["message"] = rc.Message
	}
	if rc.Error != "" {
		result["error"] = rc.Error
	}
	if rc.TradeError != "" {
		result["trade_error"] = rc.TradeError
	}
	if facts := factsMap(&rc.Facts); len(facts) > 0 {
		result["facts"] = facts
	}
	return result
}

func factsMap(f *tools.Facts) map[string]any {
	out := map[string]any{}
	if f.LastPrice != nil {
		out["last_price"] = *f.LastPrice
	}
	if f.LastChange != nil {
		out["last_change"] = *f.LastChange
	}
	if f.LastSentiment != nil {
		out["last_sentiment"] = *f.LastSentiment
	}
	return out
}

func assistantTurn(resp types.ChatResponse) types.ChatMessage {
	return types.ChatMessage{
		Role:      "assistant",
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	}
}
