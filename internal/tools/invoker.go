package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"llm-trading-agent/internal/logger"
	"llm-trading-agent/internal/types"
)

// Invoker executes tool calls against a catalog. Every failure mode is
// converted into an {"error": ...} result map so the conversation can
// continue; Invoke never returns an error.
type Invoker struct {
	catalog *Catalog
}

func NewInvoker(catalog *Catalog) *Invoker {
	return &Invoker{catalog: catalog}
}

// Invoke resolves and runs one tool call, stores the result in the run
// context, and returns the storage key with the result map.
func (inv *Invoker) Invoke(ctx context.Context, call types.ToolCall, rc *RunContext) (string, map[string]any) {
	name := call.Function.Name
	timer := logger.StartOperation(ctx, "tool."+name, "call_id", call.ID)

	result := inv.run(ctx, call, rc)
	if msg, failed := result["error"]; failed {
		timer.EndWithError(fmt.Errorf("%v", msg))
	} else {
		timer.End()
	}

	rc.Store(name, result)
	return name, result
}

func (inv *Invoker) run(ctx context.Context, call types.ToolCall, rc *RunContext) map[string]any {
	method, _, err := inv.catalog.Lookup(call.Function.Name)
	if err != nil {
		logger.Warn(ctx, "Tool resolution failed", "function", call.Function.Name, "error", err)
		return map[string]any{"error": err.Error()}
	}

	args, err := decodeArguments(call.Function.Arguments)
	if err != nil {
		logger.Warn(ctx, "Tool arguments malformed", "function", call.Function.Name, "error", err)
		return map[string]any{"error": (&SerializationError{Op: "decode tool arguments", Err: err}).Error()}
	}

	inv.inject(method, args, rc)

	return runSafely(ctx, call.Function.Name, method, args)
}

// inject overrides run-scoped parameters with the values from the request.
// The model is never trusted to carry symbol, dry_run or amount; gathered
// data parameters are only filled in when the model omitted them.
func (inv *Invoker) inject(method MethodSpec, args map[string]any, rc *RunContext) {
	for _, p := range method.Params {
		switch p.Name {
		case "symbol":
			args["symbol"] = rc.Symbol
		case "dry_run":
			args["dry_run"] = rc.DryRun
		case "amount":
			args["amount"] = rc.Amount
		case "market_data":
			if _, present := args["market_data"]; !present && rc.Facts.Market != nil {
				args["market_data"] = rc.Facts.Market
			}
		case "sentiment_data":
			if _, present := args["sentiment_data"]; !present && rc.Facts.Sentiment != nil {
				args["sentiment_data"] = rc.Facts.Sentiment
			}
		}
	}
}

func runSafely(ctx context.Context, name string, method MethodSpec, args map[string]any) (result map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "Tool panicked", "function", name, "panic", fmt.Sprintf("%v", r))
			result = map[string]any{"error": fmt.Sprintf("tool %s panicked: %v", name, r)}
		}
	}()

	result, err := method.Run(ctx, args)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	if result == nil {
		result = map[string]any{}
	}
	return result
}

func decodeArguments(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// SerializeResult renders a tool result for the model. Marshal failures fall
// back to the fmt representation rather than dropping the turn.
func SerializeResult(result map[string]any) string {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(data)
}

// StringArg reads a string argument, returning "" when absent or mistyped.
func StringArg(args map[string]any, key string) string {
	if s, ok := args[key].(string); ok {
		return s
	}
	return ""
}

// FloatArg reads a numeric argument. JSON numbers decode as float64 but
// injected values may be native ints.
func FloatArg(args map[string]any, key string) (float64, bool) {
	return toFloat(args[key])
}

// BoolArg reads a boolean argument, returning the fallback when absent.
func BoolArg(args map[string]any, key string, fallback bool) bool {
	if b, ok := args[key].(bool); ok {
		return b
	}
	return fallback
}

// MapArg reads an object argument, returning nil when absent or mistyped.
func MapArg(args map[string]any, key string) map[string]any {
	if m, ok := args[key].(map[string]any); ok {
		return m
	}
	return nil
}
