package tools

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"llm-trading-agent/internal/types"
)

func captureCapability(captured *map[string]any) Capability {
	return fakeCapability{spec: CapabilitySpec{
		Name:        "TradingExecutionTool",
		Description: "Executes trades",
		Methods: []MethodSpec{{
			Name:        "execute_trade",
			Description: "Execute a trade",
			Params: []ParamSpec{
				{Name: "symbol", Type: "string", Description: "Trading symbol", Required: true},
				{Name: "direction", Type: "string", Description: "LONG, SHORT or NEUTRAL"},
				{Name: "amount", Type: "number", Description: "Dollar amount"},
				{Name: "dry_run", Type: "boolean", Description: "Simulate only"},
				{Name: "market_data", Type: "object", Description: "Gathered market data"},
				{Name: "sentiment_data", Type: "object", Description: "Gathered sentiment"},
			},
			Run: func(_ context.Context, args map[string]any) (map[string]any, error) {
				*captured = args
				return map[string]any{"status": "executed"}, nil
			},
		}},
	}}
}

func toolCall(name, arguments string) types.ToolCall {
	return types.ToolCall{
		ID:   "call-1",
		Type: "function",
		Function: types.FunctionCall{
			Name:      name,
			Arguments: arguments,
		},
	}
}

func TestInvokeOverridesRequestParameters(t *testing.T) {
	var captured map[string]any
	catalog, err := NewCatalog(context.Background(), captureCapability(&captured))
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	inv := NewInvoker(catalog)

	rc := NewRunContext("buy the dip", "BTC", true, 100)
	args := `{"symbol":"DOGE","dry_run":false,"amount":5,"direction":"LONG"}`
	key, result := inv.Invoke(context.Background(), toolCall("TradingExecutionTool_execute_trade", args), rc)

	if key != "TradingExecutionTool_execute_trade" {
		t.Errorf("unexpected key %q", key)
	}
	if result["status"] != "executed" {
		t.Fatalf("unexpected result: %v", result)
	}
	if captured["symbol"] != "BTC" {
		t.Errorf("symbol not overridden: %v", captured["symbol"])
	}
	if captured["dry_run"] != true {
		t.Errorf("dry_run not overridden: %v", captured["dry_run"])
	}
	if amount, _ := FloatArg(captured, "amount"); amount != 100 {
		t.Errorf("amount not overridden: %v", captured["amount"])
	}
	if captured["direction"] != "LONG" {
		t.Errorf("model-chosen direction lost: %v", captured["direction"])
	}
}

func TestInvokeInjectsGatheredData(t *testing.T) {
	var captured map[string]any
	catalog, err := NewCatalog(context.Background(), captureCapability(&captured))
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	inv := NewInvoker(catalog)

	rc := NewRunContext("trade", "BTC", true, 100)
	rc.Store("MarketDataTool_get_market_data", map[string]any{"current_price": 48000.0, "24h_change_percent": 1.5})
	rc.Store("TwitterSentimentTool_get_sentiment", map[string]any{"average_sentiment": 0.7})

	inv.Invoke(context.Background(), toolCall("TradingExecutionTool_execute_trade", "{}"), rc)

	market := MapArg(captured, "market_data")
	if market == nil || market["current_price"] != 48000.0 {
		t.Errorf("market_data not injected: %v", captured["market_data"])
	}
	sentiment := MapArg(captured, "sentiment_data")
	if sentiment == nil || sentiment["average_sentiment"] != 0.7 {
		t.Errorf("sentiment_data not injected: %v", captured["sentiment_data"])
	}
}

func TestInvokeKeepsModelProvidedData(t *testing.T) {
	var captured map[string]any
	catalog, err := NewCatalog(context.Background(), captureCapability(&captured))
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	inv := NewInvoker(catalog)

	rc := NewRunContext("trade", "BTC", true, 100)
	rc.Store("MarketDataTool_get_market_data", map[string]any{"current_price": 48000.0})

	args := `{"market_data":{"current_price":1}}`
	inv.Invoke(context.Background(), toolCall("TradingExecutionTool_execute_trade", args), rc)

	market := MapArg(captured, "market_data")
	if price, _ := FloatArg(market, "current_price"); price != 1 {
		t.Errorf("model-provided market_data overwritten: %v", market)
	}
}

func TestInvokeUnknownToolReturnsErrorResult(t *testing.T) {
	var captured map[string]any
	catalog, err := NewCatalog(context.Background(), captureCapability(&captured))
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	inv := NewInvoker(catalog)

	rc := NewRunContext("trade", "BTC", true, 100)
	key, result := inv.Invoke(context.Background(), toolCall("NoSuchTool_run", "{}"), rc)

	if result["error"] != "Tool not found: NoSuchTool" {
		t.Errorf("unexpected error result: %v", result)
	}
	if rc.Result(key) == nil {
		t.Error("error result not stored in run context")
	}
}

func TestInvokeMalformedArguments(t *testing.T) {
	var captured map[string]any
	catalog, err := NewCatalog(context.Background(), captureCapability(&captured))
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	inv := NewInvoker(catalog)

	rc := NewRunContext("trade", "BTC", true, 100)
	_, result := inv.Invoke(context.Background(), toolCall("TradingExecutionTool_execute_trade", `{"symbol":`), rc)

	msg, _ := result["error"].(string)
	if !strings.Contains(msg, "decode tool arguments") {
		t.Errorf("unexpected error result: %v", result)
	}
	if captured != nil {
		t.Error("handler ran despite malformed arguments")
	}
}

func TestInvokeRunErrorBecomesResult(t *testing.T) {
	capability := fakeCapability{spec: CapabilitySpec{
		Name:        "MarketDataTool",
		Description: "Market data",
		Methods: []MethodSpec{{
			Name:        "get_market_data",
			Description: "Get market data",
			Run: func(_ context.Context, _ map[string]any) (map[string]any, error) {
				return nil, errors.New("exchange down")
			},
		}},
	}}
	catalog, err := NewCatalog(context.Background(), capability)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	inv := NewInvoker(catalog)

	rc := NewRunContext("trade", "BTC", true, 100)
	_, result := inv.Invoke(context.Background(), toolCall("MarketDataTool_get_market_data", "{}"), rc)

	if result["error"] != "exchange down" {
		t.Errorf("unexpected result: %v", result)
	}
	if rc.Facts.LastPrice != nil {
		t.Error("error result must not populate facts")
	}
}

func TestInvokeRecoversPanic(t *testing.T) {
	capability := fakeCapability{spec: CapabilitySpec{
		Name:        "MarketDataTool",
		Description: "Market data",
		Methods: []MethodSpec{{
			Name:        "get_market_data",
			Description: "Get market data",
			Run: func(_ context.Context, _ map[string]any) (map[string]any, error) {
				panic("boom")
			},
		}},
	}}
	catalog, err := NewCatalog(context.Background(), capability)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	inv := NewInvoker(catalog)

	rc := NewRunContext("trade", "BTC", true, 100)
	_, result := inv.Invoke(context.Background(), toolCall("MarketDataTool_get_market_data", "{}"), rc)

	msg, _ := result["error"].(string)
	if !strings.Contains(msg, "panicked") || !strings.Contains(msg, "boom") {
		t.Errorf("unexpected panic result: %v", result)
	}
}

func TestRunContextFirstFactWins(t *testing.T) {
	rc := NewRunContext("trade", "BTC", true, 100)

	rc.Store("MarketDataTool_get_market_data", map[string]any{"current_price": 100.0, "24h_change_percent": 2.0})
	rc.Store("MarketDataTool_get_market_data", map[string]any{"current_price": 200.0, "24h_change_percent": -5.0})

	if rc.Facts.LastPrice == nil || *rc.Facts.LastPrice != 100.0 {
		t.Errorf("expected first price to win, got %v", rc.Facts.LastPrice)
	}
	if rc.Facts.LastChange == nil || *rc.Facts.LastChange != 2.0 {
		t.Errorf("expected first change to win, got %v", rc.Facts.LastChange)
	}
	if price, _ := toFloat(rc.Facts.Market["current_price"]); price != 100.0 {
		t.Errorf("expected first market map to win, got %v", rc.Facts.Market)
	}
	if price, _ := toFloat(rc.Result("MarketDataTool_get_market_data")["current_price"]); price != 200.0 {
		t.Errorf("expected newest stored result, got %v", rc.Result("MarketDataTool_get_market_data"))
	}
	if keys := rc.Keys(); len(keys) != 1 {
		t.Errorf("expected one key, got %v", keys)
	}
}

func TestRunContextErrorResultsDoNotAbsorb(t *testing.T) {
	rc := NewRunContext("trade", "BTC", true, 100)

	rc.Store("MarketDataTool_get_market_data", map[string]any{"error": "Tool not found: MarketDataTool"})
	if rc.Facts.LastPrice != nil || rc.Facts.Market != nil {
		t.Fatal("error result populated facts")
	}

	rc.Store("MarketDataTool_get_market_data", map[string]any{"current_price": 42.0})
	if rc.Facts.LastPrice == nil || *rc.Facts.LastPrice != 42.0 {
		t.Errorf("valid retry did not populate facts: %v", rc.Facts.LastPrice)
	}
}

func TestRunContextHasPrefix(t *testing.T) {
	rc := NewRunContext("trade", "BTC", true, 100)
	rc.Store("TwitterSentimentTool_get_sentiment", map[string]any{"average_sentiment": 0.7})

	if !rc.HasPrefix("TwitterSentimentTool") {
		t.Error("expected prefix match for stored capability")
	}
	if rc.HasPrefix("TradingExecutionTool") {
		t.Error("unexpected prefix match for absent capability")
	}
}

func TestSerializeResultFallsBackOnMarshalFailure(t *testing.T) {
	out := SerializeResult(map[string]any{"symbol": "BTC", "status": "executed"})
	if !strings.Contains(out, `"symbol":"BTC"`) {
		t.Errorf("unexpected serialization: %s", out)
	}

	out = SerializeResult(map[string]any{"rsi": math.NaN()})
	if out == "" || !strings.Contains(out, "NaN") {
		t.Errorf("expected fmt fallback for unmarshalable value, got %q", out)
	}
}
