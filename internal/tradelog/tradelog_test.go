package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAppendWritesDailyJSONL(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AGENT_LOG_DIR", dir)

	err := Append(SessionEntry{
		RunID:     "run-1",
		Prompt:    "trade based on sentiment",
		Symbol:    "BTC",
		DryRun:    true,
		Direction: "LONG",
		Status:    "executed",
		OrderID:   "SIM-1",
		Amount:    100,
		Price:     48000,
		Size:      0.0021,
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	p := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".jsonl")
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("Expected daily log file: %v", err)
	}

	line := strings.TrimSpace(string(data))
	var got SessionEntry
	if err := json.Unmarshal([]byte(line), &got); err != nil {
		t.Fatalf("Log line is not JSON: %v", err)
	}
	if got.RunID != "run-1" || got.Symbol != "BTC" || got.Direction != "LONG" {
		t.Errorf("Unexpected entry: %+v", got)
	}
	if got.Time == "" {
		t.Error("Expected time to be stamped")
	}
	if strings.Contains(line, `"Error"`) {
		t.Error("Expected empty error to be omitted")
	}
}

func TestAppendAccumulatesLines(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AGENT_LOG_DIR", dir)

	for i := 0; i < 3; i++ {
		if err := Append(SessionEntry{RunID: "run", Symbol: "ETH"}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	p := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".jsonl")
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Errorf("Expected 3 lines, got %d", len(lines))
	}
}

func TestFromResult(t *testing.T) {
	result := map[string]any{
		"run_id":       "run-7",
		"prompt":       "go long",
		"symbol":       "SOL",
		"dry_run":      true,
		"amount":       50.0,
		"elapsed_time": 1.25,
		"tool_results": map[string]map[string]any{
			"MarketDataTool_get_market_data": {"current_price": 150.0},
			"TradingExecutionTool_execute_trade": {
				"direction":  "SHORT",
				"status":     "executed",
				"order_id":   "SIM-9",
				"price":      150.0,
				"size":       0.3333,
				"confidence": 0.8,
			},
		},
	}

	e := FromResult(result)
	if e.RunID != "run-7" || e.Symbol != "SOL" || !e.DryRun {
		t.Errorf("Unexpected header fields: %+v", e)
	}
	if e.Direction != "SHORT" || e.Status != "executed" || e.OrderID != "SIM-9" {
		t.Errorf("Unexpected trade fields: %+v", e)
	}
	if e.Price != 150.0 || e.Size != 0.3333 || e.Confidence != 0.8 {
		t.Errorf("Unexpected numbers: %+v", e)
	}
	if e.Elapsed != 1.25 {
		t.Errorf("Expected elapsed 1.25, got %f", e.Elapsed)
	}
}

func TestFromResultWithoutTrade(t *testing.T) {
	e := FromResult(map[string]any{
		"run_id": "run-8",
		"symbol": "BTC",
		"error":  "model call failed",
	})
	if e.Error != "model call failed" {
		t.Errorf("Expected run error carried over, got %q", e.Error)
	}
	if e.Direction != "" || e.Status != "" {
		t.Errorf("Expected empty trade fields, got %+v", e)
	}
}

func TestFromResultTradeError(t *testing.T) {
	e := FromResult(map[string]any{
		"symbol": "BTC",
		"tool_results": map[string]map[string]any{
			"TradingExecutionTool_execute_trade": {
				"status": "failed",
				"error":  "Invalid amount: 0",
			},
		},
	})
	if e.Status != "failed" || e.Error != "Invalid amount: 0" {
		t.Errorf("Expected failed trade error, got %+v", e)
	}
}

func TestAppendTradeWritesSublog(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AGENT_LOG_DIR", dir)

	err := AppendTrade(TradeEntry{
		Symbol:  "BTC",
		Side:    "buy",
		OrderID: "SIM-2",
		Size:    0.002,
		Price:   48000,
		Amount:  100,
		DryRun:  true,
	})
	if err != nil {
		t.Fatalf("AppendTrade failed: %v", err)
	}

	p := filepath.Join(dir, "trades", time.Now().UTC().Format("2006-01-02")+".jsonl")
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("Expected trades sublog: %v", err)
	}
	var got TradeEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &got); err != nil {
		t.Fatalf("Trade line is not JSON: %v", err)
	}
	if got.OrderID != "SIM-2" || got.Side != "buy" {
		t.Errorf("Unexpected trade entry: %+v", got)
	}
}

func TestTradeFromResult(t *testing.T) {
	result := map[string]any{
		"tool_results": map[string]map[string]any{
			"TradingExecutionTool_execute_trade": {
				"symbol":    "ETH",
				"direction": "SHORT",
				"status":    "executed",
				"order_id":  "SIM-3",
				"size":      0.05,
				"price":     2000.0,
				"amount":    100.0,
				"dry_run":   true,
			},
		},
	}

	e, ok := TradeFromResult(result)
	if !ok {
		t.Fatal("Expected an executed trade")
	}
	if e.Side != "sell" {
		t.Errorf("Expected SHORT to map to sell, got %q", e.Side)
	}
	if e.Symbol != "ETH" || e.OrderID != "SIM-3" || !e.DryRun {
		t.Errorf("Unexpected entry: %+v", e)
	}
}

func TestTradeFromResultSkipsNonExecuted(t *testing.T) {
	result := map[string]any{
		"tool_results": map[string]map[string]any{
			"TradingExecutionTool_execute_trade": {
				"status": "not_executed",
				"reason": "Neutral recommendation",
			},
		},
	}
	if _, ok := TradeFromResult(result); ok {
		t.Error("Expected no trade entry for a neutral result")
	}
	if _, ok := TradeFromResult(map[string]any{}); ok {
		t.Error("Expected no trade entry without tool results")
	}
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AGENT_LOG_DIR", dir)

	old := filepath.Join(dir, "2026-01-01.jsonl")
	if err := os.WriteFile(old, []byte(`{"RunID":"old"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}

	fresh := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".jsonl")
	if err := os.WriteFile(fresh, []byte(`{"RunID":"new"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CompressOlder(7); err != nil {
		t.Fatalf("CompressOlder failed: %v", err)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("Expected old log to be removed after compression")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("Expected fresh log to be left alone")
	}

	gz, err := os.Open(old + ".gz")
	if err != nil {
		t.Fatalf("Expected compressed log: %v", err)
	}
	defer gz.Close()
	r, err := gzip.NewReader(gz)
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"old"`) {
		t.Errorf("Compressed content mismatch: %s", data)
	}
}

func TestCompressOlderDisabled(t *testing.T) {
	t.Setenv("AGENT_LOG_DIR", t.TempDir())
	if err := CompressOlder(0); err != nil {
		t.Errorf("Expected no-op, got %v", err)
	}
}
