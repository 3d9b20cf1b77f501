package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var mu sync.Mutex

// SessionEntry is one agent run appended to the daily JSONL file.
type SessionEntry struct {
	Time, RunID, Prompt, Symbol string
	DryRun                      bool
	Direction, Status, OrderID  string
	Amount, Price, Size         float64
	Confidence                  float64
	Elapsed                     float64
	Error                       string `json:",omitempty"`
}

// TradeEntry records an executed order in the trades sublog.
type TradeEntry struct {
	Time, Symbol, Side, OrderID string
	Size, Price, Amount         float64
	DryRun                      bool
}

func logDir() string {
	if v := os.Getenv("AGENT_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(logDir(), d+".jsonl")
}

func tradesFilepath(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(logDir(), "trades", d+".jsonl")
}

// Append writes the entry to today's session log, stamping the time.
func Append(e SessionEntry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format("2006-01-02 15:04:05")
	return writeLine(dailyFilepath(now), e)
}

// AppendTrade writes the entry to today's trade log, stamping the time.
func AppendTrade(e TradeEntry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format("2006-01-02 15:04:05")
	return writeLine(tradesFilepath(now), e)
}

func writeLine(p string, e any) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(e)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips session logs older than retentionDays and removes the
// originals. A non-positive retention disables compression.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(p) != ".jsonl" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil {
			return nil
		}
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		if info.ModTime().Before(cutoff) {
			gz := p + ".gz"
			// if already gz exists, remove original .jsonl
			if _, e2 := os.Stat(gz); e2 == nil {
				_ = os.Remove(p)
				return nil
			}

			in, e3 := os.Open(p)
			if e3 != nil {
				return nil
			}
			defer in.Close()

			out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if e4 != nil {
				return nil
			}
			gw := gzip.NewWriter(out)
			if _, e5 := io.Copy(gw, in); e5 == nil {
				_ = gw.Close()
				_ = out.Close()
				_ = os.Remove(p)
			} else {
				_ = gw.Close()
				_ = out.Close()
			}
		}
		return nil
	})
}

// FromResult maps an agent run result onto a session entry. Missing or
// mistyped fields are simply left zero.
func FromResult(result map[string]any) SessionEntry {
	e := SessionEntry{
		RunID:   stringField(result, "run_id"),
		Prompt:  stringField(result, "prompt"),
		Symbol:  stringField(result, "symbol"),
		Elapsed: floatField(result, "elapsed_time"),
		Error:   stringField(result, "error"),
	}
	if b, ok := result["dry_run"].(bool); ok {
		e.DryRun = b
	}
	if a, ok := result["amount"].(float64); ok {
		e.Amount = a
	}

	trade := tradeResult(result)
	if trade == nil {
		return e
	}
	e.Direction = stringField(trade, "direction")
	e.Status = stringField(trade, "status")
	e.OrderID = stringField(trade, "order_id")
	e.Price = floatField(trade, "price")
	e.Size = floatField(trade, "size")
	e.Confidence = floatField(trade, "confidence")
	if e.Error == "" {
		e.Error = stringField(trade, "error")
	}
	return e
}

// TradeFromResult maps an executed trade onto a trade entry. The second
// return is false when the run placed no order.
func TradeFromResult(result map[string]any) (TradeEntry, bool) {
	trade := tradeResult(result)
	if trade == nil || stringField(trade, "status") != "executed" {
		return TradeEntry{}, false
	}
	side := "buy"
	if stringField(trade, "direction") == "SHORT" {
		side = "sell"
	}
	e := TradeEntry{
		Symbol:  stringField(trade, "symbol"),
		Side:    side,
		OrderID: stringField(trade, "order_id"),
		Size:    floatField(trade, "size"),
		Price:   floatField(trade, "price"),
		Amount:  floatField(trade, "amount"),
	}
	if b, ok := trade["dry_run"].(bool); ok {
		e.DryRun = b
	}
	return e, true
}

// tradeResult digs the execution tool's result out of tool_results.
func tradeResult(result map[string]any) map[string]any {
	results, ok := result["tool_results"].(map[string]map[string]any)
	if ok {
		for key, r := range results {
			if strings.HasPrefix(key, "TradingExecutionTool") {
				return r
			}
		}
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func floatField(m map[string]any, key string) float64 {
	if f, ok := m[key].(float64); ok {
		return f
	}
	return 0
}
