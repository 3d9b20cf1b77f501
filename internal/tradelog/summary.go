package tradelog

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

type summaryRow struct {
	Symbol       string
	Buys         int
	BuyNotional  float64
	Sells        int
	SellNotional float64
}

func summaryCSVPath(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(logDir(), "summary", d+".csv")
}

// SummarizeDay aggregates the day's trade log into a per-symbol CSV and
// returns its path. Returns "" when there is nothing to summarize.
func SummarizeDay(t time.Time) (string, error) {
	inPath := tradesFilepath(t)
	if _, err := os.Stat(inPath); err != nil {
		return "", nil
	}
	f, err := os.Open(inPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	rows := map[string]*summaryRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e TradeEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		row := rows[e.Symbol]
		if row == nil {
			row = &summaryRow{Symbol: e.Symbol}
			rows[e.Symbol] = row
		}
		switch e.Side {
		case "buy":
			row.Buys++
			row.BuyNotional += e.Amount
		case "sell":
			row.Sells++
			row.SellNotional += e.Amount
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := summaryCSVPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()
	if err := w.Write([]string{"symbol", "buys", "buy_notional", "sells", "sell_notional"}); err != nil {
		return "", err
	}
	var totalBuy, totalSell float64
	for _, k := range keys {
		r := rows[k]
		rec := []string{
			r.Symbol,
			strconv.Itoa(r.Buys),
			fmt.Sprintf("%.2f", r.BuyNotional),
			strconv.Itoa(r.Sells),
			fmt.Sprintf("%.2f", r.SellNotional),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		totalBuy += r.BuyNotional
		totalSell += r.SellNotional
	}
	_ = w.Write([]string{"TOTAL", "", fmt.Sprintf("%.2f", totalBuy), "", fmt.Sprintf("%.2f", totalSell)})
	return outPath, nil
}

// SummarizeToday summarizes the current UTC day.
func SummarizeToday() (string, error) { return SummarizeDay(time.Now().UTC()) }
