package market

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"llm-trading-agent/internal/interfaces"
	"llm-trading-agent/internal/logger"
	"llm-trading-agent/internal/ta"
	"llm-trading-agent/internal/tools"
	"llm-trading-agent/internal/types"
)

// candleWindow is the number of candles fetched for indicator calculation.
const candleWindow = 100

// Tool exposes market data as a dispatchable capability. With no exchange
// configured it serves synthetic data; otherwise it fetches live prices and
// candles and computes indicators from them.
type Tool struct {
	exch      interfaces.Exchange
	synth     *synthesizer
	retries   int
	retryWait time.Duration
}

func New(exch interfaces.Exchange) *Tool {
	return &Tool{
		exch:      exch,
		synth:     newSynthesizer(time.Now().UnixNano()),
		retries:   2,
		retryWait: time.Second,
	}
}

func (t *Tool) Spec() tools.CapabilitySpec {
	return tools.CapabilitySpec{
		Name:        "MarketDataTool",
		Description: "Fetches current market data for a cryptocurrency: price, 24h stats and technical indicators",
		Methods: []tools.MethodSpec{{
			Name:        "get_market_data",
			Description: "Get current market data for a symbol",
			Params: []tools.ParamSpec{
				{Name: "symbol", Type: "string", Description: "Cryptocurrency symbol, e.g. BTC", Required: true},
				{Name: "timeframe", Type: "string", Description: "Candle timeframe: 1m, 5m, 15m, 1h, 4h or 1d"},
			},
			Run: t.GetMarketData,
		}},
	}
}

// GetMarketData returns market data for a symbol. Failures are reported
// inside the result map so the conversation can react to them.
func (t *Tool) GetMarketData(ctx context.Context, args map[string]any) (map[string]any, error) {
	symbol := strings.ToUpper(strings.TrimSpace(tools.StringArg(args, "symbol")))
	timeframe := tools.StringArg(args, "timeframe")
	if timeframe == "" {
		timeframe = "1h"
	}

	if t.exch == nil {
		logger.Info(ctx, "Using synthetic market data", "symbol", symbol, "timeframe", timeframe)
		return t.synth.marketData(symbol, timeframe), nil
	}

	logger.Info(ctx, "Fetching market data", "symbol", symbol, "timeframe", timeframe)

	price, err := t.fetchPrice(ctx, symbol)
	if err != nil {
		logger.ErrorWithErr(ctx, "Market info fetch failed", err, "symbol", symbol)
		return errorResult(symbol, fmt.Sprintf("Failed to fetch market info for %s", symbol)), nil
	}

	candles, err := t.fetchCandles(ctx, symbol, timeframe)
	if err != nil || len(candles) == 0 {
		logger.ErrorWithErr(ctx, "Candle fetch failed", err, "symbol", symbol)
		return errorResult(symbol, fmt.Sprintf("Failed to fetch candle data for %s", symbol)), nil
	}

	change, volume := dayStats(candles, timeframe)

	// The venue API carries no funding or open-interest data; keep the keys
	// so consumers see one shape in both modes.
	return map[string]any{
		"symbol":             symbol,
		"current_price":      price,
		"24h_change_percent": change,
		"24h_volume":         volume,
		"funding_rate":       0.0,
		"open_interest":      0.0,
		"timeframe":          timeframe,
		"indicators":         indicators(candles),
		"timestamp":          time.Now().Unix(),
	}, nil
}

func (t *Tool) fetchPrice(ctx context.Context, symbol string) (float64, error) {
	var lastErr error
	for attempt := 0; attempt < t.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(t.retryWait):
			}
		}
		price, err := t.exch.Price(ctx, symbol)
		if err != nil {
			lastErr = err
			continue
		}
		return price, nil
	}
	return 0, lastErr
}

func (t *Tool) fetchCandles(ctx context.Context, symbol, timeframe string) ([]types.Candle, error) {
	var lastErr error
	for attempt := 0; attempt < t.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(t.retryWait):
			}
		}
		candles, err := t.exch.Candles(ctx, symbol, timeframe, candleWindow)
		if err != nil {
			lastErr = err
			continue
		}
		return candles, nil
	}
	return nil, lastErr
}

var periodsPerDay = map[string]int{
	"1m":  1440,
	"5m":  288,
	"15m": 96,
	"1h":  24,
	"4h":  6,
	"1d":  1,
}

// dayStats derives the 24h change and volume from the candle window, clamped
// to the window when the lookback reaches past its start.
func dayStats(candles []types.Candle, timeframe string) (changePct, volume float64) {
	lookback := periodsPerDay[timeframe]
	if lookback == 0 {
		lookback = 24
	}
	if lookback > len(candles)-1 {
		lookback = len(candles) - 1
	}

	last := candles[len(candles)-1].Close
	if lookback > 0 {
		ref := candles[len(candles)-1-lookback].Close
		if ref > 0 {
			changePct = (last - ref) / ref * 100
		}
	}

	for _, c := range candles[len(candles)-1-lookback:] {
		volume += c.Vol
	}
	return changePct, volume
}

func indicators(candles []types.Candle) map[string]any {
	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i], highs[i], lows[i] = c.Close, c.High, c.Low
	}

	out := map[string]any{}
	put := func(key string, v float64) {
		if !math.IsNaN(v) {
			out[key] = v
		}
	}

	put("sma_20", ta.SMA(closes, 20))
	put("sma_50", ta.SMA(closes, 50))
	put("ema_12", ta.EMA(closes, 12))
	put("ema_26", ta.EMA(closes, 26))
	macd, signal, hist := ta.MACD(closes)
	put("macd", macd)
	put("macd_signal", signal)
	put("macd_hist", hist)
	put("rsi_14", ta.RSI(closes, 14))
	mid, up, low := ta.Bollinger(closes, 20, 2)
	put("bb_upper", up)
	put("bb_middle", mid)
	put("bb_lower", low)
	put("atr_14", ta.ATR(highs, lows, closes, 14))
	return out
}

func errorResult(symbol, message string) map[string]any {
	return map[string]any{
		"symbol":    symbol,
		"status":    "error",
		"message":   message,
		"timestamp": time.Now().Unix(),
	}
}
