package execution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"llm-trading-agent/internal/decision"
	"llm-trading-agent/internal/interfaces"
	"llm-trading-agent/internal/logger"
	"llm-trading-agent/internal/store"
	"llm-trading-agent/internal/tools"
	"llm-trading-agent/internal/types"
)

// defaultFallbackPrice prices symbols missing from the fallback table.
const defaultFallbackPrice = 100.0

// Engine converts a decision or an explicit direction into a sized, priced
// order. Every failure mode is returned as a structured result; ExecuteTrade
// never returns a Go error to the dispatcher.
type Engine struct {
	exch           interfaces.Exchange
	minNotional    decimal.Decimal
	notionalBuffer decimal.Decimal
	slippage       float64
	stopLossPct    float64
	takeProfitPct  float64
	largeAmount    float64
	fallbackPrices map[string]float64
	retries        int
	retryWait      time.Duration
}

// New builds the execution engine. exch may be nil, in which case all orders
// are simulated locally.
func New(exch interfaces.Exchange, cfg *store.Config) *Engine {
	return &Engine{
		exch:           exch,
		minNotional:    decimal.NewFromFloat(cfg.Execution.MinNotional),
		notionalBuffer: decimal.NewFromFloat(cfg.Execution.NotionalBuffer),
		slippage:       cfg.Exchange.Slippage,
		stopLossPct:    cfg.Execution.StopLossPct,
		takeProfitPct:  cfg.Execution.TakeProfitPct,
		largeAmount:    cfg.Execution.LargeAmount,
		fallbackPrices: cfg.Exchange.FallbackPrices,
		retries:        2,
		retryWait:      time.Second,
	}
}

func (e *Engine) Spec() tools.CapabilitySpec {
	return tools.CapabilitySpec{
		Name:        "TradingExecutionTool",
		Description: "Executes cryptocurrency trades based on gathered data or an explicit direction",
		Methods: []tools.MethodSpec{{
			Name:        "execute_trade",
			Description: "Execute a trade for a symbol",
			Params: []tools.ParamSpec{
				{Name: "symbol", Type: "string", Description: "Cryptocurrency symbol to trade", Required: true},
				{Name: "direction", Type: "string", Description: "LONG, SHORT or NEUTRAL; omit to decide from gathered data"},
				{Name: "amount", Type: "number", Description: "Total dollar amount available for the trade"},
				{Name: "dry_run", Type: "boolean", Description: "Simulate instead of placing a live order"},
				{Name: "market_data", Type: "object", Description: "Pre-fetched market data"},
				{Name: "sentiment_data", Type: "object", Description: "Pre-fetched sentiment data"},
			},
			Run: e.ExecuteTrade,
		}},
	}
}

// ExecuteTrade resolves direction, price and size, then places one market
// order. The result always exposes status, price, size, amount and timestamp.
func (e *Engine) ExecuteTrade(ctx context.Context, args map[string]any) (map[string]any, error) {
	symbol := FormatSymbol(tools.StringArg(args, "symbol"))
	amount, _ := tools.FloatArg(args, "amount")
	dryRun := tools.BoolArg(args, "dry_run", true)
	marketData := tools.MapArg(args, "market_data")
	sentimentData := tools.MapArg(args, "sentiment_data")

	logger.Info(ctx, "Trade execution requested", "symbol", symbol, "amount", amount, "dry_run", dryRun)

	if amount > e.largeAmount {
		logger.Warn(ctx, "Amount seems unusually large, double-check the request", "symbol", symbol, "amount", amount)
	}

	var d types.Decision
	if raw := tools.StringArg(args, "direction"); raw != "" {
		dir := strings.ToUpper(strings.TrimSpace(raw))
		if dir != "LONG" && dir != "SHORT" && dir != "NEUTRAL" {
			return e.failed(symbol, dir, amount, fmt.Sprintf("Invalid direction: %s", raw)), nil
		}
		d = types.Decision{Direction: dir, Confidence: 1.0, Reasoning: "Using explicitly provided direction"}
	} else {
		d = decision.Decide(marketData, sentimentData)
	}

	logger.Decision(ctx, symbol, d.Direction, d.Confidence, d.Reasoning)

	if d.Direction == "NEUTRAL" {
		return map[string]any{
			"symbol":     symbol,
			"direction":  "NEUTRAL",
			"status":     "not_executed",
			"reason":     "Neutral recommendation",
			"reasoning":  d.Reasoning,
			"confidence": d.Confidence,
			"price":      0.0,
			"size":       0.0,
			"amount":     amount,
			"timestamp":  time.Now().Unix(),
		}, nil
	}

	if amount <= 0 {
		return e.failed(symbol, d.Direction, amount, fmt.Sprintf("Invalid amount: %v", amount)), nil
	}

	minNotional := e.minNotional.InexactFloat64()
	if !dryRun && amount < minNotional {
		return e.failed(symbol, d.Direction, amount,
			fmt.Sprintf("Amount $%.2f is below the minimum order value of $%.2f", amount, minNotional)), nil
	}

	price, source := e.resolvePrice(ctx, symbol, marketData)
	if price <= 0 {
		return e.failed(symbol, d.Direction, amount, fmt.Sprintf("Could not get price for %s", symbol)), nil
	}
	if source == "fallback" && !dryRun {
		return e.failed(symbol, d.Direction, amount,
			fmt.Sprintf("No live price available for %s, refusing to trade on a fallback price", symbol)), nil
	}

	priceDec := decimal.NewFromFloat(price)
	units := decimal.NewFromFloat(amount).DivRound(priceDec, 4)

	if units.Mul(priceDec).LessThan(e.minNotional) {
		adjusted := e.notionalBuffer.DivRound(priceDec, 4)
		logger.Risk(ctx, symbol, "notional_adjusted",
			"size", units.String(), "adjusted", adjusted.String())
		units = adjusted
	}

	size, _ := units.Float64()

	side := "buy"
	if d.Direction == "SHORT" {
		side = "sell"
	}

	resp, err := e.placeOrder(ctx, symbol, side, size, price, dryRun)
	if err != nil {
		logger.ErrorWithErr(ctx, "Order placement failed", err, "symbol", symbol, "side", side)
		return e.failed(symbol, d.Direction, amount, err.Error()), nil
	}

	logger.Trade(ctx, symbol, side, size, price, resp.OrderID, "dry_run", dryRun)

	stopLoss := price * (1 - e.stopLossPct)
	takeProfit := price * (1 + e.takeProfitPct)
	if d.Direction == "SHORT" {
		stopLoss = price * (1 + e.stopLossPct)
		takeProfit = price * (1 - e.takeProfitPct)
	}

	result := map[string]any{
		"symbol":            symbol,
		"direction":         d.Direction,
		"status":            "executed",
		"order_id":          resp.OrderID,
		"order_status":      resp.Status,
		"size":              size,
		"price":             price,
		"amount":            amount,
		"dry_run":           dryRun,
		"confidence":        d.Confidence,
		"reasoning":         d.Reasoning,
		"stop_loss_price":   stopLoss,
		"take_profit_price": takeProfit,
		"timestamp":         time.Now().Unix(),
	}
	if source == "fallback" {
		result["price_source"] = "fallback"
	}
	return result, nil
}

// resolvePrice prefers a price carried in matching pre-fetched market data,
// then a bounded-retry live lookup, then the constant fallback table. The
// returned source tags which path produced the price.
func (e *Engine) resolvePrice(ctx context.Context, symbol string, marketData map[string]any) (float64, string) {
	if marketData != nil {
		if FormatSymbol(tools.StringArg(marketData, "symbol")) == symbol {
			if p, ok := tools.FloatArg(marketData, "current_price"); ok && p > 0 {
				logger.Debug(ctx, "Using pre-fetched price", "symbol", symbol, "price", p)
				return p, "market_data"
			}
		}
	}

	if e.exch != nil {
		for attempt := 0; attempt < e.retries; attempt++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return 0, "none"
				case <-time.After(e.retryWait):
				}
			}
			p, err := e.exch.Price(ctx, symbol)
			if err == nil && p > 0 {
				return p, "live"
			}
			logger.Warn(ctx, "Live price lookup failed", "symbol", symbol, "attempt", attempt+1, "error", err)
		}
	}

	p, ok := e.fallbackPrices[symbol]
	if !ok {
		p = defaultFallbackPrice
	}
	logger.Warn(ctx, "Using fallback price", "symbol", symbol, "price", p)
	return p, "fallback"
}

// placeOrder hands the order to the exchange, or synthesizes a simulated
// fill when no venue is configured.
func (e *Engine) placeOrder(ctx context.Context, symbol, side string, size, price float64, dryRun bool) (types.OrderResponse, error) {
	if e.exch == nil {
		msg := "dry-run"
		if !dryRun {
			msg = "simulated (no venue configured)"
		}
		return types.OrderResponse{
			OrderID:    fmt.Sprintf("SIM-%d", time.Now().UnixNano()),
			Status:     "simulated",
			Message:    msg,
			FilledSize: size,
			AvgPrice:   price,
		}, nil
	}

	return e.exch.PlaceOrder(ctx, types.OrderRequest{
		Symbol:   symbol,
		Side:     side,
		Type:     "market",
		Size:     size,
		Price:    price,
		Slippage: e.slippage,
		DryRun:   dryRun,
	})
}

func (e *Engine) failed(symbol, direction string, amount float64, msg string) map[string]any {
	return map[string]any{
		"symbol":    symbol,
		"direction": direction,
		"status":    "failed",
		"error":     msg,
		"price":     0.0,
		"size":      0.0,
		"amount":    amount,
		"timestamp": time.Now().Unix(),
	}
}
