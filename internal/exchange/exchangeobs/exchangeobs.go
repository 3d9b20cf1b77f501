package exchangeobs

import (
	"context"

	"llm-trading-agent/internal/interfaces"
	"llm-trading-agent/internal/logger"
	"llm-trading-agent/internal/trace"
	"llm-trading-agent/internal/types"
)

// observableExchange wraps an Exchange with observability (logging & tracing)
type observableExchange struct {
	exchange interfaces.Exchange
}

// Compile-time interface check
var _ interfaces.Exchange = (*observableExchange)(nil)

// Wrap wraps an exchange with observability middleware
func Wrap(exchange interfaces.Exchange) interfaces.Exchange {
	return &observableExchange{
		exchange: exchange,
	}
}

// Price returns the current price with observability
func (oe *observableExchange) Price(ctx context.Context, symbol string) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.Price")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching price", "symbol", symbol)

	price, err := oe.exchange.Price(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch price", err, "symbol", symbol)
		return 0, err
	}

	logger.DebugSkip(ctx, 1, "Price fetched successfully", "symbol", symbol, "price", price)
	return price, nil
}

// Candles fetches candles with observability
func (oe *observableExchange) Candles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.Candles")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching candles", "symbol", symbol, "interval", interval, "limit", limit)

	candles, err := oe.exchange.Candles(ctx, symbol, interval, limit)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch candles", err, "symbol", symbol, "limit", limit)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Candles fetched successfully", "symbol", symbol, "count", len(candles))
	return candles, nil
}

// PlaceOrder places an order with observability
func (oe *observableExchange) PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResponse, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.PlaceOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"symbol", req.Symbol,
		"side", req.Side,
		"size", req.Size,
		"dry_run", req.DryRun,
	)

	resp, err := oe.exchange.PlaceOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"symbol", req.Symbol,
			"side", req.Side,
			"size", req.Size,
		)
		return types.OrderResponse{}, err
	}

	logger.InfoSkip(ctx, 1, "Order placed",
		"symbol", req.Symbol,
		"side", req.Side,
		"order_id", resp.OrderID,
		"status", resp.Status,
	)
	return resp, nil
}

// Balance fetches the account balance with observability
func (oe *observableExchange) Balance(ctx context.Context) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.Balance")
	defer span.End()

	balance, err := oe.exchange.Balance(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch balance", err)
		return 0, err
	}

	logger.DebugSkip(ctx, 1, "Balance fetched successfully", "balance", balance)
	return balance, nil
}
