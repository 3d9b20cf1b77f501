package interfaces

import (
	"context"

	"llm-trading-agent/internal/types"
)

// Exchange is the venue adapter used for live prices, candles and orders.
type Exchange interface {
	Price(ctx context.Context, symbol string) (float64, error)
	Candles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error)
	PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResponse, error)
	Balance(ctx context.Context) (float64, error)
}
