package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"llm-trading-agent/internal/interfaces"
	"llm-trading-agent/internal/logger"
	"llm-trading-agent/internal/types"
)

type Params struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	Slippage  float64
	Retries   int
	RetryWait time.Duration
	CacheSize int
}

// Client talks to a venue-neutral perps REST API. Orders are only sent live
// when the client is signed and the request is not a dry run; everything else
// is simulated locally.
type Client struct {
	http  *resty.Client
	p     Params
	cache *candleCache
}

var _ interfaces.Exchange = (*Client)(nil)

func NewClient(p Params) *Client {
	if p.CacheSize <= 0 {
		p.CacheSize = 500
	}
	if p.Retries <= 0 {
		p.Retries = 1
	}

	http := resty.New()
	http.SetBaseURL(p.BaseURL)
	http.SetTimeout(p.Timeout)
	http.SetHeader("Accept", "application/json")
	if p.APIKey != "" {
		http.SetAuthToken(p.APIKey)
	}

	return &Client{
		http:  http,
		p:     p,
		cache: newCandleCache(),
	}
}

// Signed reports whether the client holds venue credentials.
func (c *Client) Signed() bool {
	return c.p.APIKey != ""
}

type priceResponse struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	var out priceResponse
	err := c.withRetry(ctx, "price", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("symbol", symbol).
			Get("/v1/price")
		if err != nil {
			return fmt.Errorf("failed to fetch price for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("price API error %d: %s", resp.StatusCode(), resp.String())
		}
		return json.Unmarshal(resp.Body(), &out)
	})
	if err != nil {
		return 0, err
	}
	return out.Price, nil
}

type candleWire struct {
	Ts     int64   `json:"ts"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type candlesResponse struct {
	Symbol  string       `json:"symbol"`
	Candles []candleWire `json:"candles"`
}

func (c *Client) Candles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error) {
	var out candlesResponse
	err := c.withRetry(ctx, "candles", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"symbol":   symbol,
				"interval": interval,
				"limit":    strconv.Itoa(limit),
			}).
			Get("/v1/candles")
		if err != nil {
			return fmt.Errorf("failed to fetch candles for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("candles API error %d: %s", resp.StatusCode(), resp.String())
		}
		return json.Unmarshal(resp.Body(), &out)
	})
	if err != nil {
		// Serve the last good fetch so indicators survive a venue blip.
		if cached, cacheErr := c.cache.getRecent(symbol, limit); cacheErr == nil {
			logger.Warn(ctx, "Serving cached candles after fetch failure", "symbol", symbol, "count", len(cached), "error", err)
			return cached, nil
		}
		return nil, err
	}

	candles := make([]types.Candle, 0, len(out.Candles))
	for _, w := range out.Candles {
		candles = append(candles, types.Candle{
			Ts:    w.Ts,
			Open:  w.Open,
			High:  w.High,
			Low:   w.Low,
			Close: w.Close,
			Vol:   w.Volume,
		})
	}

	c.cache.put(symbol, candles, c.p.CacheSize)
	return candles, nil
}

type orderWire struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Type       string  `json:"type"`
	Size       float64 `json:"size"`
	Price      float64 `json:"price,omitempty"`
	Slippage   float64 `json:"slippage,omitempty"`
	ReduceOnly bool    `json:"reduce_only,omitempty"`
}

type orderResponseWire struct {
	OrderID    string  `json:"order_id"`
	Status     string  `json:"status"`
	FilledSize float64 `json:"filled_size"`
	AvgPrice   float64 `json:"avg_price"`
	Message    string  `json:"message"`
}

// PlaceOrder submits an order. Dry-run requests and unsigned clients never
// touch the network; they return a simulated fill immediately. Live orders
// are not retried to avoid double fills.
func (c *Client) PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResponse, error) {
	if req.DryRun || !c.Signed() {
		return types.OrderResponse{
			OrderID:    fmt.Sprintf("SIM-%d", time.Now().UnixNano()),
			Status:     "simulated",
			Message:    "dry-run",
			FilledSize: req.Size,
			AvgPrice:   req.Price,
		}, nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(orderWire{
			Symbol:     req.Symbol,
			Side:       req.Side,
			Type:       req.Type,
			Size:       req.Size,
			Price:      req.Price,
			Slippage:   req.Slippage,
			ReduceOnly: req.ReduceOnly,
		}).
		Post("/v1/orders")
	if err != nil {
		return types.OrderResponse{}, fmt.Errorf("failed to place order for %s: %w", req.Symbol, err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return types.OrderResponse{}, fmt.Errorf("order API error %d: %s", resp.StatusCode(), resp.String())
	}

	var out orderResponseWire
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return types.OrderResponse{}, fmt.Errorf("failed to parse order response: %w", err)
	}

	return types.OrderResponse{
		OrderID:    out.OrderID,
		Status:     out.Status,
		Message:    out.Message,
		FilledSize: out.FilledSize,
		AvgPrice:   out.AvgPrice,
	}, nil
}

type balanceResponse struct {
	Currency string  `json:"currency"`
	Balance  float64 `json:"balance"`
}

// Balance returns the account balance in quote currency. Unsigned clients
// get a fixed paper balance.
func (c *Client) Balance(ctx context.Context) (float64, error) {
	if !c.Signed() {
		return 10000, nil
	}

	var out balanceResponse
	err := c.withRetry(ctx, "balance", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			Get("/v1/account/balance")
		if err != nil {
			return fmt.Errorf("failed to fetch balance: %w", err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("balance API error %d: %s", resp.StatusCode(), resp.String())
		}
		return json.Unmarshal(resp.Body(), &out)
	})
	if err != nil {
		return 0, err
	}
	return out.Balance, nil
}

// withRetry runs fn up to the configured attempt count with a fixed wait
// between attempts. Context cancellation stops the loop.
func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < c.p.Retries; attempt++ {
		if attempt > 0 {
			logger.Debug(ctx, "Retrying exchange request", "op", op, "attempt", attempt+1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.p.RetryWait):
			}
		}

		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
