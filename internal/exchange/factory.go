package exchange

import (
	"context"
	"os"
	"time"

	"llm-trading-agent/internal/exchange/exchangeobs"
	"llm-trading-agent/internal/interfaces"
	"llm-trading-agent/internal/logger"
	"llm-trading-agent/internal/store"
)

// New builds the venue client from config and environment. The API URL may
// come from EXCHANGE_API_URL or the config file; credentials only from
// EXCHANGE_API_KEY. Returns nil when no venue is configured, which keeps the
// agent on synthetic market data.
func New(ctx context.Context, cfg *store.Config) interfaces.Exchange {
	baseURL := os.Getenv("EXCHANGE_API_URL")
	if baseURL == "" {
		baseURL = cfg.Exchange.APIURL
	}
	if baseURL == "" {
		logger.Info(ctx, "No exchange configured, market data will be synthetic")
		return nil
	}

	client := NewClient(Params{
		BaseURL:   baseURL,
		APIKey:    os.Getenv("EXCHANGE_API_KEY"),
		Timeout:   time.Duration(cfg.Exchange.TimeoutSeconds) * time.Second,
		Slippage:  cfg.Exchange.Slippage,
		Retries:   cfg.Exchange.RetryAttempts,
		RetryWait: time.Duration(cfg.Exchange.RetryDelaySecs) * time.Second,
		CacheSize: cfg.Exchange.CandleCache,
	})

	logger.Info(ctx, "Exchange client ready", "base_url", baseURL, "signed", client.Signed())
	return exchangeobs.Wrap(client)
}
