package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"llm-trading-agent/internal/agent"
	"llm-trading-agent/internal/agent/agentobs"
	"llm-trading-agent/internal/exchange"
	"llm-trading-agent/internal/execution"
	"llm-trading-agent/internal/interfaces"
	"llm-trading-agent/internal/llm/llmobs"
	"llm-trading-agent/internal/llm/noop"
	"llm-trading-agent/internal/llm/openai"
	"llm-trading-agent/internal/logger"
	"llm-trading-agent/internal/market"
	"llm-trading-agent/internal/news"
	"llm-trading-agent/internal/sentiment"
	"llm-trading-agent/internal/store"
	"llm-trading-agent/internal/tools"
	"llm-trading-agent/internal/trace"
	"llm-trading-agent/internal/tradelog"

	"github.com/joho/godotenv"
)

// initializeSystem initializes environment, logger and tracer
func initializeSystem(debug bool) error {
	// Load environment variables
	_ = godotenv.Load()

	logConfig := logger.LoadConfigFromEnv()
	if debug {
		logConfig.Level = "DEBUG"
		logConfig.DetailedLogging = true
	}
	if err := logger.InitWithConfig(logConfig); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init("llm-trading-agent", "0.1.0"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old session logs if retention is configured
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("AGENT_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// initializeExchange builds the venue client, or nil when no venue is
// configured. The factory already wraps it with observability.
func initializeExchange(ctx context.Context, cfg *store.Config) interfaces.Exchange {
	exch := exchange.New(ctx, cfg)
	if exch == nil {
		logger.Info(ctx, "No exchange configured - market data will be synthetic and orders simulated")
	}
	return exch
}

// initializeCatalog registers the capability set the model may call
func initializeCatalog(ctx context.Context, cfg *store.Config, exch interfaces.Exchange) (*tools.Catalog, error) {
	caps := []tools.Capability{
		market.New(exch),
		sentiment.New(cfg.Sentiment.MinTweets, cfg.Sentiment.MaxTweets),
		execution.New(exch, cfg),
	}
	if cfg.News.Enabled {
		logger.Info(ctx, "News headlines tool enabled")
		caps = append(caps, news.New(cfg))
	}
	return tools.NewCatalog(ctx, caps...)
}

// initializeModel initializes the chat model with observability
func initializeModel(ctx context.Context, cfg *store.Config) interfaces.ChatModel {
	switch strings.ToUpper(cfg.Agent.Provider) {
	case "OPENAI":
		model, err := openai.NewChatModel(cfg)
		if err == nil {
			return llmobs.Wrap(model)
		}
		logger.Warn(ctx, "Failed to build OpenAI model, falling back to noop", "error", err)
	default:
		logger.Warn(ctx, "No LLM provider configured - using noop model")
	}
	return llmobs.Wrap(noop.NewChatModel())
}

// initializeRunner initializes the agent with observability
func initializeRunner(cfg *store.Config, catalog *tools.Catalog, model interfaces.ChatModel) (interfaces.Runner, error) {
	invoker := tools.NewInvoker(catalog)
	runner, err := agent.New(cfg, catalog, invoker, model)
	if err != nil {
		return nil, err
	}
	return agentobs.Wrap(runner), nil
}
