package store

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Agent struct {
		Provider      string  `yaml:"provider"`
		Model         string  `yaml:"model"`
		Temperature   float64 `yaml:"temperature"`
		MaxTokens     int     `yaml:"max_tokens"`
		MaxTurns      int     `yaml:"max_turns"`
		MaxRetries    int     `yaml:"max_retries"`
		DefaultSymbol string  `yaml:"default_symbol"`
		DefaultAmount float64 `yaml:"default_amount"`
	} `yaml:"agent"`
	Exchange struct {
		APIURL         string             `yaml:"api_url"`
		TimeoutSeconds int                `yaml:"timeout_seconds"`
		Slippage       float64            `yaml:"slippage"`
		RetryAttempts  int                `yaml:"retry_attempts"`
		RetryDelaySecs int                `yaml:"retry_delay_seconds"`
		CandleCache    int                `yaml:"candle_cache_size"`
		FallbackPrices map[string]float64 `yaml:"fallback_prices"`
	} `yaml:"exchange"`
	Execution struct {
		MinNotional    float64 `yaml:"min_notional"`
		NotionalBuffer float64 `yaml:"notional_buffer"`
		StopLossPct    float64 `yaml:"stop_loss_pct"`
		TakeProfitPct  float64 `yaml:"take_profit_pct"`
		LargeAmount    float64 `yaml:"large_amount_warning"`
	} `yaml:"execution"`
	Sentiment struct {
		MinTweets int `yaml:"min_tweets"`
		MaxTweets int `yaml:"max_tweets"`
	} `yaml:"sentiment"`
	News struct {
		Enabled        bool `yaml:"enabled"`
		MaxHeadlines   int  `yaml:"max_headlines"`
		TimeoutSeconds int  `yaml:"timeout_seconds"`
	} `yaml:"news"`
}

func (c *Config) Validate() error {
	provider := strings.ToUpper(c.Agent.Provider)
	if provider != "OPENAI" && provider != "NOOP" {
		return fmt.Errorf("invalid agent.provider '%s': must be 'OPENAI' or 'NOOP'", c.Agent.Provider)
	}
	if c.Agent.Temperature < 0 || c.Agent.Temperature > 2 {
		return fmt.Errorf("agent.temperature must be between 0-2, got %.2f", c.Agent.Temperature)
	}
	if c.Agent.MaxTurns < 1 || c.Agent.MaxTurns > 20 {
		return fmt.Errorf("agent.max_turns must be between 1-20, got %d", c.Agent.MaxTurns)
	}
	if c.Agent.DefaultAmount <= 0 {
		return fmt.Errorf("agent.default_amount must be positive, got %.2f", c.Agent.DefaultAmount)
	}
	if c.Execution.MinNotional <= 0 {
		return fmt.Errorf("execution.min_notional must be positive, got %.2f", c.Execution.MinNotional)
	}
	if c.Execution.NotionalBuffer < c.Execution.MinNotional {
		return fmt.Errorf("execution.notional_buffer %.2f must not be below min_notional %.2f",
			c.Execution.NotionalBuffer, c.Execution.MinNotional)
	}
	if c.Sentiment.MinTweets <= 0 || c.Sentiment.MaxTweets < c.Sentiment.MinTweets {
		return fmt.Errorf("sentiment tweet bounds invalid: min=%d max=%d", c.Sentiment.MinTweets, c.Sentiment.MaxTweets)
	}
	return nil
}

// Default returns the configuration used when no config file is present.
// The agent is expected to run from flags alone, the way a CLI tool should.
func Default() *Config {
	var c Config
	applyDefaults(&c)
	return &c
}

func applyDefaults(c *Config) {
	if c.Agent.Provider == "" {
		c.Agent.Provider = "OPENAI"
	}
	if c.Agent.Model == "" {
		c.Agent.Model = "gpt-4o"
	}
	if c.Agent.Temperature == 0 {
		c.Agent.Temperature = 0.1
	}
	if c.Agent.MaxTokens == 0 {
		c.Agent.MaxTokens = 1024
	}
	if c.Agent.MaxTurns == 0 {
		c.Agent.MaxTurns = 5
	}
	if c.Agent.MaxRetries == 0 {
		c.Agent.MaxRetries = 3
	}
	if c.Agent.DefaultSymbol == "" {
		c.Agent.DefaultSymbol = "BTC"
	}
	if c.Agent.DefaultAmount == 0 {
		c.Agent.DefaultAmount = 100.0
	}
	if c.Exchange.TimeoutSeconds == 0 {
		c.Exchange.TimeoutSeconds = 30
	}
	if c.Exchange.Slippage == 0 {
		c.Exchange.Slippage = 0.01
	}
	if c.Exchange.RetryAttempts == 0 {
		c.Exchange.RetryAttempts = 2
	}
	if c.Exchange.RetryDelaySecs == 0 {
		c.Exchange.RetryDelaySecs = 1
	}
	if c.Exchange.CandleCache == 0 {
		c.Exchange.CandleCache = 500
	}
	if c.Exchange.FallbackPrices == nil {
		c.Exchange.FallbackPrices = map[string]float64{
			"BTC": 35000.0,
			"ETH": 2000.0,
			"SOL": 100.0,
		}
	}
	if c.Execution.MinNotional == 0 {
		c.Execution.MinNotional = 10.0
	}
	if c.Execution.NotionalBuffer == 0 {
		c.Execution.NotionalBuffer = 10.5
	}
	if c.Execution.StopLossPct == 0 {
		c.Execution.StopLossPct = 0.02
	}
	if c.Execution.TakeProfitPct == 0 {
		c.Execution.TakeProfitPct = 0.04
	}
	if c.Execution.LargeAmount == 0 {
		c.Execution.LargeAmount = 1000.0
	}
	if c.Sentiment.MinTweets == 0 {
		c.Sentiment.MinTweets = 100
	}
	if c.Sentiment.MaxTweets == 0 {
		c.Sentiment.MaxTweets = 300
	}
	if c.News.MaxHeadlines == 0 {
		c.News.MaxHeadlines = 12
	}
	if c.News.TimeoutSeconds == 0 {
		c.News.TimeoutSeconds = 10
	}
}

// LoadConfig reads the YAML config at path, falling back to defaults when
// the file does not exist. Environment overrides for endpoints and keys are
// read where they are used, not here.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		if verr := cfg.Validate(); verr != nil {
			return nil, fmt.Errorf("default config validation failed: %w", verr)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
