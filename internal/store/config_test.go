package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Agent.Provider != "OPENAI" {
		t.Errorf("Expected provider OPENAI, got %s", cfg.Agent.Provider)
	}
	if cfg.Agent.Model != "gpt-4o" {
		t.Errorf("Expected model gpt-4o, got %s", cfg.Agent.Model)
	}
	if cfg.Agent.Temperature != 0.1 {
		t.Errorf("Expected temperature 0.1, got %f", cfg.Agent.Temperature)
	}
	if cfg.Agent.MaxTurns != 5 {
		t.Errorf("Expected max turns 5, got %d", cfg.Agent.MaxTurns)
	}
	if cfg.Agent.DefaultSymbol != "BTC" || cfg.Agent.DefaultAmount != 100.0 {
		t.Errorf("Unexpected agent defaults: %+v", cfg.Agent)
	}
	if cfg.Execution.MinNotional != 10.0 || cfg.Execution.NotionalBuffer != 10.5 {
		t.Errorf("Unexpected execution defaults: %+v", cfg.Execution)
	}
	if cfg.Exchange.FallbackPrices["BTC"] != 35000.0 {
		t.Errorf("Expected BTC fallback 35000, got %v", cfg.Exchange.FallbackPrices["BTC"])
	}
	if cfg.News.Enabled {
		t.Error("Expected news disabled by default")
	}
	if cfg.News.MaxHeadlines != 12 {
		t.Errorf("Expected 12 max headlines, got %d", cfg.News.MaxHeadlines)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults for a missing file, got error: %v", err)
	}
	if cfg.Agent.Model != "gpt-4o" {
		t.Errorf("Expected default model, got %s", cfg.Agent.Model)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	yml := `
agent:
  provider: NOOP
  model: gpt-4o-mini
  max_turns: 3
news:
  enabled: true
  max_headlines: 5
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Agent.Provider != "NOOP" || cfg.Agent.Model != "gpt-4o-mini" || cfg.Agent.MaxTurns != 3 {
		t.Errorf("Overrides not applied: %+v", cfg.Agent)
	}
	if !cfg.News.Enabled || cfg.News.MaxHeadlines != 5 {
		t.Errorf("News overrides not applied: %+v", cfg.News)
	}
	// Untouched fields still get defaults
	if cfg.Agent.MaxTokens != 1024 {
		t.Errorf("Expected default max tokens, got %d", cfg.Agent.MaxTokens)
	}
	if cfg.Execution.MinNotional != 10.0 {
		t.Errorf("Expected default min notional, got %f", cfg.Execution.MinNotional)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	yml := `
agent:
  max_turns: 25
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if !strings.Contains(err.Error(), "max_turns") {
		t.Errorf("Expected max_turns in error, got: %v", err)
	}
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("agent: [not: valid"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown provider", func(c *Config) { c.Agent.Provider = "CLAUDE" }, "agent.provider"},
		{"temperature too high", func(c *Config) { c.Agent.Temperature = 2.5 }, "temperature"},
		{"too many turns", func(c *Config) { c.Agent.MaxTurns = 21 }, "max_turns"},
		{"negative amount", func(c *Config) { c.Agent.DefaultAmount = -5 }, "default_amount"},
		{"negative notional", func(c *Config) { c.Execution.MinNotional = -1 }, "min_notional"},
		{"buffer below notional", func(c *Config) { c.Execution.NotionalBuffer = 5 }, "notional_buffer"},
		{"tweet bounds inverted", func(c *Config) { c.Sentiment.MaxTweets = 10 }, "tweet bounds"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Expected %q in error, got: %v", tc.want, err)
			}
		})
	}
}

func TestValidateAcceptsLowercaseProvider(t *testing.T) {
	cfg := Default()
	cfg.Agent.Provider = "openai"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected lowercase provider to pass, got: %v", err)
	}
}
