package tools

import (
	"context"
	"os"
	"strings"
	"testing"

	"llm-trading-agent/internal/logger"
)

func TestMain(m *testing.M) {
	logger.InitWithConfig(logger.LogConfig{Level: "ERROR", Format: "text"})
	os.Exit(m.Run())
}

type fakeCapability struct {
	spec CapabilitySpec
}

func (f fakeCapability) Spec() CapabilitySpec { return f.spec }

func echoRun(_ context.Context, args map[string]any) (map[string]any, error) {
	return map[string]any{"args": args}, nil
}

func marketCapability() Capability {
	return fakeCapability{spec: CapabilitySpec{
		Name:        "MarketDataTool",
		Description: "Fetches market prices and indicators",
		Methods: []MethodSpec{{
			Name:        "get_market_data",
			Description: "Get current market data for a symbol",
			Params: []ParamSpec{
				{Name: "symbol", Type: "string", Description: "Trading symbol", Required: true},
				{Name: "timeframe", Type: "string", Description: "Candle timeframe"},
			},
			Run: echoRun,
		}},
	}}
}

func TestNewCatalogRequiresCapabilities(t *testing.T) {
	_, err := NewCatalog(context.Background())
	if err == nil {
		t.Fatal("expected error for empty catalog")
	}
	if !strings.Contains(err.Error(), "no tool specifications") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewCatalogDropsInvalidSpecs(t *testing.T) {
	invalid := []Capability{
		fakeCapability{spec: CapabilitySpec{Name: "", Methods: []MethodSpec{{Name: "m", Run: echoRun}}}},
		fakeCapability{spec: CapabilitySpec{Name: "Under_Score", Methods: []MethodSpec{{Name: "m", Run: echoRun}}}},
		fakeCapability{spec: CapabilitySpec{Name: "NoMethods"}},
		fakeCapability{spec: CapabilitySpec{Name: "NilRun", Methods: []MethodSpec{{Name: "m"}}}},
		fakeCapability{spec: CapabilitySpec{Name: "BadParam", Methods: []MethodSpec{{
			Name: "m", Run: echoRun,
			Params: []ParamSpec{{Name: "p", Type: "float"}},
		}}}},
	}

	catalog, err := NewCatalog(context.Background(), append(invalid, marketCapability())...)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	if catalog.Len() != 1 {
		t.Fatalf("expected 1 surviving capability, got %d", catalog.Len())
	}
	if _, _, err := catalog.Lookup("NilRun_m"); err == nil {
		t.Error("expected dropped capability to be unreachable")
	}
}

func TestNewCatalogDropsDuplicateCapability(t *testing.T) {
	catalog, err := NewCatalog(context.Background(), marketCapability(), marketCapability())
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	if catalog.Len() != 1 {
		t.Errorf("expected duplicate to be dropped, got %d capabilities", catalog.Len())
	}
}

func TestManifestShape(t *testing.T) {
	catalog, err := NewCatalog(context.Background(), marketCapability())
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	manifest := catalog.Manifest()
	if len(manifest) != 1 {
		t.Fatalf("expected 1 tool definition, got %d", len(manifest))
	}

	def := manifest[0]
	if def.Type != "function" {
		t.Errorf("expected type function, got %q", def.Type)
	}
	if def.Function.Name != "MarketDataTool_get_market_data" {
		t.Errorf("unexpected function name %q", def.Function.Name)
	}
	if def.Function.Parameters["type"] != "object" {
		t.Errorf("expected object schema, got %v", def.Function.Parameters["type"])
	}

	properties, ok := def.Function.Parameters["properties"].(map[string]any)
	if !ok {
		t.Fatal("expected properties map")
	}
	if _, ok := properties["symbol"]; !ok {
		t.Error("expected symbol property")
	}
	if _, ok := properties["timeframe"]; !ok {
		t.Error("expected timeframe property")
	}

	required, ok := def.Function.Parameters["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "symbol" {
		t.Errorf("expected required [symbol], got %v", def.Function.Parameters["required"])
	}
}

func TestManifestOmitsEmptyRequired(t *testing.T) {
	capability := fakeCapability{spec: CapabilitySpec{
		Name:        "PingTool",
		Description: "Answers pings",
		Methods: []MethodSpec{{
			Name:        "ping",
			Description: "Ping",
			Params:      []ParamSpec{{Name: "note", Type: "string", Description: "Optional note"}},
			Run:         echoRun,
		}},
	}}

	catalog, err := NewCatalog(context.Background(), capability)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	if _, present := catalog.Manifest()[0].Function.Parameters["required"]; present {
		t.Error("expected required key to be omitted when no parameter is required")
	}
}

func TestLookupErrors(t *testing.T) {
	catalog, err := NewCatalog(context.Background(), marketCapability())
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	cases := []struct {
		name    string
		wantErr string
	}{
		{"noseparator", "Invalid function name format: noseparator"},
		{"_leading", "Invalid function name format: _leading"},
		{"BogusTool_method", "Tool not found: BogusTool"},
		{"MarketDataTool_bogus", "Method not found: MarketDataTool.bogus"},
	}

	for _, tc := range cases {
		_, _, err := catalog.Lookup(tc.name)
		if err == nil {
			t.Errorf("Lookup(%q): expected error", tc.name)
			continue
		}
		if err.Error() != tc.wantErr {
			t.Errorf("Lookup(%q) = %q, want %q", tc.name, err.Error(), tc.wantErr)
		}
	}

	method, capability, err := catalog.Lookup("MarketDataTool_get_market_data")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if capability != "MarketDataTool" || method.Name != "get_market_data" {
		t.Errorf("unexpected resolution: %s.%s", capability, method.Name)
	}
}

func TestSystemPromptListsCapabilities(t *testing.T) {
	second := fakeCapability{spec: CapabilitySpec{
		Name:        "TradingExecutionTool",
		Description: "Executes trades",
		Methods:     []MethodSpec{{Name: "execute_trade", Description: "Execute a trade", Run: echoRun}},
	}}

	catalog, err := NewCatalog(context.Background(), marketCapability(), second)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	prompt := catalog.SystemPrompt()
	if !strings.Contains(prompt, "1. MarketDataTool - Fetches market prices and indicators") {
		t.Error("expected numbered MarketDataTool entry")
	}
	if !strings.Contains(prompt, "2. TradingExecutionTool - Executes trades") {
		t.Error("expected numbered TradingExecutionTool entry")
	}
	if !strings.Contains(prompt, "MUST end with a TradingExecutionTool call") {
		t.Error("expected execution rule in prompt")
	}
	if !strings.Contains(prompt, "TOTAL dollar amount") {
		t.Error("expected amount rule in prompt")
	}
}
