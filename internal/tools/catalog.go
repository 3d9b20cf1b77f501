package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"llm-trading-agent/internal/logger"
	"llm-trading-agent/internal/types"
)

// RunFunc executes one capability method. Arguments arrive already decoded
// and with run-scoped values injected.
type RunFunc func(ctx context.Context, args map[string]any) (map[string]any, error)

type ParamSpec struct {
	Name        string
	Type        string // string, number, integer, boolean, object, array
	Description string
	Required    bool
}

type MethodSpec struct {
	Name        string
	Description string
	Params      []ParamSpec
	Run         RunFunc
}

type CapabilitySpec struct {
	Name        string
	Description string
	Methods     []MethodSpec
}

// Capability is anything that can describe itself as a fixed set of
// dispatchable methods. Specs are declared by hand, not reflected.
type Capability interface {
	Spec() CapabilitySpec
}

var paramTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
	"object":  true,
	"array":   true,
}

type dispatchEntry struct {
	capability string
	method     MethodSpec
}

// Catalog is the closed set of callable tools for one process. It is built
// once at startup; the manifest handed to the model is cached here.
type Catalog struct {
	specs    []CapabilitySpec
	dispatch map[string]dispatchEntry
	manifest []types.ToolDef
}

// NewCatalog validates each capability spec and builds the dispatch table
// and manifest. A broken spec disables that capability with a warning; an
// empty resulting catalog is an error because the agent cannot work without
// tools.
func NewCatalog(ctx context.Context, caps ...Capability) (*Catalog, error) {
	c := &Catalog{dispatch: make(map[string]dispatchEntry)}

	seen := make(map[string]bool)
	for _, capability := range caps {
		spec := capability.Spec()
		if err := validateSpec(spec); err != nil {
			logger.Warn(ctx, "Dropping invalid capability spec", "capability", spec.Name, "error", err)
			continue
		}
		if seen[spec.Name] {
			logger.Warn(ctx, "Dropping duplicate capability", "capability", spec.Name)
			continue
		}
		seen[spec.Name] = true

		c.specs = append(c.specs, spec)
		for _, m := range spec.Methods {
			c.dispatch[spec.Name+"_"+m.Name] = dispatchEntry{capability: spec.Name, method: m}
		}
	}

	if len(c.specs) == 0 {
		return nil, errors.New("no tool specifications were generated")
	}

	c.manifest = buildManifest(c.specs)
	logger.Info(ctx, "Tool catalog ready", "capabilities", len(c.specs), "functions", len(c.manifest))
	return c, nil
}

func validateSpec(spec CapabilitySpec) error {
	if spec.Name == "" {
		return &ValidationError{Capability: spec.Name, Reason: "empty capability name"}
	}
	if strings.Contains(spec.Name, "_") {
		// The dispatcher splits function names on the first underscore, so
		// capability names must not contain one.
		return &ValidationError{Capability: spec.Name, Reason: "capability name contains underscore"}
	}
	if len(spec.Methods) == 0 {
		return &ValidationError{Capability: spec.Name, Reason: "no methods declared"}
	}
	methods := make(map[string]bool)
	for _, m := range spec.Methods {
		if m.Name == "" {
			return &ValidationError{Capability: spec.Name, Reason: "empty method name"}
		}
		if methods[m.Name] {
			return &ValidationError{Capability: spec.Name, Reason: fmt.Sprintf("duplicate method %q", m.Name)}
		}
		methods[m.Name] = true
		if m.Run == nil {
			return &ValidationError{Capability: spec.Name, Reason: fmt.Sprintf("method %q has no handler", m.Name)}
		}
		params := make(map[string]bool)
		for _, p := range m.Params {
			if p.Name == "" {
				return &ValidationError{Capability: spec.Name, Reason: fmt.Sprintf("method %q has unnamed parameter", m.Name)}
			}
			if params[p.Name] {
				return &ValidationError{Capability: spec.Name, Reason: fmt.Sprintf("method %q duplicates parameter %q", m.Name, p.Name)}
			}
			params[p.Name] = true
			if !paramTypes[p.Type] {
				return &ValidationError{Capability: spec.Name, Reason: fmt.Sprintf("parameter %q has unknown type %q", p.Name, p.Type)}
			}
		}
	}
	return nil
}

func buildManifest(specs []CapabilitySpec) []types.ToolDef {
	defs := make([]types.ToolDef, 0, len(specs))
	for _, spec := range specs {
		for _, m := range spec.Methods {
			properties := make(map[string]any, len(m.Params))
			var required []string
			for _, p := range m.Params {
				properties[p.Name] = map[string]any{
					"type":        p.Type,
					"description": p.Description,
				}
				if p.Required {
					required = append(required, p.Name)
				}
			}
			parameters := map[string]any{
				"type":       "object",
				"properties": properties,
			}
			if len(required) > 0 {
				parameters["required"] = required
			}
			defs = append(defs, types.ToolDef{
				Type: "function",
				Function: types.FunctionDef{
					Name:        spec.Name + "_" + m.Name,
					Description: m.Description,
					Parameters:  parameters,
				},
			})
		}
	}
	return defs
}

// Manifest returns the cached tool definitions. Callers must not mutate the
// returned slice.
func (c *Catalog) Manifest() []types.ToolDef {
	return c.manifest
}

// Len returns the number of registered capabilities.
func (c *Catalog) Len() int {
	return len(c.specs)
}

// Lookup resolves a function name of the form "{capability}_{method}" to its
// handler. Error messages are stable because they are returned to the model
// as tool results.
func (c *Catalog) Lookup(name string) (MethodSpec, string, error) {
	idx := strings.Index(name, "_")
	if idx <= 0 {
		return MethodSpec{}, "", errInvalidFormat(name)
	}
	capability, method := name[:idx], name[idx+1:]

	if entry, ok := c.dispatch[name]; ok {
		return entry.method, entry.capability, nil
	}

	for _, spec := range c.specs {
		if spec.Name == capability {
			return MethodSpec{}, "", errMethodNotFound(capability, method)
		}
	}
	return MethodSpec{}, "", errToolNotFound(capability)
}

// SystemPrompt renders the agent's standing instructions with the tool list
// generated from the registered capabilities.
func (c *Catalog) SystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are an advanced trading agent that helps users execute cryptocurrency trades.\n")
	b.WriteString("You have access to a range of tools:\n\n")
	for i, spec := range c.specs {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, spec.Name, spec.Description)
	}
	b.WriteString(`
When users ask you a question or request:
1. CAREFULLY think about which tools will help answer their query
2. Call the tools in a logical sequence to gather necessary information
3. Only call tools that are needed - don't use tools that aren't relevant
4. If you need market data or sentiment analysis for a trading decision, use those tools before making a decision
5. When executing trades, ALWAYS use the dry_run parameter provided in the context, never override it
6. When executing trades, ALWAYS use the EXACT amount parameter provided in the context
7. NEVER modify, override, or substitute the amount value with your own value
8. The amount parameter represents the TOTAL dollar amount available for trading, not a position size

IMPORTANT: You MUST use tools to complete the trading task. Do not respond with only text.
For any trading request, you must at minimum use the MarketDataTool to get current prices and the TradingExecutionTool to execute the trade.

CRITICALLY IMPORTANT:
- Every trading task MUST end with a TradingExecutionTool call
- Never skip calling tools - they are essential to completing the task
- Do not ask the user for any further inputs - use the provided context
- If additional tools or information are needed, call the appropriate tools

Respect the parameters provided in the context. These are user preferences and should never be changed.
Provide clear, concise responses about what you've done and your results.
`)
	return b.String()
}
