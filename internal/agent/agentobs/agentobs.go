package agentobs

import (
	"context"

	"llm-trading-agent/internal/interfaces"
	"llm-trading-agent/internal/logger"
	"llm-trading-agent/internal/trace"
	"llm-trading-agent/internal/types"
)

// observableRunner wraps a Runner with observability (logging & tracing)
type observableRunner struct {
	runner interfaces.Runner
}

// Compile-time interface check
var _ interfaces.Runner = (*observableRunner)(nil)

// Wrap wraps a runner with observability middleware
func Wrap(runner interfaces.Runner) interfaces.Runner {
	return &observableRunner{
		runner: runner,
	}
}

// Run processes one trading instruction with observability
func (or *observableRunner) Run(ctx context.Context, req types.RunRequest) map[string]any {
	ctx, span := trace.StartSpan(ctx, "agent.Run")
	defer span.End()

	// Use InfoSkip(1) to report the actual caller, not this middleware wrapper
	logger.InfoSkip(ctx, 1, "Starting agent run",
		"prompt", req.Prompt,
		"symbol", req.Symbol,
		"dry_run", req.DryRun,
		"amount", req.Amount,
	)

	result := or.runner.Run(ctx, req)

	if errMsg, ok := result["error"].(string); ok {
		logger.WarnSkip(ctx, 1, "Agent run finished with error",
			"symbol", req.Symbol,
			"error", errMsg,
		)
		return result
	}

	logger.InfoSkip(ctx, 1, "Agent run finished",
		"symbol", req.Symbol,
		"run_id", result["run_id"],
		"elapsed_time", result["elapsed_time"],
	)

	return result
}
