package interfaces

import (
	"context"

	"llm-trading-agent/internal/types"
)

// Runner processes one trading instruction end to end and returns the
// structured result map. It never returns an error; failures are reported
// inside the result.
type Runner interface {
	Run(ctx context.Context, req types.RunRequest) map[string]any
}
