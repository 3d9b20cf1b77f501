package interfaces

import (
	"context"

	"llm-trading-agent/internal/types"
)

// ChatModel is the conversational LLM used by the agent. Implementations
// must return either assistant content, tool calls, or both.
type ChatModel interface {
	Complete(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error)
}
