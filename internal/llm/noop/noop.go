package noop

import (
	"context"

	"llm-trading-agent/internal/interfaces"
	"llm-trading-agent/internal/logger"
	"llm-trading-agent/internal/types"
)

// ChatModel is the fallback model used when no provider credential is
// configured. It never requests tools, so the agent treats every run as an
// answer-only conversation.
type ChatModel struct{}

// NewChatModel returns a model that always answers with a fixed notice.
func NewChatModel() *ChatModel {
	return &ChatModel{}
}

// Compile-time interface check
var _ interfaces.ChatModel = (*ChatModel)(nil)

// Complete implements the ChatModel interface with a canned reply.
func (m *ChatModel) Complete(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	logger.Debug(ctx, "Noop model called - no provider configured", "messages", len(req.Messages))
	return types.ChatResponse{
		Content: "No language model is configured, so no market analysis was performed. " +
			"Set OPENAI_API_KEY to enable tool-driven trading runs.",
	}, nil
}
