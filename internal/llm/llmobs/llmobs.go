package llmobs

import (
	"context"

	"llm-trading-agent/internal/interfaces"
	"llm-trading-agent/internal/logger"
	"llm-trading-agent/internal/trace"
	"llm-trading-agent/internal/types"
)

// observableChatModel wraps a ChatModel with observability (logging & tracing)
type observableChatModel struct {
	model interfaces.ChatModel
}

// Compile-time interface check
var _ interfaces.ChatModel = (*observableChatModel)(nil)

// Wrap wraps a chat model with observability middleware
func Wrap(model interfaces.ChatModel) interfaces.ChatModel {
	return &observableChatModel{
		model: model,
	}
}

// Complete requests a chat completion with observability
func (om *observableChatModel) Complete(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Complete")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Requesting chat completion",
		"messages", len(req.Messages),
		"tools", len(req.Tools),
	)

	resp, err := om.model.Complete(ctx, req)
	if err != nil {
		// Use ErrorWithErrSkip(1) to report the actual caller
		logger.ErrorWithErrSkip(ctx, 1, "Chat completion failed", err,
			"messages", len(req.Messages),
		)
		return types.ChatResponse{}, err
	}

	// Log completion result - use InfoSkip(1) to report the actual caller
	logger.InfoSkip(ctx, 1, "Chat completion received",
		"tool_calls", len(resp.ToolCalls),
		"content_length", len(resp.Content),
	)

	return resp, nil
}
