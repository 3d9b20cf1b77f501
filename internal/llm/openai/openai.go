package openai

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"llm-trading-agent/internal/interfaces"
	"llm-trading-agent/internal/llm"
	"llm-trading-agent/internal/logger"
	"llm-trading-agent/internal/store"
	"llm-trading-agent/internal/trace"
	"llm-trading-agent/internal/types"
)

// ChatModel calls the OpenAI chat completions API through the official SDK.
type ChatModel struct {
	client     sdk.Client
	model      string
	maxRetries int
}

// Compile-time interface check
var _ interfaces.ChatModel = (*ChatModel)(nil)

// NewChatModel builds the OpenAI-backed model. The API key comes from
// OPENAI_API_KEY; OPENAI_API_BASE optionally redirects to a proxy or a
// compatible venue.
func NewChatModel(cfg *store.Config) (*ChatModel, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY missing")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if base := os.Getenv("OPENAI_API_BASE"); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}

	return &ChatModel{
		client:     sdk.NewClient(opts...),
		model:      cfg.Agent.Model,
		maxRetries: cfg.Agent.MaxRetries,
	}, nil
}

// Complete sends one chat completion request and maps the first choice back
// to the internal wire types. Transport failures come back as
// *llm.TransportError after bounded retries.
func (m *ChatModel) Complete(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	ctx, span := trace.StartSpan(ctx, "openai-chat-completion")
	defer span.End()

	params := sdk.ChatCompletionNewParams{
		Model:       shared.ChatModel(m.model),
		Messages:    buildMessages(req.Messages),
		Temperature: sdk.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = sdk.Int(int64(req.MaxTokens))
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	logger.Debug(ctx, "Sending request to OpenAI",
		"model", m.model,
		"messages", len(req.Messages),
		"tools", len(req.Tools),
	)

	start := time.Now()
	var completion *sdk.ChatCompletion
	err := m.withRetry(ctx, func(ctx context.Context) error {
		var err error
		completion, err = m.client.Chat.Completions.New(ctx, params)
		return err
	})
	latency := time.Since(start)

	if err != nil {
		logger.ErrorWithErr(ctx, "OpenAI request failed", err, "latency_ms", latency.Milliseconds())
		return types.ChatResponse{}, transportError(err)
	}
	if len(completion.Choices) == 0 {
		return types.ChatResponse{}, &llm.TransportError{Err: errors.New("no choices in completion")}
	}

	choice := completion.Choices[0]
	logger.Debug(ctx, "Received response from OpenAI",
		"finish_reason", choice.FinishReason,
		"tool_calls", len(choice.Message.ToolCalls),
		"latency_ms", latency.Milliseconds(),
	)

	resp := types.ChatResponse{Content: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, types.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: types.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return resp, nil
}

func buildMessages(msgs []types.ChatMessage) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case "system":
			out = append(out, sdk.SystemMessage(msg.Content))
		case "assistant":
			out = append(out, assistantMessage(msg))
		case "tool":
			out = append(out, sdk.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			out = append(out, sdk.UserMessage(msg.Content))
		}
	}
	return out
}

func assistantMessage(msg types.ChatMessage) sdk.ChatCompletionMessageParamUnion {
	param := sdk.ChatCompletionAssistantMessageParam{}
	if msg.Content != "" {
		param.Content = sdk.ChatCompletionAssistantMessageParamContentUnion{
			OfString: sdk.String(msg.Content),
		}
	}
	for _, call := range msg.ToolCalls {
		param.ToolCalls = append(param.ToolCalls, sdk.ChatCompletionMessageToolCallParam{
			ID: call.ID,
			Function: sdk.ChatCompletionMessageToolCallFunctionParam{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}
	return sdk.ChatCompletionMessageParamUnion{OfAssistant: &param}
}

func buildTools(defs []types.ToolDef) []sdk.ChatCompletionToolParam {
	out := make([]sdk.ChatCompletionToolParam, 0, len(defs))
	for _, def := range defs {
		tool := sdk.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:       def.Function.Name,
				Parameters: shared.FunctionParameters(def.Function.Parameters),
			},
		}
		if def.Function.Description != "" {
			tool.Function.Description = sdk.Opt(def.Function.Description)
		}
		out = append(out, tool)
	}
	return out
}

func (m *ChatModel) withRetry(ctx context.Context, fn func(context.Context) error) error {
	attempts := 0
	for {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retryable(err) || attempts >= m.maxRetries {
			return err
		}
		attempts++
		backoff := time.Duration(attempts*attempts) * 100 * time.Millisecond
		logger.Warn(ctx, "Retrying OpenAI request", "attempt", attempts, "backoff_ms", backoff.Milliseconds())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		// Never retry bad credentials
		return apiErr.StatusCode != http.StatusUnauthorized
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return true
}

func transportError(err error) *llm.TransportError {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return &llm.TransportError{Status: apiErr.StatusCode, Err: err}
	}
	return &llm.TransportError{Err: err}
}
