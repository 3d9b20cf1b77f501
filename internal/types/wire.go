package types

// Wire-format structs for the chat completions tool protocol. Field names
// and JSON tags follow the OpenAI function-calling payloads so that tool
// calls survive a marshal/unmarshal round trip unchanged.

type ToolDef struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the tool arguments as the raw JSON string the model
// produced; decoding is the invoker's job.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ChatRequest struct {
	Messages    []ChatMessage
	Tools       []ToolDef
	Temperature float64
	MaxTokens   int
}

type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
}
