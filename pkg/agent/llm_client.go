package agent

import "context"

// Message roles in the chat transcript sent to the model.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// LLMClient is the interface for calling the chat completion backend.
// The production implementation wraps Azure OpenAI; tests substitute a
// scripted mock.
type LLMClient interface {
	// Complete sends a conversation and returns the model's next message.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// ConversationMessage is one entry in the transcript sent to the model.
type ConversationMessage struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // assistant messages only
	ToolCallID string     // tool result messages only
	ToolName   string     // tool result messages only
}

// ToolDefinition describes a tool available to the model. ParametersSchema
// is the server's JSON Schema passed through opaquely.
type ToolDefinition struct {
	Name             string
	Description      string
	ParametersSchema string
}

// ToolCall is the model's request to invoke a tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON
}

// ToolResult is the outcome of executing one tool call.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

// ToolExecutor runs tool calls on behalf of an agent. A nil executor means
// the agent works from conversation data alone.
type ToolExecutor interface {
	Execute(ctx context.Context, call ToolCall) (*ToolResult, error)
	ListTools(ctx context.Context) ([]ToolDefinition, error)
	Close() error
}

// CompletionRequest is one model invocation.
type CompletionRequest struct {
	System      string
	Messages    []ConversationMessage
	Tools       []ToolDefinition // nil = no tools bound
	Temperature float32
	MaxTokens   int

	// ForceJSON requests the provider's JSON response mode. The caller still
	// validates the payload against its schema.
	ForceJSON bool
}

// CompletionResponse is the model's next message.
type CompletionResponse struct {
	Content   string
	ToolCalls []ToolCall
	Usage     TokenUsage
}

// TokenUsage reports token consumption for one or more model calls.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Add accumulates usage from another call.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}
