package agent

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lendwise/loanflow/pkg/config"
)

// OpenAIClient is the production LLMClient over Azure OpenAI.
type OpenAIClient struct {
	client     *openai.Client
	deployment string
}

// NewOpenAIClient builds a client from resolved LLM settings.
func NewOpenAIClient(settings config.LLMSettings) (*OpenAIClient, error) {
	if settings.Endpoint == "" || settings.Deployment == "" {
		return nil, fmt.Errorf("%w: endpoint and deployment are required", config.ErrMissingLLMConfig)
	}
	cfg := openai.DefaultAzureConfig(settings.APIKey, settings.Endpoint)
	cfg.AzureModelMapperFunc = func(model string) string { return model }
	return &OpenAIClient{
		client:     openai.NewClientWithConfig(cfg),
		deployment: settings.Deployment,
	}, nil
}

// Complete performs one chat completion call.
func (c *OpenAIClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       c.deployment,
		Messages:    encodeMessages(req),
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = encodeTools(req.Tools)
	}
	if req.ForceJSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	choice := resp.Choices[0].Message
	out := &CompletionResponse{
		Content: choice.Content,
		Usage: TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}
	for _, tc := range choice.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func encodeMessages(req *CompletionRequest) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		msg := openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		if m.ToolCallID != "" {
			msg.Role = openai.ChatMessageRoleTool
			msg.ToolCallID = m.ToolCallID
			msg.Name = m.ToolName
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

func encodeTools(tools []ToolDefinition) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		fn := &openai.FunctionDefinition{
			Name:        sanitizeToolName(t.Name),
			Description: t.Description,
		}
		if t.ParametersSchema != "" {
			fn.Parameters = json.RawMessage(t.ParametersSchema)
		}
		out = append(out, openai.Tool{
			Type:     openai.ToolTypeFunction,
			Function: fn,
		})
	}
	return out
}

// sanitizeToolName maps the canonical "server.tool" form onto the
// provider's allowed name charset. Dots are legal for OpenAI function
// names, so this is the identity today; it exists as the single place to
// change if a provider rejects them.
func sanitizeToolName(name string) string {
	return name
}
