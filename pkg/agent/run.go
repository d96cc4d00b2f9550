package agent

import (
	"context"
	"fmt"
	"log/slog"
)

// Run executes one agent turn: a bounded tool-calling loop ending in a text
// response. A response without tool calls is the final answer. executor may
// be nil, in which case the model is called without tools.
//
// The agent's deadline is applied here; the caller's context still governs
// cancellation.
func (a *Agent) Run(ctx context.Context, llm LLMClient, messages []ConversationMessage, executor ToolExecutor) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	var tools []ToolDefinition
	if executor != nil {
		var err error
		tools, err = executor.ListTools(ctx)
		if err != nil {
			return nil, fmt.Errorf("agent %s: list tools: %w", a.Name, err)
		}
	}

	totalUsage := TokenUsage{}
	convo := make([]ConversationMessage, len(messages))
	copy(convo, messages)

	for iteration := 0; iteration < MaxToolIterations; iteration++ {
		resp, err := llm.Complete(ctx, &CompletionRequest{
			System:      a.Persona,
			Messages:    convo,
			Tools:       tools,
			Temperature: a.Temperature,
			MaxTokens:   a.MaxOutputTokens,
			ForceJSON:   len(tools) == 0, // JSON mode conflicts with tool calling
		})
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", a.Name, err)
		}
		totalUsage.Add(resp.Usage)

		if len(resp.ToolCalls) == 0 {
			resp.Usage = totalUsage
			return resp, nil
		}

		convo = append(convo, ConversationMessage{
			Role:      RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			result, err := executor.Execute(ctx, tc)
			if err != nil {
				// Transport failure aborts the whole stage.
				return nil, fmt.Errorf("agent %s: tool %s: %w", a.Name, tc.Name, err)
			}
			if result.IsError {
				slog.Debug("Tool reported an error result",
					"agent", a.Name, "tool", tc.Name)
			}
			convo = append(convo, ConversationMessage{
				Role:       RoleTool,
				Content:    result.Content,
				ToolCallID: tc.ID,
				ToolName:   tc.Name,
			})
		}
	}

	// Out of iterations: call once more without tools to force a conclusion.
	resp, err := llm.Complete(ctx, &CompletionRequest{
		System: a.Persona,
		Messages: append(convo, ConversationMessage{
			Role:    RoleUser,
			Content: "Provide your final answer now as a single JSON object. Do not request any more tools.",
		}),
		Temperature: a.Temperature,
		MaxTokens:   a.MaxOutputTokens,
		ForceJSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("agent %s: forced conclusion: %w", a.Name, err)
	}
	totalUsage.Add(resp.Usage)
	resp.Usage = totalUsage
	return resp, nil
}
