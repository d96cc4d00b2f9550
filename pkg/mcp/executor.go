package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lendwise/loanflow/pkg/agent"
	"github.com/lendwise/loanflow/pkg/masking"
)

var _ agent.ToolExecutor = (*ToolExecutor)(nil)

// ToolExecutor implements agent.ToolExecutor backed by real MCP servers.
// Created per agent call by ClientFactory.
//
// Two failure surfaces with different contracts:
//   - transport failures (server down, timeout, protocol breakage) return a
//     Go error and abort the calling stage;
//   - tool-level failures (the server ran the tool and reported IsError)
//     are relayed to the model as result content, like any other answer.
type ToolExecutor struct {
	client  *Client
	servers []string

	// masker redacts sensitive values in tool results before they reach the
	// model transcript. nil disables masking.
	masker *masking.Service
}

// NewToolExecutor creates an executor over an initialized client.
func NewToolExecutor(client *Client, servers []string, masker *masking.Service) *ToolExecutor {
	return &ToolExecutor{
		client:  client,
		servers: servers,
		masker:  masker,
	}
}

// Execute runs one tool call. The model addresses tools as "server.tool".
func (e *ToolExecutor) Execute(ctx context.Context, call agent.ToolCall) (*agent.ToolResult, error) {
	server, tool, err := SplitToolName(call.Name)
	if err != nil {
		return &agent.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: err.Error(),
			IsError: true,
		}, nil
	}
	if !slices.Contains(e.servers, server) {
		return &agent.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: fmt.Sprintf("tool server %q is not available to this agent; available: %s", server, strings.Join(e.servers, ", ")),
			IsError: true,
		}, nil
	}

	args, err := ParseArguments(call.Arguments)
	if err != nil {
		return &agent.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: fmt.Sprintf("failed to parse tool arguments: %s", err),
			IsError: true,
		}, nil
	}

	result, err := e.client.CallTool(ctx, server, tool, args)
	if err != nil {
		// Transport failure: abort the stage.
		return nil, err
	}

	content := extractTextContent(result)
	if e.masker != nil {
		content = e.masker.Text(content)
	}

	return &agent.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		Content: content,
		IsError: result.IsError,
	}, nil
}

// ListTools returns every tool the executor's servers advertise, with
// server-prefixed names ("financial_calculations.amortization_schedule").
// Tool schemas are passed through opaquely from the server.
func (e *ToolExecutor) ListTools(ctx context.Context) ([]agent.ToolDefinition, error) {
	var all []agent.ToolDefinition
	for _, server := range e.servers {
		tools, err := e.client.ListTools(ctx, server)
		if err != nil {
			return nil, err
		}
		for _, tool := range tools {
			all = append(all, agent.ToolDefinition{
				Name:             fmt.Sprintf("%s.%s", server, tool.Name),
				Description:      tool.Description,
				ParametersSchema: marshalSchema(tool.InputSchema),
			})
		}
	}
	return all, nil
}

// Close releases the underlying MCP sessions.
func (e *ToolExecutor) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// SplitToolName splits a "server.tool" name. Tool names may themselves
// contain dots; only the first dot separates the server.
func SplitToolName(name string) (server, tool string, err error) {
	idx := strings.Index(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return "", "", fmt.Errorf("malformed tool name %q, want server.tool", name)
	}
	return name[:idx], name[idx+1:], nil
}

// ParseArguments parses the model's tool arguments string. The chat API
// yields JSON objects; a non-object value or plain string is wrapped as
// {"input": value} so no-schema tools still get something usable.
func ParseArguments(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return map[string]any{"input": raw}, nil
	}
	if m, ok := parsed.(map[string]any); ok {
		return m, nil
	}
	return map[string]any{"input": parsed}, nil
}

// extractTextContent concatenates the TextContent items of a result.
// Non-text content is skipped.
func extractTextContent(result *mcpsdk.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		if tc, ok := c.(*mcpsdk.TextContent); ok {
			parts = append(parts, tc.Text)
		} else {
			slog.Debug("Tool returned non-text content, skipping",
				"content_type", fmt.Sprintf("%T", c))
		}
	}
	return strings.Join(parts, "\n")
}

func marshalSchema(schema any) string {
	if schema == nil {
		return ""
	}
	data, err := json.Marshal(schema)
	if err != nil {
		slog.Debug("Failed to marshal tool input schema", "error", err)
		return ""
	}
	return string(data)
}
