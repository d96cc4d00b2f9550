package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockLLM is a scripted LLMClient for tests. Responses are consumed in call
// order; running past the script is an error so tests notice unexpected
// extra calls.
type MockLLM struct {
	mu     sync.Mutex
	script []mockTurn
	calls  int
}

type mockTurn struct {
	resp *CompletionResponse
	err  error
}

// NewMockLLM creates an empty mock. Queue turns with Respond/RespondJSON/Fail.
func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

// Respond queues a plain text response.
func (m *MockLLM) Respond(content string) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, mockTurn{resp: &CompletionResponse{Content: content}})
	return m
}

// RespondWithTools queues a response that requests tool calls.
func (m *MockLLM) RespondWithTools(content string, calls ...ToolCall) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, mockTurn{resp: &CompletionResponse{Content: content, ToolCalls: calls}})
	return m
}

// Fail queues an error turn.
func (m *MockLLM) Fail(err error) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, mockTurn{err: err})
	return m
}

// Complete implements LLMClient.
func (m *MockLLM) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls >= len(m.script) {
		return nil, fmt.Errorf("mock LLM: unexpected call %d, script has %d turns", m.calls+1, len(m.script))
	}
	turn := m.script[m.calls]
	m.calls++
	if turn.err != nil {
		return nil, turn.err
	}
	return turn.resp, nil
}

// Calls returns how many completions were consumed.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// SpecialistJSON renders a minimal valid specialist narrative for scripting.
func SpecialistJSON(reasoning string) string {
	return fmt.Sprintf(`{"reasoning": %q, "positive_factors": [], "negative_factors": []}`, reasoning)
}

// CoordinatorJSON renders a coordinator reply payload for scripting.
func CoordinatorJSON(message, action string, collected map[string]any) string {
	payload := map[string]any{
		"message": message,
		"action":  action,
	}
	if collected != nil {
		payload["collected_data"] = collected
	}
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return string(data)
}
