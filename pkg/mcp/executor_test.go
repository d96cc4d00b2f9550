package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitToolName(t *testing.T) {
	tests := []struct {
		name    string
		server  string
		tool    string
		wantErr bool
	}{
		{name: "financial_calculations.monthly_payment", server: "financial_calculations", tool: "monthly_payment"},
		{name: "application_verification.identity.check", server: "application_verification", tool: "identity.check"},
		{name: "noseparator", wantErr: true},
		{name: ".leading", wantErr: true},
		{name: "trailing.", wantErr: true},
		{name: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, tool, err := SplitToolName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.server, server)
			assert.Equal(t, tt.tool, tool)
		})
	}
}

func TestParseArguments(t *testing.T) {
	args, err := ParseArguments(`{"principal": 400000, "rate": 0.07}`)
	require.NoError(t, err)
	assert.Equal(t, 400000.0, args["principal"])

	args, err = ParseArguments("")
	require.NoError(t, err)
	assert.Empty(t, args)

	args, err = ParseArguments(`"just a string"`)
	require.NoError(t, err)
	assert.Equal(t, "just a string", args["input"])

	args, err = ParseArguments("not json at all")
	require.NoError(t, err)
	assert.Equal(t, "not json at all", args["input"])
}

type timeoutNetErr struct{}

func (timeoutNetErr) Error() string   { return "i/o deadline reached" }
func (timeoutNetErr) Timeout() bool   { return true }
func (timeoutNetErr) Temporary() bool { return false }

var _ net.Error = timeoutNetErr{}

func TestClassify(t *testing.T) {
	tests := []struct {
		give error
		want error
	}{
		{give: context.DeadlineExceeded, want: ErrToolTimeout},
		{give: timeoutNetErr{}, want: ErrToolTimeout},
		{give: fmt.Errorf("dial tcp: connection refused"), want: ErrToolUnavailable},
		{give: io.EOF, want: ErrToolUnavailable},
		{give: fmt.Errorf("jsonrpc: method not found"), want: ErrToolProtocol},
		{give: fmt.Errorf("something else entirely"), want: ErrToolUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.give.Error(), func(t *testing.T) {
			got := classify("financial_calculations", tt.give)
			assert.ErrorIs(t, got, tt.want)
		})
	}

	// cancellation passes through unwrapped
	got := classify("financial_calculations", context.Canceled)
	assert.ErrorIs(t, got, context.Canceled)
	assert.NotErrorIs(t, got, ErrToolUnavailable)
}

func TestRetryableOnlyOnUnavailable(t *testing.T) {
	assert.True(t, retryable(classify("s", errors.New("connection reset by peer"))))
	assert.False(t, retryable(classify("s", context.DeadlineExceeded)))
	assert.False(t, retryable(classify("s", errors.New("invalid params"))))
}
