package mcp

import (
	"context"

	"github.com/lendwise/loanflow/pkg/config"
	"github.com/lendwise/loanflow/pkg/masking"
)

// ClientFactory builds per-agent-call tool executors. The orchestrator holds
// one factory for the process lifetime; a nil factory disables tools
// entirely (agents then run on conversation data alone).
type ClientFactory struct {
	settings *config.Settings
	masker   *masking.Service
}

// NewClientFactory creates a factory. masker may be nil.
func NewClientFactory(settings *config.Settings, masker *masking.Service) *ClientFactory {
	return &ClientFactory{settings: settings, masker: masker}
}

// CreateToolExecutor connects to the named servers and returns an executor
// over them. Any connection failure fails the whole call. The caller owns
// the executor and must Close it when the stage completes.
func (f *ClientFactory) CreateToolExecutor(ctx context.Context, servers []string) (*ToolExecutor, error) {
	client := newClient(f.settings)
	if err := client.Initialize(ctx, servers); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewToolExecutor(client, servers, f.masker), nil
}

// ValidateServers connects to every named server and tears the connections
// down again. Used at startup under strict mode to fail fast on
// misconfigured or unreachable tool servers.
func (f *ClientFactory) ValidateServers(ctx context.Context, servers []string) error {
	client := newClient(f.settings)
	defer func() { _ = client.Close() }()
	return client.Initialize(ctx, servers)
}
