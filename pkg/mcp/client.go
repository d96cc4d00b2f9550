// Package mcp provides MCP (Model Context Protocol) client infrastructure
// for connecting to and executing tools on the assessment tool servers.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lendwise/loanflow/pkg/config"
	"github.com/lendwise/loanflow/pkg/version"
)

// Timeouts and retry bounds for MCP operations.
const (
	// InitTimeout is the per-server handshake deadline.
	InitTimeout = 10 * time.Second

	// RetryBackoffMin and RetryBackoffMax bound the jittered backoff before
	// the single retry after a connection-level failure.
	RetryBackoffMin = 250 * time.Millisecond
	RetryBackoffMax = 750 * time.Millisecond
)

// Client manages MCP SDK sessions for the tool servers one agent call needs.
// Instances are short-lived: the factory builds one per agent invocation and
// the caller closes it when the stage completes. Thread-safe anyway, since
// the SDK may deliver notifications concurrently.
type Client struct {
	settings *config.Settings

	mu       sync.RWMutex
	sessions map[string]*mcpsdk.ClientSession

	toolCache   map[string][]*mcpsdk.Tool
	toolCacheMu sync.RWMutex

	reinitMu sync.Map // server name → *sync.Mutex

	logger *slog.Logger
}

func newClient(settings *config.Settings) *Client {
	return &Client{
		settings:  settings,
		sessions:  make(map[string]*mcpsdk.ClientSession),
		toolCache: make(map[string][]*mcpsdk.Tool),
		logger:    slog.Default(),
	}
}

// Initialize connects to every named server. Any failure is fatal for the
// whole client: an agent that declares a tool server must not run without it,
// so partial initialization is never accepted.
func (c *Client) Initialize(ctx context.Context, servers []string) error {
	for _, name := range servers {
		if err := c.initializeServer(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) initializeServer(ctx context.Context, name string) error {
	muI, _ := c.reinitMu.LoadOrStore(name, &sync.Mutex{})
	mu := muI.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	return c.initializeServerLocked(ctx, name)
}

// initializeServerLocked performs the handshake. Caller holds the per-server
// reinit mutex.
func (c *Client) initializeServerLocked(ctx context.Context, name string) error {
	c.mu.RLock()
	if _, exists := c.sessions[name]; exists {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()

	endpoint, err := c.settings.ToolEndpoint(name)
	if err != nil {
		return err
	}
	transport := &mcpsdk.StreamableClientTransport{Endpoint: endpoint.URL}

	initCtx, cancel := context.WithTimeout(ctx, InitTimeout)
	defer cancel()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    version.AppName,
		Version: version.GitCommit,
	}, nil)

	session, err := client.Connect(initCtx, transport, nil)
	if err != nil {
		return classify(name, err)
	}

	c.mu.Lock()
	c.sessions[name] = session
	c.mu.Unlock()

	c.logger.Info("Tool server connected", "server", name)
	return nil
}

// ListTools returns the tools a server advertises. Results are cached for
// the client's lifetime, which is one agent call.
func (c *Client) ListTools(ctx context.Context, server string) ([]*mcpsdk.Tool, error) {
	c.toolCacheMu.RLock()
	if cached, ok := c.toolCache[server]; ok {
		c.toolCacheMu.RUnlock()
		return cached, nil
	}
	c.toolCacheMu.RUnlock()

	session, timeout, err := c.sessionFor(server)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := session.ListTools(opCtx, nil)
	if err != nil {
		return nil, classify(server, err)
	}

	tools := result.Tools
	if tools == nil {
		tools = []*mcpsdk.Tool{}
	}
	c.toolCacheMu.Lock()
	c.toolCache[server] = tools
	c.toolCacheMu.Unlock()

	return tools, nil
}

// CallTool executes a tool call on the named server. One retry on a fresh
// session is attempted after connection-level breakage; every other failure
// surfaces immediately as a classified error.
func (c *Client) CallTool(ctx context.Context, server, tool string, args map[string]any) (*mcpsdk.CallToolResult, error) {
	params := &mcpsdk.CallToolParams{
		Name:      tool,
		Arguments: args,
	}

	result, err := c.callToolOnce(ctx, server, params)
	if err == nil {
		return result, nil
	}
	if !retryable(err) {
		return nil, err
	}

	c.logger.Info("Tool call failed, retrying on a fresh session",
		"server", server, "tool", tool, "error", err)

	backoff := RetryBackoffMin + time.Duration(rand.Int64N(int64(RetryBackoffMax-RetryBackoffMin)))
	select {
	case <-time.After(backoff):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if rerr := c.recreateSession(ctx, server); rerr != nil {
		return nil, fmt.Errorf("session recreation failed for %q: %w", server, rerr)
	}

	result, err = c.callToolOnce(ctx, server, params)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) callToolOnce(ctx context.Context, server string, params *mcpsdk.CallToolParams) (*mcpsdk.CallToolResult, error) {
	session, timeout, err := c.sessionFor(server)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := session.CallTool(opCtx, params)
	if err != nil {
		return nil, classify(server, err)
	}
	return result, nil
}

func (c *Client) sessionFor(server string) (*mcpsdk.ClientSession, time.Duration, error) {
	c.mu.RLock()
	session, exists := c.sessions[server]
	c.mu.RUnlock()
	if !exists {
		return nil, 0, fmt.Errorf("%w: no session for %q", ErrToolUnavailable, server)
	}
	endpoint, err := c.settings.ToolEndpoint(server)
	if err != nil {
		return nil, 0, err
	}
	return session, endpoint.Timeout(), nil
}

func (c *Client) recreateSession(ctx context.Context, server string) error {
	muI, _ := c.reinitMu.LoadOrStore(server, &sync.Mutex{})
	mu := muI.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	c.mu.Lock()
	if session, exists := c.sessions[server]; exists {
		_ = session.Close()
		delete(c.sessions, server)
	}
	c.mu.Unlock()

	c.toolCacheMu.Lock()
	delete(c.toolCache, server)
	c.toolCacheMu.Unlock()

	reinitCtx, cancel := context.WithTimeout(ctx, InitTimeout)
	defer cancel()

	return c.initializeServerLocked(reinitCtx, server)
}

// Close shuts down every session.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for name, session := range c.sessions {
		if err := session.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close session %q: %w", name, err)
		}
	}
	c.sessions = make(map[string]*mcpsdk.ClientSession)

	c.toolCacheMu.Lock()
	c.toolCache = make(map[string][]*mcpsdk.Tool)
	c.toolCacheMu.Unlock()

	return firstErr
}
