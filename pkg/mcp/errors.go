package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// Sentinel errors for tool transport failures. These abort the calling
// agent's stage; a tool that answers with its own error payload does not
// produce one of these (that answer is relayed to the model as content).
var (
	// ErrToolUnavailable: the server could not be reached or the connection
	// dropped and could not be recovered.
	ErrToolUnavailable = errors.New("tool server unavailable")

	// ErrToolTimeout: the call exceeded the server's configured deadline.
	ErrToolTimeout = errors.New("tool call timed out")

	// ErrToolProtocol: the server answered with a JSON-RPC level failure
	// (bad request, unknown method).
	ErrToolProtocol = errors.New("tool protocol error")
)

// classify wraps a raw SDK or network error in the matching sentinel.
// Context cancellation passes through unwrapped so callers can distinguish
// a cancelled turn from a broken server.
func classify(server string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrToolTimeout, server, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s: %v", ErrToolTimeout, server, err)
	}
	if isConnectionError(err) {
		return fmt.Errorf("%w: %s: %v", ErrToolUnavailable, server, err)
	}
	if isProtocolError(err) {
		return fmt.Errorf("%w: %s: %v", ErrToolProtocol, server, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrToolUnavailable, server, err)
}

// retryable reports whether a failed call is worth one retry on a fresh
// session. Only connection-level breakage qualifies: timeouts may mean a
// slow server, and protocol errors will repeat.
func retryable(err error) bool {
	return errors.Is(err, ErrToolUnavailable)
}

func isConnectionError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"connection closed",
		"no such host",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func isProtocolError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"method not found",
		"invalid params",
		"invalid request",
		"parse error",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
