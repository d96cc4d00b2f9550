package config

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNotFound indicates the configuration file was not found.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidYAML indicates YAML parsing failed.
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// ErrMissingPersona indicates a persona file is absent and no fallback
	// is permitted for it.
	ErrMissingPersona = errors.New("persona not found")

	// ErrMissingToolConfig indicates neither configuration nor environment
	// provides a URL for a tool server.
	ErrMissingToolConfig = errors.New("tool server not configured")

	// ErrMissingLLMConfig indicates the language-model client settings are
	// incomplete.
	ErrMissingLLMConfig = errors.New("LLM configuration incomplete")
)

// ValidationError wraps configuration validation failures with context.
type ValidationError struct {
	Component string // component being validated (server, session, llm, tool_server, persona)
	ID        string // identifier within the component (optional)
	Field     string // field name (optional)
	Err       error
}

func (e *ValidationError) Error() string {
	switch {
	case e.ID != "" && e.Field != "":
		return fmt.Sprintf("%s '%s': field '%s': %v", e.Component, e.ID, e.Field, e.Err)
	case e.ID != "":
		return fmt.Sprintf("%s '%s': %v", e.Component, e.ID, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Component, e.Err)
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
