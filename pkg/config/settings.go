// Package config loads loanflow settings from a YAML file in the config
// directory, expands environment variables, applies environment overrides
// (environment always wins over file values), merges defaults, and validates
// the result. Settings are immutable after Initialize; Reload builds a fresh
// value on explicit request.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Tool server names. Agents reference tool servers by these keys.
const (
	ToolApplicationVerification = "application_verification"
	ToolDocumentProcessing      = "document_processing"
	ToolFinancialCalculations   = "financial_calculations"
)

// envOverrides maps tool server names to their URL environment variables.
var envOverrides = map[string]string{
	ToolApplicationVerification: "MCP_APPLICATION_VERIFICATION_URL",
	ToolDocumentProcessing:      "MCP_DOCUMENT_PROCESSING_URL",
	ToolFinancialCalculations:   "MCP_FINANCIAL_CALCULATIONS_URL",
}

// Settings is the fully-resolved service configuration.
type Settings struct {
	Server   ServerSettings  `yaml:"server"`
	Session  SessionSettings `yaml:"session"`
	LLM      LLMSettings     `yaml:"llm"`
	Personas PersonaSettings `yaml:"personas"`

	// ToolServers maps tool server name → endpoint config.
	ToolServers map[string]ToolServerConfig `yaml:"tool_servers"`
}

// ServerSettings configures the HTTP surface.
type ServerSettings struct {
	HTTPPort          string   `yaml:"http_port"`
	CORSOrigins       []string `yaml:"cors_origins"`
	LogLevel          string   `yaml:"log_level"`
	Debug             bool     `yaml:"debug"`
	StrictToolStartup *bool    `yaml:"strict_tool_startup"`
}

// SessionSettings configures the in-memory session store lifecycle.
type SessionSettings struct {
	TimeoutHours         int `yaml:"timeout_hours"`
	CleanupIntervalHours int `yaml:"cleanup_interval_hours"`
}

// IdleTimeout returns the eviction cutoff as a duration.
func (s SessionSettings) IdleTimeout() time.Duration {
	return time.Duration(s.TimeoutHours) * time.Hour
}

// CleanupInterval returns the eviction sweep period as a duration.
func (s SessionSettings) CleanupInterval() time.Duration {
	return time.Duration(s.CleanupIntervalHours) * time.Hour
}

// LLMSettings configures the Azure OpenAI client.
type LLMSettings struct {
	Endpoint   string `yaml:"endpoint"`
	Deployment string `yaml:"deployment"`
	APIKey     string `yaml:"api_key"`
}

// PersonaSettings configures persona loading.
type PersonaSettings struct {
	// Dir is the persona directory, relative to the config directory unless
	// absolute.
	Dir string `yaml:"dir"`

	// AllowFallback lets specialist agents run with a short generic persona
	// when their file is missing. Never applies to the coordinator.
	AllowFallback bool `yaml:"allow_fallback"`
}

// ToolServerConfig is one tool server endpoint.
type ToolServerConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-call deadline for this server.
func (c ToolServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Defaults returns the built-in configuration baseline.
func Defaults() *Settings {
	strict := true
	return &Settings{
		Server: ServerSettings{
			HTTPPort:          "8080",
			LogLevel:          "info",
			StrictToolStartup: &strict,
		},
		Session: SessionSettings{
			TimeoutHours:         24,
			CleanupIntervalHours: 6,
		},
		Personas: PersonaSettings{
			Dir: "personas",
		},
		ToolServers: map[string]ToolServerConfig{
			ToolApplicationVerification: {TimeoutSeconds: 10},
			ToolDocumentProcessing:      {TimeoutSeconds: 10},
			ToolFinancialCalculations:   {TimeoutSeconds: 10},
		},
	}
}

// ToolEndpoint returns the endpoint for a named tool server.
// Fails with ErrMissingToolConfig when no URL is configured.
func (s *Settings) ToolEndpoint(name string) (ToolServerConfig, error) {
	cfg, ok := s.ToolServers[name]
	if !ok || cfg.URL == "" {
		return ToolServerConfig{}, fmt.Errorf("%w: %s", ErrMissingToolConfig, name)
	}
	return cfg, nil
}

// StrictToolStartup reports whether boot should fail on an unreachable tool
// server. Defaults to true.
func (s *Settings) StrictToolStartup() bool {
	if s.Server.StrictToolStartup == nil {
		return true
	}
	return *s.Server.StrictToolStartup
}

// applyEnvOverrides lets environment variables win over file values.
func (s *Settings) applyEnvOverrides() {
	if v := os.Getenv("HTTP_PORT"); v != "" {
		s.Server.HTTPPort = v
	}
	if v := os.Getenv("APP_CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		s.Server.CORSOrigins = origins
	}
	if v := os.Getenv("APP_LOG_LEVEL"); v != "" {
		s.Server.LogLevel = v
	}
	if v := os.Getenv("APP_DEBUG"); v != "" {
		s.Server.Debug, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("APP_STRICT_TOOL_STARTUP"); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			s.Server.StrictToolStartup = &b
		}
	}
	if v := os.Getenv("APP_SESSION_TIMEOUT_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.Session.TimeoutHours = n
		}
	}
	if v := os.Getenv("APP_SESSION_CLEANUP_INTERVAL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.Session.CleanupIntervalHours = n
		}
	}
	if v := os.Getenv("AZURE_AI_PROJECT_ENDPOINT"); v != "" {
		s.LLM.Endpoint = v
	}
	if v := os.Getenv("AZURE_AI_MODEL_DEPLOYMENT_NAME"); v != "" {
		s.LLM.Deployment = v
	}
	if v := os.Getenv("AZURE_AI_API_KEY"); v != "" {
		s.LLM.APIKey = v
	}
	for name, envVar := range envOverrides {
		if v := os.Getenv(envVar); v != "" {
			cfg := s.ToolServers[name]
			cfg.URL = v
			if cfg.TimeoutSeconds == 0 {
				cfg.TimeoutSeconds = Defaults().ToolServers[name].TimeoutSeconds
			}
			if s.ToolServers == nil {
				s.ToolServers = make(map[string]ToolServerConfig)
			}
			s.ToolServers[name] = cfg
		}
	}
}

// validate checks resolved settings for internal consistency.
func validate(s *Settings) error {
	if s.Session.TimeoutHours <= 0 {
		return &ValidationError{Component: "session", Field: "timeout_hours", Err: fmt.Errorf("must be positive")}
	}
	if s.Session.CleanupIntervalHours <= 0 {
		return &ValidationError{Component: "session", Field: "cleanup_interval_hours", Err: fmt.Errorf("must be positive")}
	}
	for name, cfg := range s.ToolServers {
		if cfg.TimeoutSeconds < 0 {
			return &ValidationError{Component: "tool_server", ID: name, Field: "timeout_seconds", Err: fmt.Errorf("must be non-negative")}
		}
	}
	return nil
}
