package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

const configFileName = "loanflow.yaml"

// Initialize loads, resolves, and validates configuration from configDir.
// This is the primary entry point.
//
// Steps performed:
//  1. Load loanflow.yaml (absence is tolerated — env-only setups are valid)
//  2. Expand environment variables in the file content
//  3. Parse YAML into Settings
//  4. Merge built-in defaults underneath
//  5. Apply environment overrides (environment wins over file)
//  6. Validate
//
// The returned Settings are immutable by convention; call Initialize again to
// reload on explicit request.
func Initialize(configDir string) (*Settings, error) {
	log := slog.With("config_dir", configDir)

	settings, err := loadFile(filepath.Join(configDir, configFileName))
	if err != nil {
		return nil, err
	}
	if settings == nil {
		log.Info("No configuration file, using defaults and environment")
		settings = &Settings{}
	}

	if err := mergo.Merge(settings, Defaults()); err != nil {
		return nil, fmt.Errorf("failed to merge defaults: %w", err)
	}
	settings.applyEnvOverrides()

	if !filepath.IsAbs(settings.Personas.Dir) {
		settings.Personas.Dir = filepath.Join(configDir, settings.Personas.Dir)
	}

	if err := validate(settings); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("Configuration initialized",
		"tool_servers", len(settings.ToolServers),
		"session_timeout_hours", settings.Session.TimeoutHours,
		"cleanup_interval_hours", settings.Session.CleanupIntervalHours)
	return settings, nil
}

// loadFile reads and parses the YAML file. Returns (nil, nil) when the file
// does not exist.
func loadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigNotFound, path, err)
	}

	expanded := ExpandEnv(data)

	var settings Settings
	if err := yaml.Unmarshal(expanded, &settings); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidYAML, path, err)
	}
	return &settings, nil
}
