// loanflow server — conversational loan intake and assessment. Provides the
// HTTP API, the coordinator turn loop, and the sequential assessment pipeline.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lendwise/loanflow/pkg/agent"
	"github.com/lendwise/loanflow/pkg/api"
	"github.com/lendwise/loanflow/pkg/cleanup"
	"github.com/lendwise/loanflow/pkg/config"
	"github.com/lendwise/loanflow/pkg/masking"
	"github.com/lendwise/loanflow/pkg/mcp"
	"github.com/lendwise/loanflow/pkg/orchestrator"
	"github.com/lendwise/loanflow/pkg/session"
	"github.com/lendwise/loanflow/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setupLogging(settings *config.Settings) {
	level := slog.LevelInfo
	switch strings.ToLower(settings.Server.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if settings.Server.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// configuredToolServers returns the names of tool servers with a URL set.
func configuredToolServers(settings *config.Settings) []string {
	var names []string
	for name, cfg := range settings.ToolServers {
		if cfg.URL != "" {
			names = append(names, name)
		}
	}
	return names
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./config"),
		"Path to configuration directory")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	}

	ctx := context.Background()

	// 1. Initialize configuration
	settings, err := config.Initialize(*configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(settings)

	slog.Info("Starting loanflow",
		"version", version.Full(),
		"http_port", settings.Server.HTTPPort,
		"config_dir", *configDir)

	// 2. Load agent personas
	personas, err := config.LoadPersonas(settings.Personas.Dir, settings.Personas.AllowFallback)
	if err != nil {
		slog.Error("Failed to load personas", "dir", settings.Personas.Dir, "error", err)
		os.Exit(1)
	}
	slog.Info("Personas loaded", "dir", settings.Personas.Dir)

	// 3. Create the LLM client
	llmClient, err := agent.NewOpenAIClient(settings.LLM)
	if err != nil {
		slog.Error("Failed to initialize LLM client", "error", err)
		os.Exit(1)
	}
	slog.Info("LLM client initialized",
		"endpoint", settings.LLM.Endpoint, "deployment", settings.LLM.Deployment)

	// 4. Masking and tool infrastructure
	masker := masking.NewService()

	// Eager tool validation. Under strict mode every server an agent declares
	// must have an endpoint and accept a connection — the process exits
	// otherwise, preventing silent broken configs. Non-strict mode runs with
	// whatever is configured, down to no tools at all.
	var mcpFactory *mcp.ClientFactory
	if settings.StrictToolStartup() {
		required := agent.RequiredToolServers()
		for _, name := range required {
			if _, err := settings.ToolEndpoint(name); err != nil {
				slog.Error("Tool server not configured", "server", name, "error", err)
				os.Exit(1)
			}
		}
		mcpFactory = mcp.NewClientFactory(settings, masker)
		validateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := mcpFactory.ValidateServers(validateCtx, required)
		cancel()
		if err != nil {
			slog.Error("Tool server startup validation failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Tool servers validated", "count", len(required))
	} else if toolServers := configuredToolServers(settings); len(toolServers) > 0 {
		mcpFactory = mcp.NewClientFactory(settings, masker)
		slog.Info("Tool servers configured", "count", len(toolServers))
	} else {
		slog.Warn("No tool servers configured, agents run without tools")
	}

	// 5. Session store, orchestrator, cleanup service
	store := session.NewManager(slog.Default())
	orch := orchestrator.New(store, llmClient, personas, mcpFactory, slog.Default())

	cleanupService := cleanup.NewService(store,
		settings.Session.IdleTimeout(), settings.Session.CleanupInterval())
	cleanupService.Start(ctx)
	defer cleanupService.Stop()

	// 6. Start HTTP server (non-blocking)
	httpServer := api.NewServer(orch, masker, settings)
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + settings.Server.HTTPPort
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("loanflow started successfully")

	// 7. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 8. Graceful shutdown: stop accepting requests, let in-flight turns drain
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
