package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0o644))
}

func TestInitializeDefaultsOnly(t *testing.T) {
	dir := t.TempDir()
	settings, err := Initialize(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", settings.Server.HTTPPort)
	assert.Equal(t, 24, settings.Session.TimeoutHours)
	assert.Equal(t, 6, settings.Session.CleanupIntervalHours)
	assert.True(t, settings.StrictToolStartup())

	_, err = settings.ToolEndpoint(ToolFinancialCalculations)
	assert.ErrorIs(t, err, ErrMissingToolConfig, "no URL configured anywhere")
}

func TestInitializeFileValues(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
server:
  http_port: "9090"
  cors_origins: ["http://localhost:3000"]
session:
  timeout_hours: 48
tool_servers:
  financial_calculations:
    url: "http://tools.internal/fincalc"
    timeout_seconds: 20
`)
	settings, err := Initialize(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", settings.Server.HTTPPort)
	assert.Equal(t, []string{"http://localhost:3000"}, settings.Server.CORSOrigins)
	assert.Equal(t, 48, settings.Session.TimeoutHours)
	assert.Equal(t, 6, settings.Session.CleanupIntervalHours, "default survives partial file")

	ep, err := settings.ToolEndpoint(ToolFinancialCalculations)
	require.NoError(t, err)
	assert.Equal(t, "http://tools.internal/fincalc", ep.URL)
	assert.Equal(t, 20, ep.TimeoutSeconds)
}

func TestEnvOverridesBeatFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
tool_servers:
  application_verification:
    url: "http://file-value/verify"
session:
  timeout_hours: 48
`)
	t.Setenv("MCP_APPLICATION_VERIFICATION_URL", "http://env-value/verify")
	t.Setenv("APP_SESSION_TIMEOUT_HOURS", "12")
	t.Setenv("APP_CORS_ORIGINS", "https://a.example, https://b.example")

	settings, err := Initialize(dir)
	require.NoError(t, err)

	ep, err := settings.ToolEndpoint(ToolApplicationVerification)
	require.NoError(t, err)
	assert.Equal(t, "http://env-value/verify", ep.URL)
	assert.Equal(t, 12, settings.Session.TimeoutHours)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, settings.Server.CORSOrigins)
}

func TestExpandEnvTemplates(t *testing.T) {
	t.Setenv("FINCALC_URL", "http://expanded/fincalc")
	out := ExpandEnv([]byte("url: {{.FINCALC_URL}}"))
	assert.Equal(t, "url: http://expanded/fincalc", string(out))

	// literal $ is preserved, missing vars expand to empty
	out = ExpandEnv([]byte("pattern: ^secret.*$\nother: {{.NOPE_NOT_SET}}"))
	assert.Contains(t, string(out), "^secret.*$")
}

func TestInitializeRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "server: [not a mapping")
	_, err := Initialize(dir)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestLoadPersonas(t *testing.T) {
	dir := t.TempDir()
	for _, key := range personaKeys {
		require.NoError(t, os.WriteFile(filepath.Join(dir, key+".md"), []byte("You are the "+key+" agent."), 0o644))
	}

	set, err := LoadPersonas(dir, false)
	require.NoError(t, err)
	text, err := set.Get(PersonaCoordinator)
	require.NoError(t, err)
	assert.Contains(t, text, "coordinator")

	_, err = set.Get("unknown")
	assert.ErrorIs(t, err, ErrMissingPersona)
}

func TestLoadPersonasMissingCoordinatorIsFatal(t *testing.T) {
	dir := t.TempDir()
	for _, key := range personaKeys {
		if key == PersonaCoordinator {
			continue
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, key+".md"), []byte("persona"), 0o644))
	}

	// even with fallback allowed, the coordinator must exist
	_, err := LoadPersonas(dir, true)
	assert.ErrorIs(t, err, ErrMissingPersona)
}

func TestLoadPersonasSpecialistFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coordinator.md"), []byte("You are Maya."), 0o644))

	_, err := LoadPersonas(dir, false)
	assert.ErrorIs(t, err, ErrMissingPersona)

	set, err := LoadPersonas(dir, true)
	require.NoError(t, err)
	text, err := set.Get(PersonaCredit)
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}
