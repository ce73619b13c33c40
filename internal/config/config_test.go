package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.InDelta(t, 0.2, cfg.OpenAI.Temperature, 1e-9)

	assert.False(t, cfg.HasOpenAI())
	assert.False(t, cfg.HasSupabase())
	assert.False(t, cfg.HasLinear())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LINEAR_API_KEY", "lin_test")
	t.Setenv("LINEAR_TEAM_ID", "team_1")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "team_1", cfg.Linear.TeamID)
	assert.True(t, cfg.HasOpenAI())
	assert.True(t, cfg.HasLinear())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autopilot.toml")
	content := `port = 7000
environment = "staging"

[supabase]
url = "https://example.supabase.co"
service_role_key = "srk"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "staging", cfg.Environment)
	assert.True(t, cfg.HasSupabase())
}

func TestEnvironmentBeatsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autopilot.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = 7000\n"), 0644))
	t.Setenv("PORT", "9999")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))

	assert.Error(t, err)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autopilot.toml")

	require.NoError(t, InitConfig(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)

	assert.Error(t, InitConfig(path), "an existing file is never overwritten")
}
