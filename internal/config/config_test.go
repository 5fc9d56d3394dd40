package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredKeys(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAlphaVantageKey, "av-key")
	t.Setenv(EnvOpenRouterKey, "or-key")

	// Neutralize host environment so tests see only what they set.
	for _, key := range []string{
		"PORT", "STOCKBRIEF_PORT", "NAMESPACE", "STOCKBRIEF_NAMESPACE",
		"REDIS_URL", "STOCKBRIEF_REDIS_URL", "OPENROUTER_MODEL",
		"STOCKBRIEF_DEV_MODE", EnvConfigFile,
	} {
		t.Setenv(key, "")
	}
}

func TestNewConfigDefaults(t *testing.T) {
	setRequiredKeys(t)

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "stockbrief", cfg.Name)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://www.alphavantage.co/query", cfg.AlphaVantage.BaseURL)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.OpenRouter.BaseURL)
	assert.Equal(t, "huggingfaceh4/zephyr-7b-beta:free", cfg.OpenRouter.Model)
	assert.Equal(t, 512, cfg.OpenRouter.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ClientTimeout)
	assert.False(t, cfg.Registry.Enabled)
}

func TestNewConfigMissingCredentials(t *testing.T) {
	t.Setenv(EnvAlphaVantageKey, "")
	t.Setenv(EnvOpenRouterKey, "")

	_, err := NewConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvAlphaVantageKey)
	assert.Contains(t, err.Error(), EnvOpenRouterKey)
}

func TestLoadFromEnv(t *testing.T) {
	setRequiredKeys(t)
	t.Setenv("STOCKBRIEF_PORT", "9090")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("STOCKBRIEF_NAMESPACE", "agents")
	t.Setenv("OPENROUTER_MODEL", "mistralai/mistral-7b-instruct:free")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "agents", cfg.Namespace)
	assert.True(t, cfg.Registry.Enabled)
	assert.Equal(t, "redis://localhost:6379", cfg.Registry.RedisURL)
	assert.Equal(t, "mistralai/mistral-7b-instruct:free", cfg.OpenRouter.Model)
}

func TestEnvPrefixTakesPrecedence(t *testing.T) {
	setRequiredKeys(t)
	t.Setenv("PORT", "7000")
	t.Setenv("STOCKBRIEF_PORT", "7001")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Port)
}

func TestOptionsOverrideEnv(t *testing.T) {
	setRequiredKeys(t)
	t.Setenv("STOCKBRIEF_PORT", "9090")

	cfg, err := NewConfig(WithPort(8888), WithName("stockbrief-test"))
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Port)
	assert.Equal(t, "stockbrief-test", cfg.Name)
}

func TestConfigFile(t *testing.T) {
	setRequiredKeys(t)

	path := filepath.Join(t.TempDir(), "stockbrief.yaml")
	content := []byte(`
name: stockbrief-staging
port: 8095
openrouter:
  model: qwen/qwen-2-7b-instruct:free
registry:
  enabled: true
  redis_url: redis://redis.staging:6379
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv(EnvConfigFile, path)

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "stockbrief-staging", cfg.Name)
	assert.Equal(t, 8095, cfg.Port)
	assert.Equal(t, "qwen/qwen-2-7b-instruct:free", cfg.OpenRouter.Model)
	assert.Equal(t, "redis://redis.staging:6379", cfg.Registry.RedisURL)
}

func TestValidateRejectsBadRedisURL(t *testing.T) {
	setRequiredKeys(t)
	t.Setenv("REDIS_URL", "localhost:6379")

	_, err := NewConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis_url")
}

func TestValidateRejectsBadPort(t *testing.T) {
	setRequiredKeys(t)

	cfg := DefaultConfig()
	cfg.AlphaVantage.APIKey = "k"
	cfg.OpenRouter.APIKey = "k"
	cfg.Port = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
}

func TestDevelopmentModeEnablesStdoutTraces(t *testing.T) {
	setRequiredKeys(t)
	t.Setenv("STOCKBRIEF_DEV_MODE", "true")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Development.Mode)
	assert.True(t, cfg.Telemetry.StdoutExport)
}
