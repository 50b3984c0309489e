package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Napiersnotes/Dandelions/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 30, cfg.Server.ReadTimeout)
	require.Equal(t, 30, cfg.Server.WriteTimeout)
	require.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, 3600, cfg.Cache.TTLSeconds)
	require.Empty(t, cfg.Cache.RedisAddr)
	require.Empty(t, cfg.Usage.DBPath)
	require.Equal(t, 30, cfg.Usage.RetentionDays)
	require.Zero(t, cfg.Manager.SweepIntervalSeconds)
	require.Empty(t, cfg.Providers)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CACHE_REDIS_ADDR", "localhost:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_SettingsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7777
usage:
  db_path: usage.db
providers:
  - vendor: deepseek
    model: deepseek-chat
    temperature: 0.7
    max_tokens: 1024
    priority: 1
    enabled: true
  - vendor: openai
    priority: 2
    enabled: false
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, 7777, cfg.Server.Port)
	require.Equal(t, "usage.db", cfg.Usage.DBPath)
	require.Len(t, cfg.Providers, 2)
	require.Equal(t, "deepseek", cfg.Providers[0].Vendor)
	require.Equal(t, 1024, cfg.Providers[0].MaxTokens)
	require.True(t, cfg.Providers[0].Enabled)
	require.False(t, cfg.Providers[1].Enabled)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not: a: mapping"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestProviderConfigs_EnvCredentialFallback(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "env-secret")

	cfg := &config.Config{
		Providers: []config.ProviderEntry{
			{Vendor: "deepseek", Priority: 1, Enabled: true},
			{Vendor: "mistral", APIKey: "inline-secret", Priority: 2, Enabled: true},
		},
	}

	configs := cfg.ProviderConfigs()
	require.Len(t, configs, 2)
	require.Equal(t, "env-secret", configs[0].APIKey)
	require.Equal(t, "inline-secret", configs[1].APIKey)
}

func TestAPIKeyEnvVar(t *testing.T) {
	require.Equal(t, "DEEPSEEK_API_KEY", config.APIKeyEnvVar("deepseek"))
	require.Equal(t, "OPENAI_API_KEY", config.APIKeyEnvVar("openai"))
}
