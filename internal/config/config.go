// Package config loads and validates runtime configuration.
// Settings come from external sources merged in order: defaults, the
// environment (plus .env files), and an optional YAML settings file produced
// by the setup wizard. Validation happens once here, at the boundary; the
// core never re-validates.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Napiersnotes/Dandelions/internal/llm"
)

// DefaultSettingsPath is where the setup wizard writes its output.
const DefaultSettingsPath = "config/settings.yaml"

// Config is the full runtime configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	CORS      CORSConfig      `yaml:"cors"`
	Cache     CacheConfig     `yaml:"cache"`
	Usage     UsageConfig     `yaml:"usage"`
	Manager   ManagerConfig   `yaml:"manager"`
	Providers []ProviderEntry `yaml:"providers" env:"-"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080" yaml:"port"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"   yaml:"read_timeout"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"30"   yaml:"write_timeout"`
}

// CORSConfig contains CORS policy settings for the dashboard.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"                          yaml:"allowed_origins"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,OPTIONS"           yaml:"allowed_methods"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization" yaml:"allowed_headers"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"                       yaml:"allow_credentials"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"                      yaml:"max_age"`
}

// CacheConfig contains response cache settings. The cache is disabled unless
// a Redis address is configured.
type CacheConfig struct {
	RedisAddr     string `env:"CACHE_REDIS_ADDR"     envDefault:""     yaml:"redis_addr"`
	RedisPassword string `env:"CACHE_REDIS_PASSWORD" envDefault:""     yaml:"redis_password"`
	RedisDB       int    `env:"CACHE_REDIS_DB"       envDefault:"0"    yaml:"redis_db"`
	TTLSeconds    int    `env:"CACHE_TTL_SECONDS"    envDefault:"3600" yaml:"ttl_seconds"`
}

// UsageConfig contains usage-history store settings. The store is disabled
// when the path is empty.
type UsageConfig struct {
	DBPath        string `env:"USAGE_DB_PATH"        envDefault:""   yaml:"db_path"`
	RetentionDays int    `env:"USAGE_RETENTION_DAYS" envDefault:"30" yaml:"retention_days"`
}

// ManagerConfig contains provider-manager settings.
type ManagerConfig struct {
	// SweepIntervalSeconds is how often connection status is refreshed.
	// Zero disables the background sweep.
	SweepIntervalSeconds int `env:"MANAGER_SWEEP_INTERVAL_SECONDS" envDefault:"0" yaml:"sweep_interval_seconds"`
}

// ProviderEntry is one vendor's settings as persisted by the wizard.
// Credentials are normally kept out of the YAML file and resolved from the
// environment ({VENDOR}_API_KEY).
type ProviderEntry struct {
	Vendor      string  `yaml:"vendor"`
	APIKey      string  `yaml:"api_key,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Priority    int     `yaml:"priority"`
	Enabled     bool    `yaml:"enabled"`
}

// Load parses configuration. settingsPath may be empty, in which case the
// default wizard output location is used when present; a missing settings
// file is only an error when the path was given explicitly.
func Load(settingsPath string) (*Config, error) {
	for _, file := range []string{".env", "config/.env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	path := settingsPath
	explicit := path != ""
	if path == "" {
		path = DefaultSettingsPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}

	return &cfg, nil
}

// ProviderConfigs converts the configured entries into the core's immutable
// provider configurations, resolving credentials from the environment when
// the entry carries none.
func (c *Config) ProviderConfigs() []llm.ProviderConfig {
	configs := make([]llm.ProviderConfig, 0, len(c.Providers))
	for _, entry := range c.Providers {
		apiKey := entry.APIKey
		if apiKey == "" {
			apiKey = os.Getenv(APIKeyEnvVar(entry.Vendor))
		}

		configs = append(configs, llm.ProviderConfig{
			Vendor:      entry.Vendor,
			APIKey:      apiKey,
			Model:       entry.Model,
			BaseURL:     entry.BaseURL,
			Temperature: entry.Temperature,
			MaxTokens:   entry.MaxTokens,
			Priority:    entry.Priority,
			Enabled:     entry.Enabled,
		})
	}
	return configs
}

// APIKeyEnvVar returns the environment variable holding a vendor credential.
func APIKeyEnvVar(vendor string) string {
	return strings.ToUpper(vendor) + "_API_KEY"
}
