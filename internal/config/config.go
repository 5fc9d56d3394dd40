// Package config provides layered configuration for the stockbrief service.
//
// Values are resolved with three-layer priority:
//  1. Defaults (lowest)
//  2. Optional YAML file, then environment variables
//  3. Functional options (highest)
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvAlphaVantageKey holds the Alpha Vantage API key. Required.
	EnvAlphaVantageKey = "ALPHA_VANTAGE_API_KEY"
	// EnvOpenRouterKey holds the OpenRouter API key. Required.
	EnvOpenRouterKey = "OPENROUTER_API_KEY"
	// EnvConfigFile points at an optional YAML configuration file.
	EnvConfigFile = "STOCKBRIEF_CONFIG"
)

// Config holds all service configuration.
type Config struct {
	Name      string `yaml:"name"`
	Port      int    `yaml:"port"`
	Namespace string `yaml:"namespace"`

	HTTP         HTTPConfig         `yaml:"http"`
	Registry     RegistryConfig     `yaml:"registry"`
	AlphaVantage AlphaVantageConfig `yaml:"alpha_vantage"`
	OpenRouter   OpenRouterConfig   `yaml:"openrouter"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Logging      LoggingConfig      `yaml:"logging"`
	Development  DevelopmentConfig  `yaml:"development"`
}

// HTTPConfig contains server and outbound client timeouts.
type HTTPConfig struct {
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// ClientTimeout bounds every outbound provider call. The upstream
	// behavior specified no timeout; 30s is the documented default.
	ClientTimeout time.Duration `yaml:"client_timeout"`
}

// RegistryConfig controls service registration for discovery.
type RegistryConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RedisURL          string        `yaml:"redis_url"`
	TTL               time.Duration `yaml:"ttl"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// AlphaVantageConfig configures the financial data provider.
type AlphaVantageConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// OpenRouterConfig configures the LLM completion provider.
type OpenRouterConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// TelemetryConfig configures trace export.
type TelemetryConfig struct {
	Endpoint     string `yaml:"endpoint"`
	StdoutExport bool   `yaml:"stdout_export"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DevelopmentConfig enables local-development behavior.
type DevelopmentConfig struct {
	Mode         bool `yaml:"mode"`
	MockRegistry bool `yaml:"mock_registry"`
}

// Option applies a configuration override with highest priority.
type Option func(*Config)

// WithName sets the service name.
func WithName(name string) Option {
	return func(c *Config) { c.Name = name }
}

// WithPort sets the HTTP server port.
func WithPort(port int) Option {
	return func(c *Config) { c.Port = port }
}

// WithNamespace sets the registry namespace.
func WithNamespace(ns string) Option {
	return func(c *Config) {
		if ns != "" {
			c.Namespace = ns
		}
	}
}

// WithRedisURL enables registration against the given Redis URL.
func WithRedisURL(url string) Option {
	return func(c *Config) {
		if url != "" {
			c.Registry.RedisURL = url
			c.Registry.Enabled = true
		}
	}
}

// WithAlphaVantageKey sets the financial data provider credential.
func WithAlphaVantageKey(key string) Option {
	return func(c *Config) { c.AlphaVantage.APIKey = key }
}

// WithOpenRouterKey sets the LLM provider credential.
func WithOpenRouterKey(key string) Option {
	return func(c *Config) { c.OpenRouter.APIKey = key }
}

// WithModel overrides the summarization model identifier.
func WithModel(model string) Option {
	return func(c *Config) { c.OpenRouter.Model = model }
}

// WithDevelopmentMode toggles development behavior (stdout traces, mock registry).
func WithDevelopmentMode(enabled bool) Option {
	return func(c *Config) {
		c.Development.Mode = enabled
		if enabled {
			c.Telemetry.StdoutExport = true
		}
	}
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:      "stockbrief",
		Port:      8080,
		Namespace: "default",
		HTTP: HTTPConfig{
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			ClientTimeout:   30 * time.Second,
		},
		Registry: RegistryConfig{
			TTL:               30 * time.Second,
			HeartbeatInterval: 10 * time.Second,
		},
		AlphaVantage: AlphaVantageConfig{
			BaseURL: "https://www.alphavantage.co/query",
		},
		OpenRouter: OpenRouterConfig{
			BaseURL:   "https://openrouter.ai/api/v1",
			Model:     "huggingfaceh4/zephyr-7b-beta:free",
			MaxTokens: 512,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// NewConfig builds a Config from defaults, an optional YAML file, the
// environment, and the given options, then validates it.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	cfg.LoadFromEnv()

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile overlays values from a YAML file.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv overlays values from environment variables.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("STOCKBRIEF_NAME"); v != "" {
		c.Name = v
	}
	if v := firstEnv("STOCKBRIEF_PORT", "PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := firstEnv("STOCKBRIEF_NAMESPACE", "NAMESPACE"); v != "" {
		c.Namespace = v
	}
	if v := firstEnv("STOCKBRIEF_REDIS_URL", "REDIS_URL"); v != "" {
		c.Registry.RedisURL = v
		c.Registry.Enabled = true
	}
	if v := os.Getenv(EnvAlphaVantageKey); v != "" {
		c.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_BASE_URL"); v != "" {
		c.AlphaVantage.BaseURL = v
	}
	if v := os.Getenv(EnvOpenRouterKey); v != "" {
		c.OpenRouter.APIKey = v
	}
	if v := os.Getenv("OPENROUTER_BASE_URL"); v != "" {
		c.OpenRouter.BaseURL = v
	}
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		c.OpenRouter.Model = v
	}
	if v := firstEnv("STOCKBRIEF_TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	}
	if v := os.Getenv("STOCKBRIEF_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("STOCKBRIEF_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("STOCKBRIEF_DEV_MODE"); v != "" {
		c.Development.Mode = v == "true"
		if c.Development.Mode {
			c.Telemetry.StdoutExport = true
		}
	}
	if v := os.Getenv("STOCKBRIEF_MOCK_REGISTRY"); v != "" {
		c.Development.MockRegistry = v == "true"
	}
}

// Validate reports every missing or inconsistent setting at once so the
// operator can fix them in a single pass.
func (c *Config) Validate() error {
	var problems []string

	if c.AlphaVantage.APIKey == "" {
		problems = append(problems, fmt.Sprintf("%s is required", EnvAlphaVantageKey))
	}
	if c.OpenRouter.APIKey == "" {
		problems = append(problems, fmt.Sprintf("%s is required", EnvOpenRouterKey))
	}
	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d", c.Port))
	}
	if c.Registry.Enabled && !c.Development.MockRegistry {
		if !strings.HasPrefix(c.Registry.RedisURL, "redis://") && !strings.HasPrefix(c.Registry.RedisURL, "rediss://") {
			problems = append(problems, "registry redis_url must start with redis:// or rediss://")
		}
	}
	if c.OpenRouter.MaxTokens <= 0 {
		problems = append(problems, "openrouter max_tokens must be positive")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
