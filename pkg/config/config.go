// Package config loads application configuration from YAML with
// environment-variable fallbacks for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// API keys
	AnthropicKey string `yaml:"anthropic_key"`
	OpenAIKey    string `yaml:"openai_key"`

	// Model configuration
	Provider  string `yaml:"provider"`  // anthropic, openai
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`

	// Embeddings
	EmbeddingModel      string `yaml:"embedding_model"`
	EmbeddingDimensions int    `yaml:"embedding_dimensions"`
	EmbeddingBaseURL    string `yaml:"embedding_base_url"`

	// Corpus / search
	MaxResults   int `yaml:"max_results"`
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	// Sessions
	MaxHistory             int    `yaml:"max_history"`
	SessionTimeoutMinutes  int    `yaml:"session_timeout_minutes"`
	CleanupIntervalMinutes int    `yaml:"cleanup_interval_minutes"`
	SessionStore           string `yaml:"session_store"` // memory, redis
	RedisAddr              string `yaml:"redis_addr"`
	RedisPassword          string `yaml:"redis_password"`

	// HTTP server
	Addr              string  `yaml:"addr"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	RequestBurst      int     `yaml:"request_burst"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Provider:               "anthropic",
		Model:                  "claude-sonnet-4-20250514",
		MaxTokens:              800,
		EmbeddingModel:         "text-embedding-3-small",
		EmbeddingDimensions:    1536,
		MaxResults:             5,
		ChunkSize:              800,
		ChunkOverlap:           100,
		MaxHistory:             2,
		SessionTimeoutMinutes:  60,
		CleanupIntervalMinutes: 30,
		SessionStore:           "memory",
		Addr:                   ":8000",
		RequestsPerSecond:      10,
		RequestBurst:           20,
	}
}

// Load loads configuration from a YAML file, applying defaults and
// environment fallbacks. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyDefaults(cfg)

	// Load API keys from environment if not in config
	if cfg.AnthropicKey == "" {
		cfg.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.OpenAIKey == "" {
		cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Provider == "" {
		cfg.Provider = def.Provider
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = def.EmbeddingModel
	}
	if cfg.EmbeddingDimensions == 0 {
		cfg.EmbeddingDimensions = def.EmbeddingDimensions
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap == 0 {
		cfg.ChunkOverlap = def.ChunkOverlap
	}
	if cfg.MaxHistory == 0 {
		cfg.MaxHistory = def.MaxHistory
	}
	if cfg.SessionTimeoutMinutes == 0 {
		cfg.SessionTimeoutMinutes = def.SessionTimeoutMinutes
	}
	if cfg.CleanupIntervalMinutes == 0 {
		cfg.CleanupIntervalMinutes = def.CleanupIntervalMinutes
	}
	if cfg.SessionStore == "" {
		cfg.SessionStore = def.SessionStore
	}
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.RequestBurst == 0 {
		cfg.RequestBurst = def.RequestBurst
	}
}

// SessionTimeout returns the idle timeout as a duration.
func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMinutes) * time.Minute
}

// CleanupInterval returns the sweep interval as a duration.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalMinutes) * time.Minute
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.AnthropicKey == "" {
			return fmt.Errorf("anthropic_key is required (or set ANTHROPIC_API_KEY)")
		}
	case "openai":
		if c.OpenAIKey == "" {
			return fmt.Errorf("openai_key is required (or set OPENAI_API_KEY)")
		}
	default:
		return fmt.Errorf("unsupported provider: %s", c.Provider)
	}

	if c.OpenAIKey == "" {
		return fmt.Errorf("openai_key is required for embeddings (or set OPENAI_API_KEY)")
	}

	if c.SessionStore == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("redis_addr is required when session_store is redis")
	}

	return nil
}
