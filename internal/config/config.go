// Package config loads server configuration from a TOML file with
// AILAB_* environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all server configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
	Quota   QuotaConfig   `toml:"quota"`
	Ingest  IngestConfig  `toml:"ingest"`
	Sweep   SweepConfig   `toml:"sweep"`
	AI      AIConfig      `toml:"ai"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `toml:"addr"`

	ReadTimeoutSeconds     int `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int `toml:"write_timeout_seconds"`
	IdleTimeoutSeconds     int `toml:"idle_timeout_seconds"`
	ShutdownTimeoutSeconds int `toml:"shutdown_timeout_seconds"`
}

// StorageConfig holds data directory locations.
type StorageConfig struct {
	// DataDir is the root directory for the database and blobs.
	DataDir string `toml:"data_dir"`
}

// LogConfig holds logging parameters.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`

	// Format is json or text.
	Format string `toml:"format"`
}

// QuotaConfig holds the weekly per-client limits.
type QuotaConfig struct {
	Questions int `toml:"questions"`
	Uploads   int `toml:"uploads"`
}

// IngestConfig holds ingestion pipeline parameters.
type IngestConfig struct {
	MaxUploadBytes   int64 `toml:"max_upload_bytes"`
	RetentionDays    int   `toml:"retention_days"`
	EmbedConcurrency int   `toml:"embed_concurrency"`
	EmbedRatePerSec  int   `toml:"embed_rate_per_sec"`
}

// SweepConfig holds retention sweeper parameters.
type SweepConfig struct {
	IntervalMinutes   int `toml:"interval_minutes"`
	UsageHistoryWeeks int `toml:"usage_history_weeks"`
}

// AIConfig holds the embedding and completion gateway settings.
type AIConfig struct {
	Embedding ProviderConfig `toml:"embedding"`
	LLM       ProviderConfig `toml:"llm"`
}

// ProviderConfig selects and configures one AI provider.
type ProviderConfig struct {
	// Provider is one of ollama, openai, anthropic. Empty disables the
	// service.
	Provider   string `toml:"provider"`
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
}

// Default returns the configuration used when no file and no overrides
// are present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                   ":8080",
			ReadTimeoutSeconds:     30,
			WriteTimeoutSeconds:    60,
			IdleTimeoutSeconds:     120,
			ShutdownTimeoutSeconds: 10,
		},
		Storage: StorageConfig{
			DataDir: "data",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Quota: QuotaConfig{
			Questions: 10,
			Uploads:   3,
		},
		Ingest: IngestConfig{
			MaxUploadBytes:   10 << 20,
			RetentionDays:    30,
			EmbedConcurrency: 4,
			EmbedRatePerSec:  5,
		},
		Sweep: SweepConfig{
			IntervalMinutes:   60,
			UsageHistoryWeeks: 8,
		},
		AI: AIConfig{
			Embedding: ProviderConfig{
				Provider: "ollama",
				Model:    "nomic-embed-text",
			},
		},
	}
}

// Load reads the TOML file at path (missing file means defaults), applies
// AILAB_* environment overrides and validates the result. An empty path
// skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults plus env only.
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides configuration from AILAB_* environment variables.
// Unset variables leave the file/default value in place.
func (c *Config) applyEnv() {
	envString("AILAB_ADDR", &c.Server.Addr)
	envString("AILAB_DATA_DIR", &c.Storage.DataDir)
	envString("AILAB_LOG_LEVEL", &c.Log.Level)
	envString("AILAB_LOG_FORMAT", &c.Log.Format)

	envInt("AILAB_QUOTA_QUESTIONS", &c.Quota.Questions)
	envInt("AILAB_QUOTA_UPLOADS", &c.Quota.Uploads)

	envInt64("AILAB_MAX_UPLOAD_BYTES", &c.Ingest.MaxUploadBytes)
	envInt("AILAB_RETENTION_DAYS", &c.Ingest.RetentionDays)

	envString("AILAB_EMBEDDING_PROVIDER", &c.AI.Embedding.Provider)
	envString("AILAB_EMBEDDING_BASE_URL", &c.AI.Embedding.BaseURL)
	envString("AILAB_EMBEDDING_API_KEY", &c.AI.Embedding.APIKey)
	envString("AILAB_EMBEDDING_MODEL", &c.AI.Embedding.Model)
	envInt("AILAB_EMBEDDING_DIMENSIONS", &c.AI.Embedding.Dimensions)

	envString("AILAB_LLM_PROVIDER", &c.AI.LLM.Provider)
	envString("AILAB_LLM_BASE_URL", &c.AI.LLM.BaseURL)
	envString("AILAB_LLM_API_KEY", &c.AI.LLM.APIKey)
	envString("AILAB_LLM_MODEL", &c.AI.LLM.Model)
}

// Validate checks for values the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Quota.Questions <= 0 {
		return fmt.Errorf("quota.questions must be positive, got %d", c.Quota.Questions)
	}
	if c.Quota.Uploads <= 0 {
		return fmt.Errorf("quota.uploads must be positive, got %d", c.Quota.Uploads)
	}
	if c.Ingest.MaxUploadBytes <= 0 {
		return fmt.Errorf("ingest.max_upload_bytes must be positive, got %d", c.Ingest.MaxUploadBytes)
	}
	if c.Ingest.RetentionDays <= 0 {
		return fmt.Errorf("ingest.retention_days must be positive, got %d", c.Ingest.RetentionDays)
	}
	if c.AI.Embedding.Provider == "" {
		return fmt.Errorf("ai.embedding.provider is required")
	}
	return nil
}

// Convenience accessors converting unit-suffixed fields to durations.

func (c *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

func (c *ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

func (c *ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

func (c *IngestConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func (c *SweepConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

func (c *SweepConfig) UsageHistory() time.Duration {
	return time.Duration(c.UsageHistoryWeeks) * 7 * 24 * time.Hour
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func envInt64(key string, dst *int64) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			*dst = n
		}
	}
}
