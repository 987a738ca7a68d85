package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "data", cfg.Storage.DataDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Quota.Questions)
	assert.Equal(t, 3, cfg.Quota.Uploads)
	assert.Equal(t, int64(10<<20), cfg.Ingest.MaxUploadBytes)
	assert.Equal(t, 30*24*time.Hour, cfg.Ingest.Retention())
	assert.Equal(t, time.Hour, cfg.Sweep.Interval())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
addr = ":9090"

[storage]
data_dir = "/var/lib/ailab"

[log]
level = "debug"
format = "text"

[quota]
questions = 20
uploads = 5

[ai.embedding]
provider = "openai"
api_key = "sk-test"
model = "text-embedding-3-small"
dimensions = 1536
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/var/lib/ailab", cfg.Storage.DataDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 20, cfg.Quota.Questions)
	assert.Equal(t, 5, cfg.Quota.Uploads)
	assert.Equal(t, "openai", cfg.AI.Embedding.Provider)
	assert.Equal(t, 1536, cfg.AI.Embedding.Dimensions)

	// Sections absent from the file keep their defaults
	assert.Equal(t, int64(10<<20), cfg.Ingest.MaxUploadBytes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AILAB_ADDR", ":7070")
	t.Setenv("AILAB_QUOTA_QUESTIONS", "99")
	t.Setenv("AILAB_EMBEDDING_PROVIDER", "openai")
	t.Setenv("AILAB_EMBEDDING_API_KEY", "sk-env")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 99, cfg.Quota.Questions)
	assert.Equal(t, "openai", cfg.AI.Embedding.Provider)
	assert.Equal(t, "sk-env", cfg.AI.Embedding.APIKey)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\naddr = \":9090\"\n"), 0600))
	t.Setenv("AILAB_ADDR", ":6060")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.Server.Addr)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not toml ==="), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"empty data dir", func(c *Config) { c.Storage.DataDir = "" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"zero question quota", func(c *Config) { c.Quota.Questions = 0 }},
		{"negative upload quota", func(c *Config) { c.Quota.Uploads = -1 }},
		{"zero upload size", func(c *Config) { c.Ingest.MaxUploadBytes = 0 }},
		{"zero retention", func(c *Config) { c.Ingest.RetentionDays = 0 }},
		{"no embedding provider", func(c *Config) { c.AI.Embedding.Provider = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
