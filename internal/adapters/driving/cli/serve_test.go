package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_Use(t *testing.T) {
	assert.Equal(t, "serve", serveCmd.Use)
}

func TestServeCmd_RequiresHandler(t *testing.T) {
	original := serveHandler
	serveHandler = nil
	defer func() { serveHandler = original }()

	rootCmd.SetArgs([]string{"serve"})
	defer func() { rootCmd.SetArgs(nil) }()

	err := rootCmd.Execute()
	assert.Error(t, err)
}

func TestServeCmd_PassesConfigPath(t *testing.T) {
	original := serveHandler
	defer func() {
		serveHandler = original
		configPath = ""
	}()

	var gotPath string
	SetServeHandler(func(_ context.Context, path string) error {
		gotPath = path
		return nil
	})

	rootCmd.SetArgs([]string{"serve", "--config", "/etc/ailab/config.toml"})
	defer func() { rootCmd.SetArgs(nil) }()

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "/etc/ailab/config.toml", gotPath)
}
