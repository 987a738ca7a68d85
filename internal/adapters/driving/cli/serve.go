package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

// serveHandler runs the server; main wires it in before Execute.
var serveHandler func(ctx context.Context, configPath string) error

// configPath is the --config flag value.
var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Starts the HTTP server, the ingestion pipeline and the retention
sweeper. Configuration comes from the TOML file given with --config,
overridden by AILAB_* environment variables.`,
	RunE: runServe,
}

// SetServeHandler installs the server entry point.
func SetServeHandler(h func(ctx context.Context, configPath string) error) {
	serveHandler = h
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveHandler == nil {
		return errors.New("serve handler not configured")
	}
	return serveHandler(cmd.Context(), configPath)
}
