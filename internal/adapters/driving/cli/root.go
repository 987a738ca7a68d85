// Package cli holds the cobra command tree for the ailab-docs binary.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "ailab-docs",
	Short: "Document Q&A backend for AI Labs",
	Long: `ailab-docs is the document ingestion and question answering backend:
clients upload documents, the pipeline extracts, chunks and embeds them,
and questions are answered over the retrieved content under weekly
per-client quotas.`,
	SilenceUsage: true,
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
