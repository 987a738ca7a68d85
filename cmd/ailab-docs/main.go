// Command ailab-docs runs the document Q&A backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/mkim-dev/ailab-docs/internal/adapters/driven/ai"
	"github.com/mkim-dev/ailab-docs/internal/adapters/driven/blob"
	"github.com/mkim-dev/ailab-docs/internal/adapters/driven/storage/sqlite"
	"github.com/mkim-dev/ailab-docs/internal/adapters/driving/cli"
	"github.com/mkim-dev/ailab-docs/internal/adapters/driving/httpapi"
	"github.com/mkim-dev/ailab-docs/internal/chunker"
	"github.com/mkim-dev/ailab-docs/internal/config"
	"github.com/mkim-dev/ailab-docs/internal/core/services"
	"github.com/mkim-dev/ailab-docs/internal/extractors"
	"github.com/mkim-dev/ailab-docs/internal/extractors/docx"
	"github.com/mkim-dev/ailab-docs/internal/extractors/pdf"
	"github.com/mkim-dev/ailab-docs/internal/extractors/plaintext"
	"github.com/mkim-dev/ailab-docs/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetServeHandler(runServer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runServer wires every adapter and service and serves until ctx is
// cancelled.
func runServer(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log := logger.Setup(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	log.Info("ailab-docs starting", "version", version, "addr", cfg.Server.Addr)

	// Storage
	store, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	blobStore, err := blob.NewFileStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening blob store: %w", err)
	}

	// AI gateways. The embedding service is required; the LLM is
	// optional and its absence degrades answers to sources only.
	embedder, err := ai.CreateAndValidateEmbeddingService(ai.Settings{
		Provider:   cfg.AI.Embedding.Provider,
		BaseURL:    cfg.AI.Embedding.BaseURL,
		APIKey:     cfg.AI.Embedding.APIKey,
		Model:      cfg.AI.Embedding.Model,
		Dimensions: cfg.AI.Embedding.Dimensions,
	})
	if err != nil {
		return fmt.Errorf("embedding service: %w", err)
	}
	if embedder == nil {
		return fmt.Errorf("embedding service is required, configure ai.embedding")
	}
	defer embedder.Close()

	llm, err := ai.CreateAndValidateLLMService(ai.Settings{
		Provider: cfg.AI.LLM.Provider,
		BaseURL:  cfg.AI.LLM.BaseURL,
		APIKey:   cfg.AI.LLM.APIKey,
		Model:    cfg.AI.LLM.Model,
	})
	if err != nil {
		return fmt.Errorf("llm service: %w", err)
	}
	if llm != nil {
		defer llm.Close()
		log.Info("llm configured", "model", llm.ModelName())
	} else {
		log.Info("no llm configured, answers carry sources only")
	}

	// Extraction
	registry := extractors.NewRegistry(plaintext.New(), docx.New(), pdf.New())

	// Services
	docStore := store.DocumentStore()
	usageStore := store.UsageStore()

	ingest := services.NewIngestService(docStore, blobStore, registry, chunker.New(), embedder, log,
		services.WithMaxUploadBytes(cfg.Ingest.MaxUploadBytes),
		services.WithRetention(cfg.Ingest.Retention()),
		services.WithEmbedConcurrency(cfg.Ingest.EmbedConcurrency),
		services.WithEmbedRate(rate.Limit(cfg.Ingest.EmbedRatePerSec)),
	)
	documents := services.NewDocumentService(docStore, blobStore, log)
	search := services.NewSearchService(docStore, embedder, log)
	question := services.NewQuestionService(search, llm, log)
	quota := services.NewQuotaService(usageStore, services.QuotaLimits{
		Questions: cfg.Quota.Questions,
		Uploads:   cfg.Quota.Uploads,
	}, log)

	// Retention sweeper
	sweeper := services.NewRetentionSweeper(docStore, blobStore, usageStore, log,
		services.WithSweepInterval(cfg.Sweep.Interval()),
		services.WithUsageHistory(cfg.Sweep.UsageHistory()),
	)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// HTTP server
	handler := httpapi.NewHandler(ingest, documents, question, quota, log,
		httpapi.WithMaxUploadBytes(cfg.Ingest.MaxUploadBytes),
		httpapi.WithPing(store.Ping),
		httpapi.WithIngestTimeout(10*time.Minute),
	)
	server := httpapi.NewServer(httpapi.ServerOptions{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout(),
		WriteTimeout:    cfg.Server.WriteTimeout(),
		IdleTimeout:     cfg.Server.IdleTimeout(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout(),
	}, handler, log)

	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("ailab-docs stopped")
	return nil
}
