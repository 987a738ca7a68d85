package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driven"
)

// Sweeper Prometheus metrics.
var (
	sweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ailab_sweep_runs_total",
		Help: "Total retention sweep runs",
	})

	sweepDocumentsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ailab_sweep_documents_deleted_total",
		Help: "Total expired documents removed by the sweeper",
	})

	sweepErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ailab_sweep_errors_total",
		Help: "Total errors during retention sweeps",
	})

	sweepDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ailab_sweep_duration_seconds",
		Help:    "Retention sweep duration in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})
)

// Default sweeper parameters.
const (
	// DefaultSweepInterval is how often the background loop runs.
	DefaultSweepInterval = 1 * time.Hour

	// DefaultUsageHistory is how many quota weeks of ledger rows to
	// keep before pruning.
	DefaultUsageHistory = 8 * 7 * 24 * time.Hour
)

// RetentionSweeper removes documents whose retention window has passed,
// and prunes old usage ledger rows as housekeeping.
type RetentionSweeper struct {
	docStore     driven.DocumentStore
	blobStore    driven.BlobStore
	usageStore   driven.UsageStore
	interval     time.Duration
	usageHistory time.Duration
	log          *slog.Logger

	// mu guards against overlapping Sweep runs.
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	now func() time.Time
}

// SweeperOption configures a RetentionSweeper.
type SweeperOption func(*RetentionSweeper)

// WithSweepInterval overrides the background loop interval.
func WithSweepInterval(d time.Duration) SweeperOption {
	return func(s *RetentionSweeper) { s.interval = d }
}

// WithUsageHistory overrides how long ledger rows are kept.
func WithUsageHistory(d time.Duration) SweeperOption {
	return func(s *RetentionSweeper) { s.usageHistory = d }
}

// NewRetentionSweeper creates a new sweeper.
func NewRetentionSweeper(
	docStore driven.DocumentStore,
	blobStore driven.BlobStore,
	usageStore driven.UsageStore,
	log *slog.Logger,
	opts ...SweeperOption,
) *RetentionSweeper {
	s := &RetentionSweeper{
		docStore:     docStore,
		blobStore:    blobStore,
		usageStore:   usageStore,
		interval:     DefaultSweepInterval,
		usageHistory: DefaultUsageHistory,
		log:          log,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With(slog.String("component", "sweeper"))
	return s
}

// Start launches the background sweep loop. Call once at startup.
func (s *RetentionSweeper) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(loopCtx)

	s.log.Info("retention sweeper started", "interval", s.interval.String())
}

// Stop halts the background loop and waits for it to exit.
func (s *RetentionSweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	s.log.Info("retention sweeper stopped")
}

func (s *RetentionSweeper) run(ctx context.Context) {
	defer close(s.done)

	// First pass right after startup
	if _, err := s.Sweep(ctx); err != nil {
		s.log.Error("sweep failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.log.Error("sweep failed", "error", err)
			}
		}
	}
}

// Sweep removes all expired documents and returns how many were
// deleted. Idempotent: a second run right after finds nothing to do.
// Blob deletion failures are logged but never block the record delete,
// so a bad blob cannot pin an expired document forever.
func (s *RetentionSweeper) Sweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	sweepRunsTotal.Inc()

	expired, err := s.docStore.ListExpired(ctx, start)
	if err != nil {
		sweepErrorsTotal.Inc()
		return 0, err
	}

	deleted := 0
	for _, doc := range expired {
		if err := s.deleteExpired(ctx, doc); err != nil {
			sweepErrorsTotal.Inc()
			s.log.Error("deleting expired document",
				"document_id", doc.ID, "error", err)
			continue
		}
		deleted++
	}

	s.pruneUsage(ctx)

	duration := time.Since(start)
	sweepDocumentsDeletedTotal.Add(float64(deleted))
	sweepDurationSeconds.Observe(duration.Seconds())

	if deleted > 0 || len(expired) > 0 {
		s.log.Info("sweep completed",
			"expired", len(expired),
			"deleted", deleted,
			"duration", duration)
	}

	return deleted, nil
}

// deleteExpired removes one document, blob first. A blob failure is
// logged and counted but the record is removed regardless. Chunks
// cascade with the record.
func (s *RetentionSweeper) deleteExpired(ctx context.Context, doc domain.Document) error {
	if err := s.blobStore.Delete(ctx, doc.ID); err != nil {
		sweepErrorsTotal.Inc()
		s.log.Error("deleting expired blob",
			"document_id", doc.ID, "error", err)
	}
	return s.docStore.DeleteDocument(ctx, doc.ID)
}

// pruneUsage drops ledger rows older than the history window. Failures
// never affect the sweep result; quota correctness does not depend on
// pruning.
func (s *RetentionSweeper) pruneUsage(ctx context.Context) {
	cutoff := domain.WeekStart(s.now().Add(-s.usageHistory))
	pruned, err := s.usageStore.PruneBefore(ctx, cutoff)
	if err != nil {
		s.log.Error("pruning usage records", "error", err)
		return
	}
	if pruned > 0 {
		s.log.Info("usage records pruned", "rows", pruned)
	}
}
