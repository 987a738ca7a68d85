package driven

import (
	"context"
	"time"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
)

// UsageStore persists the weekly quota ledger.
//
// ConsumeIfUnder is the ledger's one concurrency-critical operation: it
// must be a single atomic increment-with-ceiling at the storage layer,
// safe across concurrent requests and across process instances. A
// separate read-then-write would allow limit+1 consumptions through
// under race.
type UsageStore interface {
	// ConsumeIfUnder increments the (clientID, resource, weekStart)
	// counter by one if the current count is below limit. It creates the
	// record lazily with a zero count on first use in a week. Returns
	// the count after the operation and whether the increment was
	// admitted.
	ConsumeIfUnder(ctx context.Context, clientID string, resource domain.ResourceKind, weekStart time.Time, limit int) (used int, allowed bool, err error)

	// GetUsage returns the count for one ledger key, with zero for a
	// record that does not exist yet.
	GetUsage(ctx context.Context, clientID string, resource domain.ResourceKind, weekStart time.Time) (int, error)

	// PruneBefore removes ledger rows whose week started before cutoff.
	// Routine housekeeping only; quota correctness never depends on it.
	PruneBefore(ctx context.Context, cutoff time.Time) (int, error)
}
