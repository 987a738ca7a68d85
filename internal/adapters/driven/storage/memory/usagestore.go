package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driven"
)

// Ensure UsageStore implements the interface.
var _ driven.UsageStore = (*UsageStore)(nil)

type usageKey struct {
	clientID string
	resource domain.ResourceKind
	week     string
}

// UsageStore is an in-memory implementation of driven.UsageStore for
// testing. The single mutex gives it the same atomicity the SQLite
// conditional update provides.
type UsageStore struct {
	mu     sync.Mutex
	counts map[usageKey]int
}

// NewUsageStore creates a new in-memory usage store.
func NewUsageStore() *UsageStore {
	return &UsageStore{
		counts: make(map[usageKey]int),
	}
}

func keyFor(clientID string, resource domain.ResourceKind, weekStart time.Time) usageKey {
	return usageKey{
		clientID: clientID,
		resource: resource,
		week:     weekStart.Format("2006-01-02"),
	}
}

// ConsumeIfUnder increments the counter if below limit.
func (s *UsageStore) ConsumeIfUnder(_ context.Context, clientID string, resource domain.ResourceKind, weekStart time.Time, limit int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyFor(clientID, resource, weekStart)
	used := s.counts[key]
	if used >= limit {
		return used, false, nil
	}
	used++
	s.counts[key] = used
	return used, true, nil
}

// GetUsage returns the count for one ledger key.
func (s *UsageStore) GetUsage(_ context.Context, clientID string, resource domain.ResourceKind, weekStart time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[keyFor(clientID, resource, weekStart)], nil
}

// PruneBefore removes ledger rows whose week started before cutoff.
func (s *UsageStore) PruneBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoffKey := cutoff.Format("2006-01-02")
	pruned := 0
	for key := range s.counts {
		if key.week < cutoffKey {
			delete(s.counts, key)
			pruned++
		}
	}
	return pruned, nil
}
