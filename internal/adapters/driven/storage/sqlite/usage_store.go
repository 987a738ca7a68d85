package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driven"
)

// usageStore implements driven.UsageStore.
type usageStore struct {
	store *Store
}

var _ driven.UsageStore = (*usageStore)(nil)

// ConsumeIfUnder atomically increments a client's weekly counter if it
// is still below the limit. Two statements, both safe to race: the
// insert only seeds a zero row, and the conditional update is where
// exactly one of N concurrent callers at count limit-1 wins. RETURNING
// reports the count this caller's own increment produced, not whatever
// a later caller raced it to.
func (s *usageStore) ConsumeIfUnder(ctx context.Context, clientID string, resource domain.ResourceKind, weekStart time.Time, limit int) (int, bool, error) {
	week := weekKey(weekStart)

	if _, err := s.store.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO usage_records (client_id, resource, week_start, count_used)
		VALUES (?, ?, ?, 0)
	`, clientID, resource.String(), week); err != nil {
		return 0, false, fmt.Errorf("seeding usage record: %w", err)
	}

	var used int
	err := s.store.db.QueryRowContext(ctx, `
		UPDATE usage_records SET count_used = count_used + 1
		WHERE client_id = ? AND resource = ? AND week_start = ? AND count_used < ?
		RETURNING count_used
	`, clientID, resource.String(), week, limit).Scan(&used)
	if err == nil {
		return used, true, nil
	}
	if err != sql.ErrNoRows {
		return 0, false, fmt.Errorf("consuming usage: %w", err)
	}

	// Denied: report the current count without consuming.
	if err := s.store.db.QueryRowContext(ctx, `
		SELECT count_used FROM usage_records
		WHERE client_id = ? AND resource = ? AND week_start = ?
	`, clientID, resource.String(), week).Scan(&used); err != nil {
		return 0, false, fmt.Errorf("reading usage: %w", err)
	}

	return used, false, nil
}

// GetUsage returns the current count for a client and resource without
// consuming. A missing row reads as zero.
func (s *usageStore) GetUsage(ctx context.Context, clientID string, resource domain.ResourceKind, weekStart time.Time) (int, error) {
	var used int
	err := s.store.db.QueryRowContext(ctx, `
		SELECT count_used FROM usage_records
		WHERE client_id = ? AND resource = ? AND week_start = ?
	`, clientID, resource.String(), weekKey(weekStart)).Scan(&used)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading usage: %w", err)
	}
	return used, nil
}

// PruneBefore deletes usage rows for weeks older than the cutoff and
// returns how many were removed. week_start keys sort lexicographically
// in date order, so a plain string compare suffices.
func (s *usageStore) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.store.db.ExecContext(ctx,
		"DELETE FROM usage_records WHERE week_start < ?", weekKey(cutoff))
	if err != nil {
		return 0, fmt.Errorf("pruning usage records: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning usage records: %w", err)
	}
	return int(affected), nil
}
