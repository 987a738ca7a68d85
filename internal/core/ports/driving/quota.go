package driving

import (
	"context"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
)

// QuotaService enforces weekly per-client resource limits.
type QuotaService interface {
	// CheckAndConsume atomically consumes one unit of a resource for the
	// current quota week. Under concurrent requests from the same client
	// the total admitted consumptions never exceed the configured limit.
	CheckAndConsume(ctx context.Context, clientID string, resource domain.ResourceKind) (domain.QuotaDecision, error)

	// Peek returns current usage for every resource kind without
	// consuming, for display purposes.
	Peek(ctx context.Context, clientID string) ([]domain.UsageRecord, error)
}
