package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driven"
	"github.com/mkim-dev/ailab-docs/internal/core/ports/driving"
)

// Ensure QuotaService implements the interface.
var _ driving.QuotaService = (*QuotaService)(nil)

// Default weekly limits per client.
const (
	DefaultQuestionLimit = 10
	DefaultUploadLimit   = 3
)

// QuotaLimits holds the weekly ceiling per resource kind.
type QuotaLimits struct {
	Questions int
	Uploads   int
}

// DefaultQuotaLimits returns the stock limits.
func DefaultQuotaLimits() QuotaLimits {
	return QuotaLimits{
		Questions: DefaultQuestionLimit,
		Uploads:   DefaultUploadLimit,
	}
}

// QuotaService enforces weekly per-client resource limits on top of the
// usage ledger. All atomicity lives in the store; this layer adds week
// boundary computation and limit configuration.
type QuotaService struct {
	usageStore driven.UsageStore
	limits     QuotaLimits
	log        *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewQuotaService creates a new quota service.
func NewQuotaService(usageStore driven.UsageStore, limits QuotaLimits, log *slog.Logger) *QuotaService {
	if limits.Questions <= 0 {
		limits.Questions = DefaultQuestionLimit
	}
	if limits.Uploads <= 0 {
		limits.Uploads = DefaultUploadLimit
	}
	if log == nil {
		log = slog.Default()
	}
	return &QuotaService{
		usageStore: usageStore,
		limits:     limits,
		log:        log,
		now:        time.Now,
	}
}

// CheckAndConsume atomically consumes one unit of a resource for the
// current quota week.
func (s *QuotaService) CheckAndConsume(ctx context.Context, clientID string, resource domain.ResourceKind) (domain.QuotaDecision, error) {
	if clientID == "" {
		return domain.QuotaDecision{}, fmt.Errorf("%w: client id is required", domain.ErrInvalidInput)
	}
	limit, err := s.limitFor(resource)
	if err != nil {
		return domain.QuotaDecision{}, err
	}

	now := s.now()
	weekStart := domain.WeekStart(now)

	used, allowed, err := s.usageStore.ConsumeIfUnder(ctx, clientID, resource, weekStart, limit)
	if err != nil {
		return domain.QuotaDecision{}, fmt.Errorf("consuming quota: %w", err)
	}

	decision := domain.QuotaDecision{
		Allowed:   allowed,
		Used:      used,
		Limit:     limit,
		WeekStart: weekStart,
		ResetsAt:  domain.NextWeekStart(now),
	}

	if !allowed {
		s.log.Info("quota exceeded",
			"client_id", clientID,
			"resource", resource.String(),
			"used", used,
			"limit", limit)
	}

	return decision, nil
}

// Peek returns current usage for every resource kind without consuming.
func (s *QuotaService) Peek(ctx context.Context, clientID string) ([]domain.UsageRecord, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: client id is required", domain.ErrInvalidInput)
	}

	weekStart := domain.WeekStart(s.now())
	resources := []domain.ResourceKind{domain.ResourceQuestion, domain.ResourceUpload}

	records := make([]domain.UsageRecord, 0, len(resources))
	for _, resource := range resources {
		used, err := s.usageStore.GetUsage(ctx, clientID, resource, weekStart)
		if err != nil {
			return nil, fmt.Errorf("reading usage for %s: %w", resource, err)
		}
		limit, err := s.limitFor(resource)
		if err != nil {
			return nil, err
		}
		records = append(records, domain.UsageRecord{
			ClientID:  clientID,
			Resource:  resource,
			WeekStart: weekStart,
			Used:      used,
			Limit:     limit,
		})
	}

	return records, nil
}

func (s *QuotaService) limitFor(resource domain.ResourceKind) (int, error) {
	switch resource {
	case domain.ResourceQuestion:
		return s.limits.Questions, nil
	case domain.ResourceUpload:
		return s.limits.Uploads, nil
	default:
		return 0, fmt.Errorf("%w: unknown resource kind %q", domain.ErrInvalidInput, resource)
	}
}
