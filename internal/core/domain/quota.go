package domain

import "time"

// ResourceKind identifies a rate-limited resource.
type ResourceKind string

// Rate-limited resources. Each kind has an independent weekly ledger;
// exhausting one never affects the other.
const (
	// ResourceQuestion is one answered question.
	ResourceQuestion ResourceKind = "question"

	// ResourceUpload is one accepted document upload.
	ResourceUpload ResourceKind = "upload"
)

// IsValid returns true if the resource kind is recognised.
func (r ResourceKind) IsValid() bool {
	switch r {
	case ResourceQuestion, ResourceUpload:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (r ResourceKind) String() string {
	return string(r)
}

// UsageRecord tracks a client's consumption of one resource kind within
// one quota week. Records are created lazily on first use and their
// count only ever increases within a week.
type UsageRecord struct {
	// ClientID is the opaque client identity.
	ClientID string

	// Resource is the resource kind this record counts.
	Resource ResourceKind

	// WeekStart is the Monday 00:00 boundary (reference timezone) that
	// keys this record.
	WeekStart time.Time

	// Used is the number of successful consumptions this week.
	Used int

	// Limit is the configured weekly ceiling for this resource kind.
	Limit int
}

// QuotaDecision is the outcome of an atomic check-and-consume.
type QuotaDecision struct {
	// Allowed is true if the consumption was admitted.
	Allowed bool

	// Used is the count after this decision (unchanged when denied).
	Used int

	// Limit is the weekly ceiling.
	Limit int

	// WeekStart is the start of the quota week the decision applies to.
	WeekStart time.Time

	// ResetsAt is when a fresh week (and a zeroed counter) begins.
	ResetsAt time.Time
}

// referenceZone is the fixed timezone anchoring quota weeks. Week
// boundaries are computed here regardless of the server's local clock.
var referenceZone = loadReferenceZone()

func loadReferenceZone() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		// KST has no daylight saving, so a fixed offset is equivalent.
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// WeekStart returns the Monday 00:00 boundary, in the reference
// timezone, of the quota week containing t.
func WeekStart(t time.Time) time.Time {
	local := t.In(referenceZone)
	// time.Weekday numbers Sunday as 0; shift so Monday is 0.
	daysSinceMonday := (int(local.Weekday()) + 6) % 7
	year, month, day := local.AddDate(0, 0, -daysSinceMonday).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, referenceZone)
}

// NextWeekStart returns the boundary at which the quota week containing
// t ends and counters reset.
func NextWeekStart(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 7)
}
