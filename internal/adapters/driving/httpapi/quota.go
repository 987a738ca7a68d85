package httpapi

import (
	"net/http"
	"time"

	"github.com/mkim-dev/ailab-docs/internal/core/domain"
)

// usageJSON is one resource's current consumption.
type usageJSON struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// quotaJSON is the GET /quota response.
type quotaJSON struct {
	WeekStart time.Time            `json:"week_start"`
	ResetsAt  time.Time            `json:"resets_at"`
	Resources map[string]usageJSON `json:"resources"`
}

// getQuota returns the caller's current usage without consuming.
func (h *Handler) getQuota(w http.ResponseWriter, r *http.Request) {
	records, err := h.quota.Peek(r.Context(), ClientID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	out := quotaJSON{Resources: make(map[string]usageJSON, len(records))}
	for _, record := range records {
		out.WeekStart = record.WeekStart
		out.ResetsAt = domain.NextWeekStart(record.WeekStart)
		out.Resources[record.Resource.String()] = usageJSON{
			Used:  record.Used,
			Limit: record.Limit,
		}
	}

	writeJSON(w, http.StatusOK, out)
}
