package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/votewatch/election-alerts/internal/ledger"
	"github.com/votewatch/election-alerts/internal/models"
)

type Stats struct {
	ActiveAlerts       int                     `json:"active_alerts"`
	TotalAlerts        int                     `json:"total_alerts"`
	CreatedLast24h     int                     `json:"created_last_24h"`
	AvgResponseMinutes float64                 `json:"avg_response_minutes"`
	SeverityBreakdown  map[models.Severity]int `json:"severity_breakdown"`
}

// Statistics is computed from the full ledger history, so resolved alerts
// count toward totals and response times. All four severity buckets are
// always present; the mean over zero acknowledged alerts is 0, not NaN.
func (e *Engine) Statistics(ctx context.Context) (*Stats, error) {
	records, err := e.ledger.Query(ctx, ledger.Filter{EntityType: ledger.EntityTypeAlert})
	if err != nil {
		return nil, &PersistenceError{Op: "statistics", Err: err}
	}

	stats := &Stats{
		ActiveAlerts: e.store.Count(),
		SeverityBreakdown: map[models.Severity]int{
			models.SeverityCritical: 0,
			models.SeverityHigh:     0,
			models.SeverityMedium:   0,
			models.SeverityLow:      0,
		},
	}

	cutoff := e.clock.Now().Add(-24 * time.Hour)
	latest := make(map[string]*models.Alert)

	for _, r := range records {
		var a models.Alert
		if err := json.Unmarshal(r.Snapshot, &a); err != nil || a.ID == "" {
			slog.Warn("skipping malformed ledger record", "record", r.ID, "error", err)
			continue
		}

		if r.Action == ledger.ActionCreate {
			stats.TotalAlerts++
			stats.SeverityBreakdown[a.Severity]++
			if a.CreatedAt.After(cutoff) {
				stats.CreatedLast24h++
			}
		}
		latest[r.EntityID] = &a
	}

	var totalMinutes float64
	var acknowledged int
	for _, a := range latest {
		if a.AcknowledgedAt == nil || a.CreatedAt.IsZero() {
			continue
		}
		totalMinutes += a.AcknowledgedAt.Sub(a.CreatedAt).Minutes()
		acknowledged++
	}
	if acknowledged > 0 {
		stats.AvgResponseMinutes = totalMinutes / float64(acknowledged)
	}

	return stats, nil
}
