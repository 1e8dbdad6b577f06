package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/votewatch/election-alerts/internal/ledger"
	"github.com/votewatch/election-alerts/internal/models"
)

// AlertStore is the in-memory index of open alerts (active, acknowledged or
// escalated). It is rebuilt from the ledger at startup and mutated only by
// the engine's transition methods. Resolved alerts live in the ledger only.
type AlertStore struct {
	mu     sync.RWMutex
	alerts map[string]*models.Alert
}

func NewAlertStore() *AlertStore {
	return &AlertStore{
		alerts: make(map[string]*models.Alert),
	}
}

func (s *AlertStore) Get(id string) *models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alerts[id]
}

// List returns copies of all open alerts, newest first.
func (s *AlertStore) List() []*models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *AlertStore) Put(a *models.Alert) {
	s.mu.Lock()
	s.alerts[a.ID] = a
	s.mu.Unlock()
}

func (s *AlertStore) Remove(id string) {
	s.mu.Lock()
	delete(s.alerts, id)
	s.mu.Unlock()
}

func (s *AlertStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}

// Rebuild replays the ledger and loads every alert whose latest snapshot is
// not resolved. Records arrive in ascending timestamp order, so the last
// snapshot seen per id is authoritative; malformed records are skipped with
// a warning rather than failing the whole rebuild. Returns the retained
// alerts so the engine can re-arm escalation timers.
func (s *AlertStore) Rebuild(ctx context.Context, led ledger.Ledger) ([]*models.Alert, error) {
	records, err := led.Query(ctx, ledger.Filter{EntityType: ledger.EntityTypeAlert})
	if err != nil {
		return nil, err
	}

	latest := make(map[string]*models.Alert)
	for _, r := range records {
		var a models.Alert
		if err := json.Unmarshal(r.Snapshot, &a); err != nil || a.ID == "" {
			slog.Warn("skipping malformed ledger record", "record", r.ID, "entity", r.EntityID, "error", err)
			continue
		}
		latest[r.EntityID] = &a
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var retained []*models.Alert
	for id, a := range latest {
		if a.Status == models.StatusResolved {
			continue
		}
		s.alerts[id] = a
		retained = append(retained, a)
	}
	return retained, nil
}
