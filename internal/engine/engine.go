package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/votewatch/election-alerts/internal/ledger"
	"github.com/votewatch/election-alerts/internal/metrics"
	"github.com/votewatch/election-alerts/internal/models"
	"github.com/votewatch/election-alerts/internal/stream"
)

// Dispatcher is the fan-out boundary the engine triggers after a transition.
// Implemented by notify.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, alert *models.Alert)
	DispatchEscalation(ctx context.Context, alert *models.Alert)
}

// Engine orchestrates the alert lifecycle: create, acknowledge, resolve and
// the timer-fired escalate transition. A single mutex serializes every
// transition, which is what makes a user acknowledge racing a firing
// escalation timer resolve to exactly one winner: the loser observes the
// already-changed status and becomes a no-op.
//
// Persistence order is fixed: the ledger append happens first, and only on
// success are the in-memory store, the timers and the fan-out touched.
type Engine struct {
	mu          sync.Mutex
	store       *AlertStore
	ledger      ledger.Ledger
	dispatcher  Dispatcher
	scheduler   *Scheduler
	broadcaster *stream.Broadcaster
	delays      map[models.Severity]time.Duration
	clock       Clock
}

type Option func(*Engine)

// WithClock injects a virtual clock; tests use it to fire escalation timers
// without real sleeps.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

func New(led ledger.Ledger, disp Dispatcher, bc *stream.Broadcaster, delays map[models.Severity]time.Duration, opts ...Option) *Engine {
	e := &Engine{
		store:       NewAlertStore(),
		ledger:      led,
		dispatcher:  disp,
		broadcaster: bc,
		delays:      delays,
		clock:       NewRealClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.scheduler = NewScheduler(e.clock)
	return e
}

// Stop cancels all live escalation timers. Pending transitions finish first.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scheduler.Stop()
}

type CreateInput struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Severity    models.Severity    `json:"severity"`
	Location    models.Location    `json:"location"`
	Channels    []models.Channel   `json:"channels"`
	Recipients  []models.Recipient `json:"recipients"`
	CreatedBy   string             `json:"created_by"`
}

func (e *Engine) Create(ctx context.Context, input CreateInput) (*models.Alert, error) {
	if !input.Severity.Valid() {
		return nil, &ValidationError{Field: "severity", Reason: "is required and must be one of low, medium, high, critical"}
	}
	if input.Location.Parish == "" {
		return nil, &ValidationError{Field: "location.parish", Reason: "is required"}
	}
	for _, ch := range input.Channels {
		if !ch.Valid() {
			return nil, &ValidationError{Field: "channels", Reason: fmt.Sprintf("contains unknown channel %q", ch)}
		}
	}

	channels := input.Channels
	if len(channels) == 0 {
		channels = []models.Channel{models.ChannelSMS, models.ChannelEmail}
	}

	alert := &models.Alert{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Severity:    input.Severity,
		Location:    input.Location,
		Status:      models.StatusActive,
		Channels:    channels,
		Recipients:  input.Recipients,
		CreatedBy:   input.CreatedBy,
		CreatedAt:   e.clock.Now().UTC(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.persist(ctx, ledger.ActionCreate, alert, input.CreatedBy); err != nil {
		return nil, err
	}

	e.store.Put(alert)
	metrics.AlertsCreated.WithLabelValues(string(alert.Severity)).Inc()
	metrics.ActiveAlerts.Set(float64(e.store.Count()))

	id := alert.ID
	if err := e.scheduler.Arm(id, e.escalationDelay(alert.Severity), func() {
		e.escalate(id)
	}); err != nil {
		// Cannot happen for a fresh uuid; log rather than fail the create.
		slog.Error("failed to arm escalation timer", "alert", id, "error", err)
	}

	e.publish("created", alert)
	go e.dispatcher.Dispatch(context.WithoutCancel(ctx), alert.Clone())

	slog.Info("alert created", "alert", id, "severity", alert.Severity, "parish", alert.Location.Parish)
	return alert.Clone(), nil
}

// Acknowledge is legal from active or escalated. It cancels the escalation
// timer; the cancel is unconditional and safe even if the timer already
// fired and lost the race for the engine lock.
func (e *Engine) Acknowledge(ctx context.Context, id, actor string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.store.Get(id)
	if current == nil {
		if e.wasResolved(ctx, id) {
			return &InvalidStateError{ID: id, Status: models.StatusResolved, Op: "acknowledge"}
		}
		return &NotFoundError{ID: id}
	}
	if current.Status != models.StatusActive && current.Status != models.StatusEscalated {
		return &InvalidStateError{ID: id, Status: current.Status, Op: "acknowledge"}
	}

	updated := current.Clone()
	updated.Status = models.StatusAcknowledged
	updated.AcknowledgedBy = actor
	now := e.clock.Now().UTC()
	updated.AcknowledgedAt = &now

	if err := e.persist(ctx, ledger.ActionAcknowledge, updated, actor); err != nil {
		return err
	}

	e.scheduler.Cancel(id)
	e.store.Put(updated)
	e.publish("acknowledged", updated)

	slog.Info("alert acknowledged", "alert", id, "actor", actor)
	return nil
}

// Resolve is legal from any non-resolved state and removes the alert from
// the open index. Its history stays in the ledger.
func (e *Engine) Resolve(ctx context.Context, id, actor, resolution string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.store.Get(id)
	if current == nil {
		// Resolved alerts leave the store, so a second resolve lands here.
		// Distinguish it from a genuinely unknown id via the ledger.
		if e.wasResolved(ctx, id) {
			return &InvalidStateError{ID: id, Status: models.StatusResolved, Op: "resolve"}
		}
		return &NotFoundError{ID: id}
	}

	updated := current.Clone()
	updated.Status = models.StatusResolved
	updated.ResolvedBy = actor
	updated.Resolution = resolution
	now := e.clock.Now().UTC()
	updated.ResolvedAt = &now

	if err := e.persist(ctx, ledger.ActionResolve, updated, actor); err != nil {
		return err
	}

	e.scheduler.Cancel(id)
	e.store.Remove(id)
	metrics.ActiveAlerts.Set(float64(e.store.Count()))
	e.publish("resolved", updated)

	slog.Info("alert resolved", "alert", id, "actor", actor)
	return nil
}

// escalate runs when an escalation timer fires. The status is re-checked
// under the engine lock against the store, not against whatever snapshot
// existed when the timer was armed: if the alert was acknowledged or
// resolved in the meantime, this is a no-op.
func (e *Engine) escalate(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.store.Get(id)
	if current == nil || current.Status != models.StatusActive {
		slog.Debug("escalation timer fired on non-active alert", "alert", id)
		return
	}

	updated := current.Clone()
	updated.Status = models.StatusEscalated

	ctx := context.Background()
	if err := e.persist(ctx, ledger.ActionEscalate, updated, ""); err != nil {
		slog.Error("failed to persist escalation", "alert", id, "error", err)
		return
	}

	e.store.Put(updated)
	metrics.AlertsEscalated.Inc()
	e.publish("escalated", updated)
	go e.dispatcher.DispatchEscalation(ctx, updated.Clone())

	slog.Warn("alert escalated", "alert", id, "severity", updated.Severity, "parish", updated.Location.Parish)
}

// Rebuild loads open alerts from the ledger and re-arms escalation timers
// for alerts still active, using the original severity deadline minus the
// time already elapsed. A deadline already passed escalates immediately.
func (e *Engine) Rebuild(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	retained, err := e.store.Rebuild(ctx, e.ledger)
	if err != nil {
		return &PersistenceError{Op: "rebuild", Err: err}
	}

	metrics.ActiveAlerts.Set(float64(e.store.Count()))

	armed := 0
	for _, a := range retained {
		if a.Status != models.StatusActive {
			continue
		}
		remaining := e.escalationDelay(a.Severity) - e.clock.Now().Sub(a.CreatedAt)
		if remaining < 0 {
			remaining = 0
		}
		id := a.ID
		if err := e.scheduler.Arm(id, remaining, func() {
			e.escalate(id)
		}); err != nil {
			slog.Error("failed to re-arm escalation timer", "alert", id, "error", err)
			continue
		}
		armed++
	}

	slog.Info("alert store rebuilt", "open", e.store.Count(), "timers", armed)
	return nil
}

func (e *Engine) ActiveAlerts() []*models.Alert {
	return e.store.List()
}

// AllAlerts replays creation records from the ledger, newest first.
func (e *Engine) AllAlerts(ctx context.Context) ([]*models.Alert, error) {
	create := ledger.ActionCreate
	records, err := e.ledger.Query(ctx, ledger.Filter{EntityType: ledger.EntityTypeAlert, Action: &create})
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}

	alerts := make([]*models.Alert, 0, len(records))
	for _, r := range records {
		var a models.Alert
		if err := json.Unmarshal(r.Snapshot, &a); err != nil || a.ID == "" {
			slog.Warn("skipping malformed ledger record", "record", r.ID, "error", err)
			continue
		}
		alerts = append(alerts, &a)
	}

	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})
	return alerts, nil
}

type ChannelConfig struct {
	Channel models.Channel `json:"channel"`
	Enabled bool           `json:"enabled"`
}

func (e *Engine) Channels() []ChannelConfig {
	out := make([]ChannelConfig, 0, len(models.Channels))
	for _, ch := range models.Channels {
		out = append(out, ChannelConfig{Channel: ch, Enabled: true})
	}
	return out
}

type EscalationRule struct {
	Severity     models.Severity `json:"severity"`
	DelayMinutes int             `json:"delay_minutes"`
}

func (e *Engine) EscalationRules() []EscalationRule {
	order := []models.Severity{models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow}
	out := make([]EscalationRule, 0, len(order))
	for _, sev := range order {
		out = append(out, EscalationRule{Severity: sev, DelayMinutes: int(e.escalationDelay(sev) / time.Minute)})
	}
	return out
}

// ArmedTimers exposes the live timer count for invariant checks.
func (e *Engine) ArmedTimers() int {
	return e.scheduler.Count()
}

func (e *Engine) escalationDelay(sev models.Severity) time.Duration {
	if d, ok := e.delays[sev]; ok {
		return d
	}
	// Unknown severities fall back to the most conservative deadline.
	return 5 * time.Minute
}

func (e *Engine) persist(ctx context.Context, action ledger.Action, alert *models.Alert, actor string) error {
	snapshot, err := json.Marshal(alert)
	if err != nil {
		return &PersistenceError{Op: string(action), Err: err}
	}

	rec := ledger.Record{
		ID:         uuid.NewString(),
		Action:     action,
		EntityType: ledger.EntityTypeAlert,
		EntityID:   alert.ID,
		ActorID:    actor,
		Timestamp:  e.clock.Now().UTC(),
		Snapshot:   snapshot,
	}
	if err := e.ledger.Append(ctx, rec); err != nil {
		return &PersistenceError{Op: string(action), Err: err}
	}
	return nil
}

func (e *Engine) wasResolved(ctx context.Context, id string) bool {
	resolve := ledger.ActionResolve
	records, err := e.ledger.Query(ctx, ledger.Filter{
		EntityType: ledger.EntityTypeAlert,
		EntityID:   id,
		Action:     &resolve,
		Limit:      1,
	})
	return err == nil && len(records) > 0
}

func (e *Engine) publish(event string, alert *models.Alert) {
	if e.broadcaster == nil {
		return
	}
	e.broadcaster.Broadcast(stream.Event{
		Type:      event,
		Alert:     alert.Clone(),
		Timestamp: e.clock.Now().UTC(),
	})
}
