package ledger

import (
	"context"
	"time"
)

type Action string

const (
	ActionCreate      Action = "create"
	ActionAcknowledge Action = "acknowledge"
	ActionResolve     Action = "resolve"
	ActionEscalate    Action = "escalate"
)

const EntityTypeAlert = "alert"

// Record is one append-only ledger entry: a transition plus a JSON snapshot
// of the entity's post-transition state. Replaying all records for an entity
// id in timestamp order reconstructs its current state.
type Record struct {
	ID         string
	Action     Action
	EntityType string
	EntityID   string
	ActorID    string // empty for system-fired transitions
	Timestamp  time.Time
	Snapshot   []byte
}

type Filter struct {
	EntityType string
	EntityID   string
	Action     *Action
	Since      *time.Time
	Limit      int
}

// Ledger is the engine's only persistence: appends are never updated or
// deleted, and queries return records in ascending timestamp order.
type Ledger interface {
	Append(ctx context.Context, r Record) error
	Query(ctx context.Context, opts Filter) ([]Record, error)
}
