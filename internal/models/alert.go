package models

import "time"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type Status string

const (
	StatusActive       Status = "active"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
	StatusEscalated    Status = "escalated"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Location struct {
	Parish         string       `json:"parish"`
	PollingStation string       `json:"polling_station,omitempty"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
}

type Alert struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Severity    Severity    `json:"severity"`
	Location    Location    `json:"location"`
	Status      Status      `json:"status"`
	Channels    []Channel   `json:"channels"`
	Recipients  []Recipient `json:"recipients,omitempty"` // empty means resolve dynamically at dispatch
	Resolution  string      `json:"resolution,omitempty"`

	CreatedBy      string     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	ResolvedBy     string     `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// Clone returns a copy with its own channel/recipient slices so alerts can be
// handed outside the engine without aliasing engine-owned state.
func (a *Alert) Clone() *Alert {
	cp := *a
	cp.Channels = append([]Channel(nil), a.Channels...)
	cp.Recipients = append([]Recipient(nil), a.Recipients...)
	return &cp
}
