package audit

import "time"

// Event types.
const (
	EventTypeSetup     = "encryption.setup"
	EventTypeUnlock    = "session.unlock"
	EventTypeLock      = "session.lock"
	EventTypeAutoLock  = "session.auto_lock"
	EventTypeMigration = "migration.run"
)

// Statuses.
const (
	StatusSuccess    = "success"
	StatusFailed     = "failed"
	StatusUnverified = "unverified"
)

// Event is one audit trail entry.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Status    string            `json:"status"`
	TenantID  string            `json:"tenant_id,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
}

// NewEvent returns an event of the given type and status for tenantID.
func NewEvent(eventType, status, tenantID string) *Event {
	return &Event{
		EventType: eventType,
		Status:    status,
		TenantID:  tenantID,
		Context:   make(map[string]string),
	}
}

// With adds a context entry and returns the event for chaining.
func (e *Event) With(key, value string) *Event {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithError records err under the "error" context key. A nil err is ignored.
func (e *Event) WithError(err error) *Event {
	if err == nil {
		return e
	}
	return e.With("error", err.Error())
}
