package audit

import (
	"context"
	"errors"
	"time"

	"github.com/MKhiriev/firm-vault/internal/logger"
	"github.com/MKhiriev/firm-vault/internal/utils"
	"github.com/rs/zerolog"
)

// ErrNilEvent is returned by LogEvent when event is nil.
var ErrNilEvent = errors.New("audit event cannot be nil")

type zerologLogger struct {
	logger *logger.Logger
	ids    *utils.UUIDGenerator
	now    func() time.Time
}

// NewLogger returns a [Logger] that writes every event as one structured
// zerolog entry with component "audit".
func NewLogger(log *logger.Logger) Logger {
	child := log.GetChildLogger()
	child.Logger = child.With().Str("component", "audit").Logger()

	return &zerologLogger{
		logger: child,
		ids:    utils.NewUUIDGenerator(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (z *zerologLogger) LogEvent(_ context.Context, event *Event) error {
	if event == nil {
		return ErrNilEvent
	}
	if event.ID == "" {
		event.ID = z.ids.Generate()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = z.now()
	}

	var entry *zerolog.Event
	if event.Status == StatusFailed {
		entry = z.logger.Warn()
	} else {
		entry = z.logger.Info()
	}

	entry.
		Str("event_id", event.ID).
		Time("event_time", event.Timestamp).
		Str("event_type", event.EventType).
		Str("status", event.Status).
		Str("tenant_id", event.TenantID).
		Interface("context", event.Context).
		Msg("audit event")

	return nil
}

type nopLogger struct{}

// Nop returns a [Logger] that drops every event.
func Nop() Logger {
	return nopLogger{}
}

func (nopLogger) LogEvent(context.Context, *Event) error {
	return nil
}
