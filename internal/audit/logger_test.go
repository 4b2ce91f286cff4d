package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/MKhiriev/firm-vault/internal/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(t *testing.T) (*zerologLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	base := &logger.Logger{Logger: zerolog.New(&buf)}

	l := NewLogger(base).(*zerologLogger)
	l.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return l, &buf
}

func TestLogEvent_WritesStructuredEntry(t *testing.T) {
	l, buf := newBufferedLogger(t)

	event := NewEvent(EventTypeUnlock, StatusSuccess, "tenant-1").With("kind", "clients")
	require.NoError(t, l.LogEvent(context.Background(), event))

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), event.Timestamp)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "audit", entry["component"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, event.ID, entry["event_id"])
	assert.Equal(t, EventTypeUnlock, entry["event_type"])
	assert.Equal(t, StatusSuccess, entry["status"])
	assert.Equal(t, "tenant-1", entry["tenant_id"])
	assert.Equal(t, map[string]any{"kind": "clients"}, entry["context"])
}

func TestLogEvent_FailedIsWarn(t *testing.T) {
	l, buf := newBufferedLogger(t)

	event := NewEvent(EventTypeUnlock, StatusFailed, "tenant-1").WithError(errors.New("wrong password"))
	require.NoError(t, l.LogEvent(context.Background(), event))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, map[string]any{"error": "wrong password"}, entry["context"])
}

func TestLogEvent_KeepsPresetIDAndTime(t *testing.T) {
	l, _ := newBufferedLogger(t)
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	event := &Event{ID: "fixed", Timestamp: ts, EventType: EventTypeLock, Status: StatusSuccess}
	require.NoError(t, l.LogEvent(context.Background(), event))

	assert.Equal(t, "fixed", event.ID)
	assert.Equal(t, ts, event.Timestamp)
}

func TestLogEvent_Nil(t *testing.T) {
	l, _ := newBufferedLogger(t)
	assert.ErrorIs(t, l.LogEvent(context.Background(), nil), ErrNilEvent)
}

func TestEvent_WithErrorNil(t *testing.T) {
	event := NewEvent(EventTypeSetup, StatusSuccess, "tenant-1").WithError(nil)
	assert.Empty(t, event.Context)
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop().LogEvent(context.Background(), nil))
}
