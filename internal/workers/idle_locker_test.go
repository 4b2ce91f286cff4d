package workers

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/firm-vault/internal/audit"
	"github.com/MKhiriev/firm-vault/internal/config"
	"github.com/MKhiriev/firm-vault/internal/crypto"
	"github.com/MKhiriev/firm-vault/internal/logger"
	"github.com/MKhiriev/firm-vault/internal/mock"
	"github.com/MKhiriev/firm-vault/internal/session"
)

// fakeClock is a goroutine-safe time source for the key store.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func unlockedStore(t *testing.T, clock *fakeClock) *session.KeyStore {
	t.Helper()
	keys := session.NewKeyStore()
	keys.SetClock(clock.Now)
	require.NoError(t, keys.Store("studio-rossi", crypto.DerivedKey(bytes.Repeat([]byte{1}, crypto.KeySize))))
	return keys
}

func TestNewIdleLocker_Interval(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Workers
		want time.Duration
	}{
		{name: "configured", cfg: config.Workers{AutoLockAfter: time.Minute, CheckInterval: 5 * time.Second}, want: 5 * time.Second},
		{name: "default", cfg: config.Workers{AutoLockAfter: time.Hour}, want: defaultCheckInterval},
		{name: "capped by timeout", cfg: config.Workers{AutoLockAfter: time.Second, CheckInterval: time.Minute}, want: time.Second},
		{name: "disabled", cfg: config.Workers{CheckInterval: time.Minute}, want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewIdleLocker(session.NewKeyStore(), tt.cfg, audit.Nop(), logger.Nop())
			assert.Equal(t, tt.want, l.interval)
		})
	}
}

func TestIdleLocker_LocksAfterIdle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	keys := unlockedStore(t, clock)
	auditLog := mock.NewMockLogger(ctrl)

	locked := make(chan *audit.Event, 1)
	auditLog.EXPECT().LogEvent(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event *audit.Event) error {
			locked <- event
			return nil
		},
	).Times(1)

	l := NewIdleLocker(keys, config.Workers{AutoLockAfter: 10 * time.Minute, CheckInterval: 5 * time.Millisecond}, auditLog, logger.Nop())
	l.Start(context.Background())
	defer l.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.True(t, keys.IsUnlocked(), "key must survive while the session is fresh")

	clock.Advance(10 * time.Minute)

	select {
	case event := <-locked:
		assert.Equal(t, audit.EventTypeAutoLock, event.EventType)
		assert.Equal(t, "studio-rossi", event.TenantID)
	case <-time.After(time.Second):
		t.Fatal("session was not auto-locked")
	}
	assert.False(t, keys.IsUnlocked())
}

func TestIdleLocker_UseKeepsSessionAlive(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	keys := unlockedStore(t, clock)

	l := NewIdleLocker(keys, config.Workers{AutoLockAfter: time.Minute, CheckInterval: 2 * time.Millisecond}, audit.Nop(), logger.Nop())
	l.Start(context.Background())
	defer l.Stop()

	for i := 0; i < 5; i++ {
		clock.Advance(50 * time.Second)
		key, ok := keys.Get()
		require.True(t, ok, "iteration %d", i)
		key.Wipe()
		time.Sleep(5 * time.Millisecond)
	}
}

func TestIdleLocker_Disabled(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	keys := unlockedStore(t, clock)

	l := NewIdleLocker(keys, config.Workers{AutoLockAfter: 0, CheckInterval: time.Millisecond}, audit.Nop(), logger.Nop())
	assert.False(t, l.Enabled())

	l.Start(context.Background())
	clock.Advance(24 * time.Hour)
	time.Sleep(10 * time.Millisecond)
	l.Stop()

	assert.True(t, keys.IsUnlocked())
}

func TestIdleLocker_StopBeforeStart_NoPanic(t *testing.T) {
	l := NewIdleLocker(session.NewKeyStore(), config.Workers{AutoLockAfter: time.Minute}, audit.Nop(), logger.Nop())

	assert.NotPanics(t, func() { l.Stop() })
}

func TestIdleLocker_StopsOnContextCancel(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	keys := unlockedStore(t, clock)

	ctx, cancel := context.WithCancel(context.Background())
	l := NewIdleLocker(keys, config.Workers{AutoLockAfter: time.Minute, CheckInterval: 2 * time.Millisecond}, audit.Nop(), logger.Nop())
	l.Start(ctx)

	cancel()
	l.Stop()

	clock.Advance(time.Hour)
	time.Sleep(10 * time.Millisecond)
	assert.True(t, keys.IsUnlocked())
}
