// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/firm-vault/internal/audit"
	"github.com/MKhiriev/firm-vault/internal/config"
	"github.com/MKhiriev/firm-vault/internal/logger"
	"github.com/MKhiriev/firm-vault/internal/session"
)

const defaultCheckInterval = 30 * time.Second

// IdleLocker drops the session key once it has not been used for
// AutoLockAfter. It polls the key store every CheckInterval, so the actual
// lock happens up to one interval late.
type IdleLocker struct {
	keys     *session.KeyStore
	audit    audit.Logger
	logger   *logger.Logger
	idle     time.Duration
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewIdleLocker returns a locker for keys. With cfg.AutoLockAfter <= 0 the
// locker is disabled and Start does nothing.
func NewIdleLocker(keys *session.KeyStore, cfg config.Workers, auditLog audit.Logger, logger *logger.Logger) *IdleLocker {
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	if cfg.AutoLockAfter > 0 && interval > cfg.AutoLockAfter {
		interval = cfg.AutoLockAfter
	}

	return &IdleLocker{
		keys:     keys,
		audit:    auditLog,
		logger:   logger,
		idle:     cfg.AutoLockAfter,
		interval: interval,
	}
}

// Enabled reports whether the locker has a positive idle timeout.
func (l *IdleLocker) Enabled() bool {
	return l.idle > 0
}

// Start implements Worker. Any previously started loop is stopped first.
func (l *IdleLocker) Start(ctx context.Context) {
	if !l.Enabled() {
		l.logger.Debug().Msg("auto-lock disabled")
		return
	}

	l.Stop()

	l.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		t := time.NewTicker(l.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				l.check(jobCtx)
			}
		}
	}()
}

// Stop implements Worker.
func (l *IdleLocker) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.wg.Wait()
}

func (l *IdleLocker) check(ctx context.Context) {
	tenantID, cleared := l.keys.ClearIfIdle(l.idle)
	if !cleared {
		return
	}

	l.logger.Info().
		Str("func", "IdleLocker.check").
		Str("tenant_id", tenantID).
		Dur("idle", l.idle).
		Msg("session auto-locked")

	event := audit.NewEvent(audit.EventTypeAutoLock, audit.StatusSuccess, tenantID).
		With("idle", l.idle.String())
	if err := l.audit.LogEvent(ctx, event); err != nil {
		l.logger.Err(err).Str("func", "IdleLocker.check").Msg("failed to write audit event")
	}
}
