// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package session holds the derived encryption key for the lifetime of one
// unlocked session.
//
// There is exactly one slot. A [KeyStore] is created by the application and
// passed explicitly to every service that needs the key; there is no
// package-level instance. Nothing is ever written to disk: after a restart
// the key has to be derived from the master password again.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/awnumar/memguard"

	"github.com/MKhiriev/firm-vault/internal/crypto"
)

// KeyStore is the single-slot holder of the session key.
//
// The key is sealed in a memguard enclave while stored, so the plaintext
// bytes only exist in memory for the duration of a Get call and whatever the
// caller does with the returned copy.
type KeyStore struct {
	mu       sync.RWMutex
	enclave  *memguard.Enclave
	tenantID string
	lastUsed time.Time

	now func() time.Time
}

// NewKeyStore returns an empty (locked) key store.
func NewKeyStore() *KeyStore {
	return &KeyStore{now: time.Now}
}

// Store places key in the slot for tenantID, replacing any previous key.
// The store keeps its own sealed copy; the caller remains responsible for
// wiping key.
func (s *KeyStore) Store(tenantID string, key crypto.DerivedKey) error {
	if err := key.Validate(); err != nil {
		return fmt.Errorf("store session key: %w", err)
	}

	// NewEnclave wipes its source buffer, so hand it a copy.
	buf := make([]byte, len(key))
	copy(buf, key)
	enclave := memguard.NewEnclave(buf)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.enclave = enclave
	s.tenantID = tenantID
	s.lastUsed = s.now()
	return nil
}

// Get returns a copy of the stored key, or false when the store is locked.
// The caller must Wipe the returned key once done with it.
func (s *KeyStore) Get() (crypto.DerivedKey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open()
}

// GetFor is Get restricted to the tenant the store was unlocked for.
func (s *KeyStore) GetFor(tenantID string) (crypto.DerivedKey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tenantID != tenantID {
		return nil, false
	}
	return s.open()
}

// open must be called with s.mu held.
func (s *KeyStore) open() (crypto.DerivedKey, bool) {
	if s.enclave == nil {
		return nil, false
	}

	buf, err := s.enclave.Open()
	if err != nil {
		return nil, false
	}
	defer buf.Destroy()

	key := make(crypto.DerivedKey, buf.Size())
	copy(key, buf.Bytes())
	s.lastUsed = s.now()
	return key, true
}

// Clear drops the key. After Clear, Get reports false until the next Store.
func (s *KeyStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enclave = nil
	s.tenantID = ""
}

// IsUnlocked reports whether a key is currently held.
func (s *KeyStore) IsUnlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enclave != nil
}

// UnlockedFor reports whether the held key belongs to tenantID.
func (s *KeyStore) UnlockedFor(tenantID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enclave != nil && s.tenantID == tenantID
}

// TenantID returns the tenant the key was stored for, or "" when locked.
func (s *KeyStore) TenantID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tenantID
}

// LastUsed returns the time of the last Store or Get.
func (s *KeyStore) LastUsed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsed
}

// ClearIfIdle drops the key when it has not been used for at least maxIdle.
// It returns the tenant that was locked and true when it did so.
func (s *KeyStore) ClearIfIdle(maxIdle time.Duration) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.enclave == nil || s.now().Sub(s.lastUsed) < maxIdle {
		return "", false
	}

	tenantID := s.tenantID
	s.enclave = nil
	s.tenantID = ""
	return tenantID, true
}

// SetClock replaces the time source used for LastUsed bookkeeping.
func (s *KeyStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
