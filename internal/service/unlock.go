package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/firm-vault/internal/audit"
	"github.com/MKhiriev/firm-vault/internal/crypto"
	"github.com/MKhiriev/firm-vault/internal/logger"
	"github.com/MKhiriev/firm-vault/internal/session"
	"github.com/MKhiriev/firm-vault/internal/store"
	"github.com/MKhiriev/firm-vault/models"
)

// unlockService verifies a candidate password by opening one envelope that
// already exists for the tenant. No password hash is stored anywhere, so a
// tenant without any envelope accepts the first password it is given.
type unlockService struct {
	tenants  store.TenantRepository
	records  store.RecordRepository
	keyChain crypto.KeyChainService
	keys     *session.KeyStore
	audit    audit.Logger
	logger   *logger.Logger
}

func NewUnlockService(tenants store.TenantRepository, records store.RecordRepository, keyChain crypto.KeyChainService, keys *session.KeyStore, auditLog audit.Logger, logger *logger.Logger) UnlockService {
	return &unlockService{
		tenants:  tenants,
		records:  records,
		keyChain: keyChain,
		keys:     keys,
		audit:    auditLog,
		logger:   logger,
	}
}

func (s *unlockService) Unlock(ctx context.Context, tenantID, password string) error {
	log := s.logger.With().
		Str("func", "unlockService.Unlock").
		Str("tenant_id", tenantID).
		Logger()

	if password == "" {
		return ErrWrongPassword
	}

	salt, err := loadSalt(ctx, s.tenants, tenantID)
	if err != nil {
		return err
	}
	if salt == nil {
		return ErrNotConfigured
	}

	key, err := s.keyChain.DeriveKey(password, *salt)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	defer key.Wipe()

	// legacy plaintext can carry the prefix too; only well-formed envelopes
	// are fit to verify the password against
	sample, found, err := s.records.FindEnvelopeSample(ctx, tenantID, models.Schemas(), crypto.EnvelopePrefix, s.keyChain.IsEnvelope)
	if err != nil {
		return fmt.Errorf("find verification sample: %w", err)
	}

	status := audit.StatusSuccess
	if !found {
		log.Warn().Msg("no encrypted value to verify against, accepting password unverified")
		status = audit.StatusUnverified
	} else if _, err = s.keyChain.Open(sample, key); err != nil {
		if errors.Is(err, crypto.ErrDecryption) {
			log.Info().Msg("wrong master password")
			s.logAudit(ctx, audit.NewEvent(audit.EventTypeUnlock, audit.StatusFailed, tenantID))
			return ErrWrongPassword
		}
		return fmt.Errorf("verify password: %w", err)
	}

	if err = s.keys.Store(tenantID, key); err != nil {
		return fmt.Errorf("store session key: %w", err)
	}

	log.Info().Str("status", status).Msg("session unlocked")
	s.logAudit(ctx, audit.NewEvent(audit.EventTypeUnlock, status, tenantID))

	return nil
}

func (s *unlockService) Lock(ctx context.Context) {
	tenantID := s.keys.TenantID()
	if !s.keys.IsUnlocked() {
		return
	}

	s.keys.Clear()

	s.logger.Info().
		Str("func", "unlockService.Lock").
		Str("tenant_id", tenantID).
		Msg("session locked")
	s.logAudit(ctx, audit.NewEvent(audit.EventTypeLock, audit.StatusSuccess, tenantID))
}

func (s *unlockService) IsUnlocked(tenantID string) bool {
	return s.keys.UnlockedFor(tenantID)
}

func (s *unlockService) logAudit(ctx context.Context, event *audit.Event) {
	logAudit(ctx, s.audit, s.logger, event)
}
