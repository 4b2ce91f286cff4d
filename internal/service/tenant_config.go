// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

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

type tenantConfigService struct {
	tenants  store.TenantRepository
	keyChain crypto.KeyChainService
	keys     *session.KeyStore
	audit    audit.Logger
	logger   *logger.Logger
}

func NewTenantConfigService(tenants store.TenantRepository, keyChain crypto.KeyChainService, keys *session.KeyStore, auditLog audit.Logger, logger *logger.Logger) TenantConfigService {
	return &tenantConfigService{
		tenants:  tenants,
		keyChain: keyChain,
		keys:     keys,
		audit:    auditLog,
		logger:   logger,
	}
}

func (s *tenantConfigService) IsEnabled(ctx context.Context, tenantID string) bool {
	setting, err := s.tenants.GetEncryptionSetting(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, store.ErrTenantNotFound) {
			s.logger.Warn().Err(err).
				Str("func", "tenantConfigService.IsEnabled").
				Str("tenant_id", tenantID).
				Msg("cannot read encryption setting, treating as disabled")
		}
		return false
	}

	return setting.Enabled
}

func (s *tenantConfigService) GetSalt(ctx context.Context, tenantID string) (*string, error) {
	return loadSalt(ctx, s.tenants, tenantID)
}

func (s *tenantConfigService) Setting(ctx context.Context, tenantID string) (models.TenantEncryptionSetting, error) {
	setting, err := s.tenants.GetEncryptionSetting(ctx, tenantID)
	if errors.Is(err, store.ErrTenantNotFound) {
		return models.TenantEncryptionSetting{TenantID: tenantID}, nil
	}
	if err != nil {
		return models.TenantEncryptionSetting{}, fmt.Errorf("read encryption setting: %w", err)
	}

	return setting, nil
}

func (s *tenantConfigService) Setup(ctx context.Context, tenantID, masterPassword string) error {
	log := s.logger.With().
		Str("func", "tenantConfigService.Setup").
		Str("tenant_id", tenantID).
		Logger()

	if masterPassword == "" {
		return ErrInvalidPassword
	}

	existing, err := loadSalt(ctx, s.tenants, tenantID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadyConfigured
	}

	salt, err := s.keyChain.GenerateEncryptionSalt()
	if err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	key, err := s.keyChain.DeriveKey(masterPassword, salt)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	defer key.Wipe()

	if err = s.tenants.EnableEncryption(ctx, tenantID, salt); err != nil {
		if errors.Is(err, store.ErrSaltAlreadySet) {
			log.Warn().Msg("salt was set concurrently")
			return ErrAlreadyConfigured
		}
		s.logAudit(ctx, audit.NewEvent(audit.EventTypeSetup, audit.StatusFailed, tenantID).WithError(err))
		return fmt.Errorf("persist encryption setting: %w", err)
	}

	if err = s.keys.Store(tenantID, key); err != nil {
		return fmt.Errorf("store session key: %w", err)
	}

	log.Info().Msg("encryption enabled")
	s.logAudit(ctx, audit.NewEvent(audit.EventTypeSetup, audit.StatusSuccess, tenantID))

	return nil
}

func (s *tenantConfigService) logAudit(ctx context.Context, event *audit.Event) {
	logAudit(ctx, s.audit, s.logger, event)
}

// loadSalt returns the stored salt of tenantID or nil when the tenant is
// missing or has none.
func loadSalt(ctx context.Context, tenants store.TenantRepository, tenantID string) (*string, error) {
	setting, err := tenants.GetEncryptionSetting(ctx, tenantID)
	if errors.Is(err, store.ErrTenantNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read encryption setting: %w", err)
	}
	if !setting.HasSalt() {
		return nil, nil
	}

	salt := *setting.Salt
	return &salt, nil
}

func logAudit(ctx context.Context, auditLog audit.Logger, log *logger.Logger, event *audit.Event) {
	if err := auditLog.LogEvent(ctx, event); err != nil {
		log.Warn().Err(err).
			Str("event_type", event.EventType).
			Msg("failed to write audit event")
	}
}
