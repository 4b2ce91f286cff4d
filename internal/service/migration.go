package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/MKhiriev/firm-vault/internal/audit"
	"github.com/MKhiriev/firm-vault/internal/crypto"
	"github.com/MKhiriev/firm-vault/internal/logger"
	"github.com/MKhiriev/firm-vault/internal/session"
	"github.com/MKhiriev/firm-vault/internal/store"
	"github.com/MKhiriev/firm-vault/models"
)

// migrationService encrypts legacy plaintext records one at a time. There
// is no batch transaction: an interrupted run leaves a mix of converted and
// plaintext rows, and the next run skips the converted ones.
type migrationService struct {
	records  store.RecordRepository
	codec    FieldCodec
	keyChain crypto.KeyChainService
	keys     *session.KeyStore
	audit    audit.Logger
	logger   *logger.Logger
}

func NewMigrationService(records store.RecordRepository, codec FieldCodec, keyChain crypto.KeyChainService, keys *session.KeyStore, auditLog audit.Logger, logger *logger.Logger) MigrationService {
	return &migrationService{
		records:  records,
		codec:    codec,
		keyChain: keyChain,
		keys:     keys,
		audit:    auditLog,
		logger:   logger,
	}
}

func (s *migrationService) MigrateAll(ctx context.Context, tenantID string, kind models.EntityKind) (models.MigrationReport, error) {
	report := models.MigrationReport{Kind: kind}

	schema, ok := models.SchemaFor(kind)
	if !ok {
		return report, ErrUnknownEntityKind
	}

	log := s.logger.With().
		Str("func", "migrationService.MigrateAll").
		Str("tenant_id", tenantID).
		Str("kind", string(kind)).
		Logger()

	if !s.keys.UnlockedFor(tenantID) {
		return report, ErrLocked
	}

	records, err := s.records.ListRecords(ctx, schema, tenantID)
	if err != nil {
		return report, err
	}
	report.Total = len(records)

	for _, record := range records {
		if err = ctx.Err(); err != nil {
			s.logRun(ctx, tenantID, report, err)
			return report, err
		}

		if !s.needsMigration(schema, record) {
			report.Skipped++
			continue
		}

		encrypted, encErr := s.codec.EncryptFields(ctx, record)
		if errors.Is(encErr, ErrLocked) {
			log.Warn().Int("migrated", report.Migrated).Msg("session locked during migration, stopping")
			s.logRun(ctx, tenantID, report, encErr)
			return report, ErrLocked
		}
		if encErr != nil {
			report.Errors++
			log.Err(encErr).Str("record_id", record.ID).Msg("failed to encrypt record")
			continue
		}

		if updErr := s.records.UpdateFields(ctx, schema, encrypted); updErr != nil {
			report.Errors++
			log.Err(updErr).Str("record_id", record.ID).Msg("failed to persist encrypted record")
			continue
		}
		report.Migrated++
	}

	log.Info().
		Int("total", report.Total).
		Int("migrated", report.Migrated).
		Int("skipped", report.Skipped).
		Int("errors", report.Errors).
		Msg("migration finished")
	s.logRun(ctx, tenantID, report, nil)

	return report, nil
}

func (s *migrationService) MigrateTenant(ctx context.Context, tenantID string) ([]models.MigrationReport, error) {
	schemas := models.Schemas()
	reports := make([]models.MigrationReport, 0, len(schemas))

	for _, schema := range schemas {
		report, err := s.MigrateAll(ctx, tenantID, schema.Kind)
		reports = append(reports, report)
		if err != nil {
			return reports, err
		}
	}

	return reports, nil
}

// needsMigration reports whether record still holds plaintext. A record
// whose primary field is an envelope counts as converted.
func (s *migrationService) needsMigration(schema models.EntitySchema, record models.Record) bool {
	if primary, ok := record.Field(schema.PrimaryField); ok && s.keyChain.IsEnvelope(primary) {
		return false
	}

	for _, field := range schema.SensitiveFields {
		value, ok := record.Field(field)
		if ok && value != "" && !s.keyChain.IsEnvelope(value) {
			return true
		}
	}
	return false
}

func (s *migrationService) logRun(ctx context.Context, tenantID string, report models.MigrationReport, err error) {
	status := audit.StatusSuccess
	if err != nil {
		status = audit.StatusFailed
	}

	event := audit.NewEvent(audit.EventTypeMigration, status, tenantID).
		With("kind", string(report.Kind)).
		With("total", strconv.Itoa(report.Total)).
		With("migrated", strconv.Itoa(report.Migrated)).
		With("skipped", strconv.Itoa(report.Skipped)).
		With("errors", strconv.Itoa(report.Errors)).
		WithError(err)

	logAudit(ctx, s.audit, s.logger, event)
}
