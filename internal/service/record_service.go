package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/firm-vault/internal/logger"
	"github.com/MKhiriev/firm-vault/internal/store"
	"github.com/MKhiriev/firm-vault/internal/validators"
	"github.com/MKhiriev/firm-vault/models"
)

type recordService struct {
	tenants   TenantConfigService
	records   store.RecordRepository
	codec     FieldCodec
	validator validators.Validator
	logger    *logger.Logger
}

func NewRecordService(tenants TenantConfigService, records store.RecordRepository, codec FieldCodec, validator validators.Validator, logger *logger.Logger) RecordService {
	return &recordService{
		tenants:   tenants,
		records:   records,
		codec:     codec,
		validator: validator,
		logger:    logger,
	}
}

func (s *recordService) Save(ctx context.Context, record models.Record) error {
	if err := s.validator.Validate(ctx, record); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	schema, ok := models.SchemaFor(record.Kind)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEntityKind, record.Kind)
	}

	setting, err := s.tenants.Setting(ctx, record.TenantID)
	if err != nil {
		return err
	}

	if setting.Enabled {
		record, err = s.codec.EncryptFields(ctx, record)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("func", "recordService.Save").
				Str("tenant_id", record.TenantID).
				Str("kind", string(record.Kind)).
				Str("record_id", record.ID).
				Msg("refusing to save sensitive fields")
			return err
		}
	}

	return s.records.SaveRecord(ctx, schema, record)
}

func (s *recordService) Get(ctx context.Context, tenantID string, kind models.EntityKind, id string) (models.Record, error) {
	schema, ok := models.SchemaFor(kind)
	if !ok {
		return models.Record{}, fmt.Errorf("%w: %q", ErrUnknownEntityKind, kind)
	}

	record, err := s.records.GetRecord(ctx, schema, tenantID, id)
	if err != nil {
		return models.Record{}, err
	}

	return s.codec.DecryptFields(ctx, record), nil
}

func (s *recordService) List(ctx context.Context, tenantID string, kind models.EntityKind) ([]models.Record, error) {
	schema, ok := models.SchemaFor(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntityKind, kind)
	}

	records, err := s.records.ListRecords(ctx, schema, tenantID)
	if err != nil {
		return nil, err
	}

	for i := range records {
		records[i] = s.codec.DecryptFields(ctx, records[i])
	}

	return records, nil
}
