// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/firm-vault/internal/logger"
	"github.com/MKhiriev/firm-vault/models"
)

// recordRepository is the SQL implementation of [RecordRepository]. One
// instance serves every registered schema; the table and columns come from
// the [models.EntitySchema] passed to each call.
type recordRepository struct {
	db     *DB
	logger *logger.Logger
	now    func() time.Time
}

// NewRecordRepository constructs a [RecordRepository] backed by db.
func NewRecordRepository(db *DB, logger *logger.Logger) RecordRepository {
	return &recordRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ListRecords returns every record of the tenant in schema's table ordered
// by id. Returns an empty slice when there are none.
func (r *recordRepository) ListRecords(ctx context.Context, schema models.EntitySchema, tenantID string) ([]models.Record, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.buildListRecordsQuery(schema, tenantID)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.ListRecords").
			Str("kind", string(schema.Kind)).
			Msg("failed to create query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var records []models.Record
	err = r.db.withRetry(ctx, "ListRecords", func() error {
		var queryErr error
		records, queryErr = r.queryRecords(ctx, schema, query, args)
		return queryErr
	})
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.ListRecords").
			Str("tenant_id", tenantID).
			Str("kind", string(schema.Kind)).
			Msg("failed to list records")
		return nil, err
	}

	return records, nil
}

// GetRecord returns a single record or [ErrRecordNotFound].
func (r *recordRepository) GetRecord(ctx context.Context, schema models.EntitySchema, tenantID, id string) (models.Record, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.buildGetRecordQuery(schema, tenantID, id)
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var records []models.Record
	err = r.db.withRetry(ctx, "GetRecord", func() error {
		var queryErr error
		records, queryErr = r.queryRecords(ctx, schema, query, args)
		return queryErr
	})
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.GetRecord").
			Str("tenant_id", tenantID).
			Str("kind", string(schema.Kind)).
			Str("record_id", id).
			Msg("failed to get record")
		return models.Record{}, err
	}

	if len(records) == 0 {
		return models.Record{}, ErrRecordNotFound
	}

	return records[0], nil
}

// SaveRecord upserts the record's sensitive columns.
func (r *recordRepository) SaveRecord(ctx context.Context, schema models.EntitySchema, record models.Record) error {
	query, args, err := r.db.buildUpsertRecordQuery(schema, record, r.now())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.exec(ctx, "recordRepository.SaveRecord", schema, record, query, args)
}

// UpdateFields rewrites the sensitive columns of an existing record.
func (r *recordRepository) UpdateFields(ctx context.Context, schema models.EntitySchema, record models.Record) error {
	query, args, err := r.db.buildUpdateFieldsQuery(schema, record, r.now())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.exec(ctx, "recordRepository.UpdateFields", schema, record, query, args)
}

// FindEnvelopeSample queries each schema for the latest rows of the tenant
// holding a value with the given prefix. Within a table the newest row with
// an accepted value wins; across tables the most recently updated hit does.
func (r *recordRepository) FindEnvelopeSample(ctx context.Context, tenantID string, schemas []models.EntitySchema, prefix string, accept func(string) bool) (string, bool, error) {
	log := logger.FromContext(ctx)

	var (
		sample     string
		found      bool
		sampleTime time.Time
	)

	for _, schema := range schemas {
		query, args, err := r.db.buildFindEnvelopeSampleQuery(schema, tenantID, prefix)
		if err != nil {
			return "", false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}

		var (
			value     string
			hit       bool
			updatedAt sql.NullTime
		)
		err = r.db.withRetry(ctx, "FindEnvelopeSample", func() error {
			var scanErr error
			value, hit, updatedAt, scanErr = r.scanEnvelopeSample(ctx, schema, prefix, accept, query, args)
			return scanErr
		})
		if err != nil {
			log.Err(err).
				Str("func", "recordRepository.FindEnvelopeSample").
				Str("tenant_id", tenantID).
				Str("kind", string(schema.Kind)).
				Msg("failed to query envelope sample")
			return "", false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}
		if !hit {
			continue
		}

		if !found || (updatedAt.Valid && updatedAt.Time.After(sampleTime)) {
			sample, found = value, true
			if updatedAt.Valid {
				sampleTime = updatedAt.Time
			}
		}
	}

	return sample, found, nil
}

// scanEnvelopeSample walks the candidate rows of one table and stops at the
// first value that carries prefix and passes accept.
func (r *recordRepository) scanEnvelopeSample(ctx context.Context, schema models.EntitySchema, prefix string, accept func(string) bool, query string, args []any) (string, bool, sql.NullTime, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return "", false, sql.NullTime{}, err
	}
	defer rows.Close()

	values := make([]sql.NullString, len(schema.SensitiveFields))
	dest := make([]any, 0, len(values)+1)
	for i := range values {
		dest = append(dest, &values[i])
	}
	var updatedAt sql.NullTime
	dest = append(dest, &updatedAt)

	for rows.Next() {
		if err = rows.Scan(dest...); err != nil {
			return "", false, sql.NullTime{}, err
		}
		for _, v := range values {
			if v.Valid && strings.HasPrefix(v.String, prefix) && acceptSample(accept, v.String) {
				return v.String, true, updatedAt, nil
			}
		}
	}

	return "", false, sql.NullTime{}, rows.Err()
}

func acceptSample(accept func(string) bool, value string) bool {
	return accept == nil || accept(value)
}

func (r *recordRepository) exec(ctx context.Context, funcName string, schema models.EntitySchema, record models.Record, query string, args []any) error {
	log := logger.FromContext(ctx)

	var affected int64
	err := r.db.withRetry(ctx, funcName, func() error {
		result, execErr := r.db.ExecContext(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		affected, execErr = result.RowsAffected()
		return execErr
	})
	if err != nil {
		log.Err(err).
			Str("func", funcName).
			Str("tenant_id", record.TenantID).
			Str("kind", string(schema.Kind)).
			Str("record_id", record.ID).
			Msg("failed to write record")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if affected == 0 {
		log.Warn().
			Str("func", funcName).
			Str("tenant_id", record.TenantID).
			Str("kind", string(schema.Kind)).
			Str("record_id", record.ID).
			Msg("no rows affected: record not found for tenant")
		return ErrRecordNotFound
	}

	return nil
}

func (r *recordRepository) queryRecords(ctx context.Context, schema models.EntitySchema, query string, args []any) ([]models.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	records := make([]models.Record, 0, 16)

	for rows.Next() {
		record, scanErr := scanRecord(rows, schema)
		if scanErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		records = append(records, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return records, nil
}

func scanRecord(rows *sql.Rows, schema models.EntitySchema) (models.Record, error) {
	var (
		record    = models.Record{Kind: schema.Kind, Fields: make(map[string]*string, len(schema.SensitiveFields))}
		values    = make([]sql.NullString, len(schema.SensitiveFields))
		updatedAt sql.NullTime
	)

	dest := make([]any, 0, len(values)+3)
	dest = append(dest, &record.ID, &record.TenantID)
	for i := range values {
		dest = append(dest, &values[i])
	}
	dest = append(dest, &updatedAt)

	if err := rows.Scan(dest...); err != nil {
		return models.Record{}, err
	}

	for i, field := range schema.SensitiveFields {
		if values[i].Valid {
			v := values[i].String
			record.Fields[field] = &v
		} else {
			record.Fields[field] = nil
		}
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		record.UpdatedAt = &t
	}

	return record, nil
}
