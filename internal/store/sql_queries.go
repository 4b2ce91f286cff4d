package store

import (
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/firm-vault/models"
)

const (
	tenantsTable = "tenants"

	// a new tenant starts disabled; an existing one is left untouched
	createTenantSuffix = `ON CONFLICT (id) DO NOTHING`

	// the salt can only be written once: the update branch is skipped while a
	// salt is already stored, leaving zero affected rows
	enableEncryptionSuffix = `ON CONFLICT (id) DO UPDATE SET
		encryption_salt    = excluded.encryption_salt,
		encryption_enabled = excluded.encryption_enabled
		WHERE tenants.encryption_salt IS NULL`

	recordIDColumn        = "id"
	recordTenantColumn    = "tenant_id"
	recordUpdatedAtColumn = "updated_at"

	// legacy plaintext may start with the envelope prefix, so the sample
	// lookup reads a few rows per table instead of just the newest one
	envelopeSampleCandidates = 20
)

func (db *DB) buildGetEncryptionSettingQuery(tenantID string) (string, []any, error) {
	return db.builder().
		Select("id", "encryption_salt", "encryption_enabled").
		From(tenantsTable).
		Where(sq.Eq{"id": tenantID}).
		ToSql()
}

func (db *DB) buildCreateTenantQuery(tenantID, name string) (string, []any, error) {
	return db.builder().
		Insert(tenantsTable).
		Columns("id", "name", "encryption_enabled").
		Values(tenantID, name, false).
		Suffix(createTenantSuffix).
		ToSql()
}

func (db *DB) buildEnableEncryptionQuery(tenantID, salt string) (string, []any, error) {
	return db.builder().
		Insert(tenantsTable).
		Columns("id", "encryption_salt", "encryption_enabled").
		Values(tenantID, salt, true).
		Suffix(enableEncryptionSuffix).
		ToSql()
}

// recordColumns returns the selected columns of a schema table in scan order.
func recordColumns(schema models.EntitySchema) []string {
	cols := make([]string, 0, len(schema.SensitiveFields)+3)
	cols = append(cols, recordIDColumn, recordTenantColumn)
	cols = append(cols, schema.SensitiveFields...)
	return append(cols, recordUpdatedAtColumn)
}

func (db *DB) buildListRecordsQuery(schema models.EntitySchema, tenantID string) (string, []any, error) {
	return db.builder().
		Select(recordColumns(schema)...).
		From(schema.Table).
		Where(sq.Eq{recordTenantColumn: tenantID}).
		OrderBy(recordIDColumn).
		ToSql()
}

func (db *DB) buildGetRecordQuery(schema models.EntitySchema, tenantID, id string) (string, []any, error) {
	return db.builder().
		Select(recordColumns(schema)...).
		From(schema.Table).
		Where(sq.Eq{recordTenantColumn: tenantID}).
		Where(sq.Eq{recordIDColumn: id}).
		ToSql()
}

// buildUpsertRecordQuery inserts the record or overwrites the sensitive
// columns the record carries a key for. Columns missing from record.Fields
// keep their stored value on update and default to NULL on insert. Rows
// owned by another tenant are never touched.
func (db *DB) buildUpsertRecordQuery(schema models.EntitySchema, record models.Record, now time.Time) (string, []any, error) {
	fields := record.PresentFields(schema.SensitiveFields)

	cols := make([]string, 0, len(fields)+3)
	cols = append(cols, recordIDColumn, recordTenantColumn)
	cols = append(cols, fields...)
	cols = append(cols, recordUpdatedAtColumn)

	values := make([]any, 0, len(cols))
	values = append(values, record.ID, record.TenantID)
	for _, field := range fields {
		values = append(values, nullableArg(record.Fields[field]))
	}
	values = append(values, now)

	set := make([]string, 0, len(fields)+1)
	for _, field := range fields {
		set = append(set, fmt.Sprintf("%s = excluded.%s", field, field))
	}
	set = append(set, fmt.Sprintf("%s = excluded.%s", recordUpdatedAtColumn, recordUpdatedAtColumn))

	suffix := fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s WHERE %s.%s = excluded.%s",
		recordIDColumn, strings.Join(set, ", "), schema.Table, recordTenantColumn, recordTenantColumn)

	return db.builder().
		Insert(schema.Table).
		Columns(cols...).
		Values(values...).
		Suffix(suffix).
		ToSql()
}

// buildUpdateFieldsQuery writes every sensitive column of an existing row.
func (db *DB) buildUpdateFieldsQuery(schema models.EntitySchema, record models.Record, now time.Time) (string, []any, error) {
	update := db.builder().Update(schema.Table)
	for _, field := range schema.SensitiveFields {
		update = update.Set(field, nullableArg(record.Fields[field]))
	}

	return update.
		Set(recordUpdatedAtColumn, now).
		Where(sq.Eq{recordTenantColumn: record.TenantID}).
		Where(sq.Eq{recordIDColumn: record.ID}).
		ToSql()
}

// buildFindEnvelopeSampleQuery selects the most recently updated rows of the
// tenant holding at least one sensitive value that starts with prefix, newest
// first and at most envelopeSampleCandidates of them.
func (db *DB) buildFindEnvelopeSampleQuery(schema models.EntitySchema, tenantID, prefix string) (string, []any, error) {
	anyEnvelope := make(sq.Or, 0, len(schema.SensitiveFields))
	for _, field := range schema.SensitiveFields {
		anyEnvelope = append(anyEnvelope, sq.Like{field: prefix + "%"})
	}

	cols := append(append([]string{}, schema.SensitiveFields...), recordUpdatedAtColumn)

	return db.builder().
		Select(cols...).
		From(schema.Table).
		Where(sq.Eq{recordTenantColumn: tenantID}).
		Where(anyEnvelope).
		OrderBy(recordUpdatedAtColumn + " DESC NULLS LAST").
		Limit(envelopeSampleCandidates).
		ToSql()
}

func nullableArg(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
