package store

import (
	"context"

	"github.com/MKhiriev/firm-vault/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// TenantRepository persists the per-tenant encryption setting.
type TenantRepository interface {
	// CreateTenant registers a tenant with encryption disabled. Creating an
	// existing tenant is a no-op.
	CreateTenant(ctx context.Context, tenantID, name string) error
	// GetEncryptionSetting returns ErrTenantNotFound when the tenant has no row.
	GetEncryptionSetting(ctx context.Context, tenantID string) (models.TenantEncryptionSetting, error)
	// EnableEncryption stores salt and sets the enabled flag, but only while
	// the stored salt is still null. Otherwise it returns ErrSaltAlreadySet.
	EnableEncryption(ctx context.Context, tenantID, salt string) error
}

// RecordRepository reads and writes the sensitive columns of schema-described
// records.
type RecordRepository interface {
	ListRecords(ctx context.Context, schema models.EntitySchema, tenantID string) ([]models.Record, error)
	// GetRecord returns ErrRecordNotFound when no row matches.
	GetRecord(ctx context.Context, schema models.EntitySchema, tenantID, id string) (models.Record, error)
	// SaveRecord inserts the record or overwrites the sensitive columns of an
	// existing one. Only fields with a key in record.Fields are written; a
	// nil value clears the column.
	SaveRecord(ctx context.Context, schema models.EntitySchema, record models.Record) error
	// UpdateFields writes every sensitive column of an existing record.
	UpdateFields(ctx context.Context, schema models.EntitySchema, record models.Record) error
	// FindEnvelopeSample returns one sensitive value of the tenant starting
	// with prefix and passing accept, preferring the most recently updated
	// row. A nil accept takes any prefixed value. The boolean is false when no
	// such value exists in any of the schemas.
	FindEnvelopeSample(ctx context.Context, tenantID string, schemas []models.EntitySchema, prefix string, accept func(string) bool) (string, bool, error)
}
