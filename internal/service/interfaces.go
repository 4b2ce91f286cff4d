package service

import (
	"context"

	"github.com/MKhiriev/firm-vault/models"
)

// TenantConfigService reads and initialises the per-tenant encryption
// setting.
type TenantConfigService interface {
	// IsEnabled reports whether the tenant stores sensitive fields as
	// envelopes. A missing tenant or an unreadable store yields false; it
	// never fails.
	IsEnabled(ctx context.Context, tenantID string) bool

	// GetSalt returns the tenant's salt, or nil when none is stored.
	GetSalt(ctx context.Context, tenantID string) (*string, error)

	// Setting returns the tenant's setting and surfaces store errors. A
	// missing tenant is reported as disabled. Write paths use this instead
	// of IsEnabled so that a failing store is never mistaken for
	// "encryption disabled".
	Setting(ctx context.Context, tenantID string) (models.TenantEncryptionSetting, error)

	// Setup generates a salt, derives the key from masterPassword, persists
	// {salt, enabled} and unlocks the session. It is one-shot: a tenant that
	// already has a salt yields ErrAlreadyConfigured.
	Setup(ctx context.Context, tenantID, masterPassword string) error
}

// UnlockService verifies a master password and manages the session lock.
type UnlockService interface {
	// Unlock derives the key from password and the stored salt, checks it
	// against one existing envelope of the tenant and stores it in the
	// session. Returns ErrNotConfigured or ErrWrongPassword.
	Unlock(ctx context.Context, tenantID, password string) error

	// Lock drops the session key.
	Lock(ctx context.Context)

	// IsUnlocked reports whether the session holds a key for tenantID.
	IsUnlocked(tenantID string) bool
}

// FieldCodec maps the sensitive fields of a record through the envelope
// cipher using the current session key.
type FieldCodec interface {
	// EncryptFields seals every populated plaintext sensitive field. It fails
	// with ErrLocked when a field needs sealing and the session is locked
	// for the record's tenant. Values that are already envelopes are kept;
	// while unlocked they must open under the session key or the call fails
	// with ErrForeignEnvelope. The input record is never modified.
	EncryptFields(ctx context.Context, record models.Record) (models.Record, error)

	// DecryptFields opens every envelope it can and reports a FieldState for
	// each populated field. It never fails.
	DecryptFields(ctx context.Context, record models.Record) models.Record
}

// RecordService is the read/write path for records with sensitive fields.
type RecordService interface {
	// Save validates record, encrypts it when the tenant has encryption
	// enabled and persists it.
	Save(ctx context.Context, record models.Record) error
	Get(ctx context.Context, tenantID string, kind models.EntityKind, id string) (models.Record, error)
	List(ctx context.Context, tenantID string, kind models.EntityKind) ([]models.Record, error)
}

// MigrationService converts legacy plaintext records to envelopes.
type MigrationService interface {
	// MigrateAll walks every record of kind for the tenant and encrypts the
	// ones whose primary field is still plaintext. Requires an unlocked
	// session.
	MigrateAll(ctx context.Context, tenantID string, kind models.EntityKind) (models.MigrationReport, error)

	// MigrateTenant runs MigrateAll for every registered kind in schema
	// order and stops at the first error.
	MigrateTenant(ctx context.Context, tenantID string) ([]models.MigrationReport, error)
}
