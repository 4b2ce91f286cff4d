package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/firm-vault/internal/logger"
	"github.com/MKhiriev/firm-vault/models"
)

// tenantRepository is the SQL implementation of [TenantRepository] over the
// "tenants" table.
type tenantRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewTenantRepository constructs a [TenantRepository] backed by db.
func NewTenantRepository(db *DB, logger *logger.Logger) TenantRepository {
	return &tenantRepository{
		db:     db,
		logger: logger,
	}
}

func (r *tenantRepository) CreateTenant(ctx context.Context, tenantID, name string) error {
	log := logger.FromContext(ctx)

	query, args, err := r.db.buildCreateTenantQuery(tenantID, name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	err = r.db.withRetry(ctx, "CreateTenant", func() error {
		_, execErr := r.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		log.Err(err).
			Str("func", "tenantRepository.CreateTenant").
			Str("tenant_id", tenantID).
			Msg("failed to insert tenant")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (r *tenantRepository) GetEncryptionSetting(ctx context.Context, tenantID string) (models.TenantEncryptionSetting, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.buildGetEncryptionSettingQuery(tenantID)
	if err != nil {
		return models.TenantEncryptionSetting{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var (
		setting models.TenantEncryptionSetting
		salt    sql.NullString
	)
	err = r.db.withRetry(ctx, "GetEncryptionSetting", func() error {
		return r.db.QueryRowContext(ctx, query, args...).Scan(&setting.TenantID, &salt, &setting.Enabled)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.TenantEncryptionSetting{}, ErrTenantNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "tenantRepository.GetEncryptionSetting").
			Str("tenant_id", tenantID).
			Msg("failed to read tenant encryption setting")
		return models.TenantEncryptionSetting{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if salt.Valid {
		setting.Salt = &salt.String
	}

	return setting, nil
}

func (r *tenantRepository) EnableEncryption(ctx context.Context, tenantID, salt string) error {
	log := logger.FromContext(ctx)

	query, args, err := r.db.buildEnableEncryptionQuery(tenantID, salt)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var affected int64
	err = r.db.withRetry(ctx, "EnableEncryption", func() error {
		result, execErr := r.db.ExecContext(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		affected, execErr = result.RowsAffected()
		return execErr
	})
	if err != nil {
		log.Err(err).
			Str("func", "tenantRepository.EnableEncryption").
			Str("tenant_id", tenantID).
			Msg("failed to store encryption salt")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if affected == 0 {
		log.Warn().
			Str("func", "tenantRepository.EnableEncryption").
			Str("tenant_id", tenantID).
			Msg("salt already set, conditional write skipped")
		return ErrSaltAlreadySet
	}

	return nil
}
