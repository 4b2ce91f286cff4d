package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/MKhiriev/firm-vault/internal/config"
	"github.com/MKhiriev/firm-vault/internal/logger"
)

// ErrUnsupportedDriver is returned by [NewStorages] for drivers this package
// does not implement.
var ErrUnsupportedDriver = errors.New("unsupported storage driver")

// Storages groups the repositories the service layer needs into a single
// value.
type Storages struct {
	TenantRepository TenantRepository
	RecordRepository RecordRepository

	closer io.Closer
}

// NewStorages opens the backend selected by cfg.Driver, applies schema
// migrations for SQL backends and wires the repositories.
//
// The remote driver is implemented outside this package and is rejected
// with [ErrUnsupportedDriver].
func NewStorages(ctx context.Context, cfg config.Storage, logger *logger.Logger) (*Storages, error) {
	logger.Info().Str("driver", string(cfg.Driver)).Msg("creating new storages...")

	var (
		db  *DB
		err error
	)

	switch cfg.Driver {
	case config.DriverPostgres:
		db, err = NewConnectPostgres(ctx, cfg.DB, logger)
	case config.DriverSQLite:
		db, err = NewConnectSQLite(ctx, cfg.DB, logger)
	case config.DriverMemory:
		mem, memErr := NewMemoryStorage(cfg.DB.DSN)
		if memErr != nil {
			return nil, fmt.Errorf("memory storage error: %w", memErr)
		}
		return NewStoragesFrom(mem, mem), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%s connection error: %w", cfg.Driver, err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		TenantRepository: NewTenantRepository(db, logger),
		RecordRepository: NewRecordRepository(db, logger),
		closer:           db,
	}, nil
}

// NewStoragesFrom wraps already constructed repositories.
func NewStoragesFrom(tenants TenantRepository, records RecordRepository) *Storages {
	return &Storages{
		TenantRepository: tenants,
		RecordRepository: records,
	}
}

// Close releases the underlying connection, if any.
func (s *Storages) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
