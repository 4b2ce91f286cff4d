package service

import (
	"github.com/MKhiriev/firm-vault/internal/audit"
	"github.com/MKhiriev/firm-vault/internal/crypto"
	"github.com/MKhiriev/firm-vault/internal/logger"
	"github.com/MKhiriev/firm-vault/internal/session"
	"github.com/MKhiriev/firm-vault/internal/store"
	"github.com/MKhiriev/firm-vault/internal/validators"
)

type Services struct {
	TenantConfigService TenantConfigService
	UnlockService       UnlockService
	FieldCodec          FieldCodec
	RecordService       RecordService
	MigrationService    MigrationService
}

func NewServices(storages *store.Storages, keyChain crypto.KeyChainService, keys *session.KeyStore, auditLog audit.Logger, logger *logger.Logger) *Services {
	tenantCfg := NewTenantConfigService(storages.TenantRepository, keyChain, keys, auditLog, logger)
	codec := NewFieldCodec(keyChain, keys, logger)

	return &Services{
		TenantConfigService: tenantCfg,
		UnlockService:       NewUnlockService(storages.TenantRepository, storages.RecordRepository, keyChain, keys, auditLog, logger),
		FieldCodec:          codec,
		RecordService:       NewRecordService(tenantCfg, storages.RecordRepository, codec, validators.NewRecordValidator(), logger),
		MigrationService:    NewMigrationService(storages.RecordRepository, codec, keyChain, keys, auditLog, logger),
	}
}
