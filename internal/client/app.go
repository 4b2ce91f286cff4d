package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/MKhiriev/firm-vault/internal/adapter"
	"github.com/MKhiriev/firm-vault/internal/audit"
	"github.com/MKhiriev/firm-vault/internal/config"
	"github.com/MKhiriev/firm-vault/internal/crypto"
	"github.com/MKhiriev/firm-vault/internal/logger"
	"github.com/MKhiriev/firm-vault/internal/service"
	"github.com/MKhiriev/firm-vault/internal/session"
	"github.com/MKhiriev/firm-vault/internal/store"
	"github.com/MKhiriev/firm-vault/internal/workers"
	"github.com/MKhiriev/firm-vault/models"
)

// Commands understood by [App.Run].
const (
	CommandStatus  = "status"
	CommandSetup   = "setup"
	CommandUnlock  = "unlock"
	CommandMigrate = "migrate"
	CommandVersion = "version"
)

var (
	// ErrUsage is returned for a missing or unknown command.
	ErrUsage = errors.New("usage: vaultctl [flags] status|setup|unlock|migrate [kind]|version")
	// ErrNoTenant is returned when no tenant id is configured.
	ErrNoTenant = errors.New("tenant id is not configured")
)

type App struct {
	cfg       *config.StructuredConfig
	buildInfo models.AppBuildInfo

	storages *store.Storages
	services *service.Services
	keys     *session.KeyStore
	workers  *workers.Workers

	password PasswordSource
	out      io.Writer
	logger   *logger.Logger
}

// NewApp opens the configured store and wires the services on top of it.
func NewApp(ctx context.Context, cfg *config.StructuredConfig, buildInfo models.AppBuildInfo, password PasswordSource, out io.Writer, logger *logger.Logger) (*App, error) {
	storages, err := newStorages(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("create storages: %w", err)
	}

	keyChain := crypto.NewKeyChainService(
		crypto.WithKDFParams(crypto.KDFParams{
			Time:    cfg.Crypto.ArgonTime,
			Memory:  cfg.Crypto.ArgonMemory,
			Threads: cfg.Crypto.ArgonThreads,
		}),
		crypto.WithCompressionThreshold(cfg.Crypto.CompressionThreshold),
	)
	keys := session.NewKeyStore()
	auditLog := audit.NewLogger(logger)

	return &App{
		cfg:       cfg,
		buildInfo: buildInfo,
		storages:  storages,
		services:  service.NewServices(storages, keyChain, keys, auditLog, logger),
		keys:      keys,
		workers:   workers.NewWorkers(workers.NewIdleLocker(keys, cfg.Workers, auditLog, logger)),
		password:  password,
		out:       out,
		logger:    logger,
	}, nil
}

func newStorages(ctx context.Context, cfg config.Storage, logger *logger.Logger) (*store.Storages, error) {
	if cfg.Driver != config.DriverRemote {
		return store.NewStorages(ctx, cfg, logger)
	}

	remote, err := adapter.NewRemoteStore(cfg.Remote, logger)
	if err != nil {
		return nil, err
	}
	return store.NewStoragesFrom(remote, remote), nil
}

// Run executes one command. The session is locked again before Run
// returns.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	command := args[0]
	if command == CommandVersion {
		return a.printVersion()
	}

	tenantID := a.cfg.App.TenantID
	if tenantID == "" {
		return ErrNoTenant
	}

	log := a.logger.WithTenant(tenantID)
	ctx = log.WithContext(ctx)

	a.workers.Start(ctx)
	defer a.workers.Stop()
	defer a.services.UnlockService.Lock(ctx)

	log.Debug().Str("command", command).Msg("running command")

	switch command {
	case CommandStatus:
		return a.status(ctx, tenantID)
	case CommandSetup:
		return a.setup(ctx, tenantID)
	case CommandUnlock:
		return a.unlock(ctx, tenantID)
	case CommandMigrate:
		var kind models.EntityKind
		if len(args) > 1 {
			kind = models.EntityKind(args[1])
		}
		return a.migrate(ctx, tenantID, kind)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, command)
	}
}

// Close releases the store connection.
func (a *App) Close() error {
	return a.storages.Close()
}

func (a *App) status(ctx context.Context, tenantID string) error {
	setting, err := a.services.TenantConfigService.Setting(ctx, tenantID)
	if err != nil {
		return err
	}

	encryption := "disabled"
	if setting.Enabled {
		encryption = "enabled"
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "tenant:\t%s\n", tenantID)
	fmt.Fprintf(w, "encryption:\t%s\n", encryption)

	for _, schema := range models.Schemas() {
		records, listErr := a.services.RecordService.List(ctx, tenantID, schema.Kind)
		if listErr != nil {
			return listErr
		}

		plaintext := 0
		for _, record := range records {
			if hasPlaintext(record) {
				plaintext++
			}
		}
		fmt.Fprintf(w, "%s:\t%d records, %d with plaintext\n", schema.Kind, len(records), plaintext)
	}

	return w.Flush()
}

func hasPlaintext(record models.Record) bool {
	for field, state := range record.States {
		if state != models.FieldPlain {
			continue
		}
		if v, ok := record.Field(field); ok && v != "" {
			return true
		}
	}
	return false
}

func (a *App) setup(ctx context.Context, tenantID string) error {
	password, err := a.password.Password()
	if err != nil {
		return err
	}

	if err = a.storages.TenantRepository.CreateTenant(ctx, tenantID, tenantID); err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}

	if err = a.services.TenantConfigService.Setup(ctx, tenantID, password); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "encryption enabled for %s\n", tenantID)
	return nil
}

func (a *App) unlock(ctx context.Context, tenantID string) error {
	password, err := a.password.Password()
	if err != nil {
		return err
	}

	if err = a.services.UnlockService.Unlock(ctx, tenantID, password); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "master password accepted")
	return nil
}

func (a *App) migrate(ctx context.Context, tenantID string, kind models.EntityKind) error {
	if kind != "" {
		if _, ok := models.SchemaFor(kind); !ok {
			return fmt.Errorf("%w: %q", service.ErrUnknownEntityKind, kind)
		}
	}

	if err := a.unlock(ctx, tenantID); err != nil {
		return err
	}

	var (
		reports []models.MigrationReport
		err     error
	)
	if kind != "" {
		var report models.MigrationReport
		report, err = a.services.MigrationService.MigrateAll(ctx, tenantID, kind)
		reports = append(reports, report)
	} else {
		reports, err = a.services.MigrationService.MigrateTenant(ctx, tenantID)
	}

	a.printReports(reports)
	return err
}

func (a *App) printReports(reports []models.MigrationReport) {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tTOTAL\tMIGRATED\tSKIPPED\tERRORS")

	var total models.MigrationReport
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", r.Kind, r.Total, r.Migrated, r.Skipped, r.Errors)
		total.Add(r)
	}
	if len(reports) > 1 {
		fmt.Fprintf(w, "all\t%d\t%d\t%d\t%d\n", total.Total, total.Migrated, total.Skipped, total.Errors)
	}
	_ = w.Flush()
}

func (a *App) printVersion() error {
	_, err := fmt.Fprintln(a.out, a.buildInfo.String())
	return err
}
