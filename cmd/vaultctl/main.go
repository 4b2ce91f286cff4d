package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/firm-vault/internal/app"
	"github.com/MKhiriev/firm-vault/internal/client"
	"github.com/MKhiriev/firm-vault/internal/config"
	"github.com/MKhiriev/firm-vault/internal/logger"
	"github.com/MKhiriev/firm-vault/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	os.Exit(run())
}

func run() int {
	log := logger.NewFileLogger("vaultctl", os.Getenv("VAULT_LOG_FILE"))

	cfg, args, err := config.GetStructuredConfig(os.Args[1:])
	if err != nil {
		log.Err(err).Msg("error getting configs")
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	buildInfo := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	vault, err := client.NewApp(ctx, cfg, buildInfo, client.NewPasswordSource(os.Stdin), os.Stdout, log)
	if err != nil {
		log.Err(err).Msg("init vaultctl error")
		fmt.Fprintln(os.Stderr, app.UserMessage(err))
		return 1
	}
	defer vault.Close()

	if err = vault.Run(ctx, args); err != nil {
		log.Err(err).Strs("args", args).Msg("command failed")
		switch {
		case errors.Is(err, client.ErrUsage):
			fmt.Fprintln(os.Stderr, err)
			return 2
		case errors.Is(err, client.ErrNoTenant), errors.Is(err, client.ErrNoPassword):
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Fprintln(os.Stderr, app.UserMessage(err))
		return 1
	}

	return 0
}
