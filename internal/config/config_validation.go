// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "fmt"

// validate checks that the final merged [StructuredConfig] is usable before
// anything is wired from it.
func (cfg *StructuredConfig) validate() error {
	if cfg.App.TenantID == "" {
		return fmt.Errorf("%w: tenant id is required", ErrInvalidAppConfigs)
	}

	switch cfg.Storage.Driver {
	case DriverPostgres, DriverSQLite:
		if cfg.Storage.DB.DSN == "" {
			return fmt.Errorf("%w: %s driver needs a DSN", ErrInvalidStorageConfigs, cfg.Storage.Driver)
		}
	case DriverMemory:
	case DriverRemote:
		if cfg.Storage.Remote.BaseURL == "" || cfg.Storage.Remote.APIKey == "" {
			return fmt.Errorf("%w: remote driver needs a base URL and an API key", ErrInvalidAdapterConfigs)
		}
		if cfg.Storage.Remote.RequestTimeout <= 0 {
			return fmt.Errorf("%w: request timeout must be positive", ErrInvalidAdapterConfigs)
		}
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalidStorageConfigs, cfg.Storage.Driver)
	}

	if cfg.Crypto.ArgonTime == 0 || cfg.Crypto.ArgonMemory == 0 || cfg.Crypto.ArgonThreads == 0 {
		return fmt.Errorf("%w: argon2 parameters must be positive", ErrInvalidCryptoConfigs)
	}

	if cfg.Workers.AutoLockAfter < 0 {
		return fmt.Errorf("%w: auto-lock timeout cannot be negative", ErrInvalidWorkerConfigs)
	}
	if cfg.Workers.AutoLockAfter > 0 && cfg.Workers.CheckInterval <= 0 {
		return fmt.Errorf("%w: check interval must be positive", ErrInvalidWorkerConfigs)
	}

	return nil
}
