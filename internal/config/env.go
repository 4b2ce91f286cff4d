// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// parseEnv reads the vault settings from the process environment. Each
// section of [StructuredConfig] owns a prefix (APP_, STORAGE_, CRYPTO_ and
// WORKERS_); CONFIG is the only unprefixed variable. The master password is
// not part of the config and is never read here.
func parseEnv(cfg *StructuredConfig) error {
	return parseEnvFrom(cfg, env.ToMap(os.Environ()))
}

// parseEnvFrom is parseEnv over an explicit set of variables.
func parseEnvFrom(cfg *StructuredConfig, environ map[string]string) error {
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("error reading vault settings from env: %w", err)
	}

	return nil
}
