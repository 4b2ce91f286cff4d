// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the
// firm-vault operator tool. It aggregates all sub-configurations and is
// populated by merging defaults, environment variables, command-line flags
// and an optional JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env:       direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds the tenant the tool works on and the application version.
	App App `envPrefix:"APP_"`

	// Storage selects and configures the record store backend.
	Storage Storage `envPrefix:"STORAGE_"`

	// Crypto holds key-derivation cost parameters and envelope settings.
	Crypto Crypto `envPrefix:"CRYPTO_"`

	// Workers holds configuration for background worker processes.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level settings.
type App struct {
	// TenantID is the tenant (firm) whose records are processed.
	// Env: APP_TENANT_ID
	TenantID string `env:"TENANT_ID"`

	// Version is the semantic version string of the running application.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Storage groups the configuration for the record store backends.
type Storage struct {
	// Driver selects the backend: postgres, sqlite, memory or remote.
	// Env: STORAGE_DRIVER
	Driver Driver `env:"DRIVER"`

	// DB holds the relational database connection settings.
	DB DB `envPrefix:"DB_"`

	// Remote holds the settings of the managed datastore REST API.
	Remote Remote `envPrefix:"REMOTE_"`
}

// DB holds connection settings for the relational database backends.
type DB struct {
	// DSN is the PostgreSQL connection string or the SQLite file path.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Remote holds settings for the PostgREST-compatible datastore API.
type Remote struct {
	// BaseURL is the datastore root, e.g. "https://project.example.co".
	// Env: STORAGE_REMOTE_URL
	BaseURL string `env:"URL"`

	// APIKey is sent in the apikey header of every request.
	// Env: STORAGE_REMOTE_API_KEY
	APIKey string `env:"API_KEY"`

	// AccessToken is the bearer token of the signed-in operator. When empty
	// the API key is used as bearer.
	// Env: STORAGE_REMOTE_ACCESS_TOKEN
	AccessToken string `env:"ACCESS_TOKEN"`

	// RequestTimeout bounds every outbound request.
	// Env: STORAGE_REMOTE_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Crypto holds Argon2id cost parameters and envelope settings. Changing the
// Argon2id parameters changes every derived key, so they must stay stable for
// the lifetime of a tenant's data.
type Crypto struct {
	// Env: CRYPTO_ARGON_TIME
	ArgonTime uint32 `env:"ARGON_TIME"`

	// ArgonMemory is expressed in KiB.
	// Env: CRYPTO_ARGON_MEMORY
	ArgonMemory uint32 `env:"ARGON_MEMORY"`

	// Env: CRYPTO_ARGON_THREADS
	ArgonThreads uint8 `env:"ARGON_THREADS"`

	// CompressionThreshold is the plaintext size in bytes from which values
	// are zstd-compressed before sealing.
	// Env: CRYPTO_COMPRESSION_THRESHOLD
	CompressionThreshold int `env:"COMPRESSION_THRESHOLD"`
}

// Workers holds configuration for background worker processes.
type Workers struct {
	// AutoLockAfter is the idle time after which the session key is
	// dropped. Zero disables auto-lock.
	// Env: WORKERS_AUTO_LOCK_AFTER
	AutoLockAfter time.Duration `env:"AUTO_LOCK_AFTER"`

	// CheckInterval is how often the idle locker looks at the session.
	// Env: WORKERS_CHECK_INTERVAL
	CheckInterval time.Duration `env:"CHECK_INTERVAL"`
}

// Defaults used when no source provides a value.
const (
	DefaultArgonTime            uint32 = 1
	DefaultArgonMemory          uint32 = 64 * 1024
	DefaultArgonThreads         uint8  = 4
	DefaultCompressionThreshold        = 1024
	DefaultRequestTimeout              = 15 * time.Second
	DefaultAutoLockAfter               = 15 * time.Minute
	DefaultCheckInterval               = 30 * time.Second
)

func defaultConfig() *StructuredConfig {
	return &StructuredConfig{
		Storage: Storage{
			Driver: DriverPostgres,
			Remote: Remote{RequestTimeout: DefaultRequestTimeout},
		},
		Crypto: Crypto{
			ArgonTime:            DefaultArgonTime,
			ArgonMemory:          DefaultArgonMemory,
			ArgonThreads:         DefaultArgonThreads,
			CompressionThreshold: DefaultCompressionThreshold,
		},
		Workers: Workers{
			AutoLockAfter: DefaultAutoLockAfter,
			CheckInterval: DefaultCheckInterval,
		},
	}
}

// GetStructuredConfig loads, merges, and validates the application
// configuration from all available sources in the following priority order
// (last source wins for non-zero fields):
//  1. Built-in defaults
//  2. Environment variables
//  3. Command-line flags parsed from args (without the program name)
//  4. JSON file (path resolved from sources 2 and 3)
//
// It returns the merged config together with the positional arguments left
// after flag parsing.
func GetStructuredConfig(args []string) (*StructuredConfig, []string, error) {
	b := newConfigBuilder().
		withDefaults().
		withEnv().
		withFlags(args).
		withJSON()

	cfg, err := b.build()
	return cfg, b.rest, err
}
