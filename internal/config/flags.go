package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

// Driver names a record store backend. It implements the flag.Value
// interface so unknown names are rejected while parsing.
type Driver string

// Supported drivers.
const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
	DriverMemory   Driver = "memory"
	DriverRemote   Driver = "remote"
)

var knownDrivers = []Driver{DriverPostgres, DriverSQLite, DriverMemory, DriverRemote}

// String returns the driver name.
func (d *Driver) String() string {
	if d == nil {
		return ""
	}
	return string(*d)
}

// Set validates s against the supported drivers.
func (d *Driver) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, known := range knownDrivers {
		if string(known) == s {
			*d = known
			return nil
		}
	}
	return fmt.Errorf("unknown storage driver %q", s)
}

// ParseFlags parses the configuration flags in args and returns the
// populated config and the remaining positional arguments.
//
// Flags:
//
//	-t tenant id
//	-driver storage driver (postgres, sqlite, memory, remote)
//	-d database DSN
//	-remote-url remote datastore base URL
//	-remote-api-key remote datastore API key
//	-remote-token remote datastore bearer token
//	-request-timeout remote request timeout (e.g. "15s")
//	-argon-time / -argon-memory / -argon-threads key derivation cost
//	-compression-threshold envelope compression threshold in bytes
//	-auto-lock idle time before the session key is dropped
//	-check-interval idle check interval
//	-c/-config json file path with configs
func ParseFlags(args []string) (*StructuredConfig, []string, error) {
	var (
		tenantID             string
		driver               Driver
		databaseDSN          string
		remoteURL            string
		remoteAPIKey         string
		remoteToken          string
		requestTimeout       time.Duration
		argonTime            uint
		argonMemory          uint
		argonThreads         uint
		compressionThreshold int
		autoLock             time.Duration
		checkInterval        time.Duration
		jsonConfigPath       string
	)

	fs := flag.NewFlagSet("vaultctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&tenantID, "t", "", "Tenant id")
	fs.Var(&driver, "driver", "Storage driver: postgres, sqlite, memory, remote")
	fs.StringVar(&databaseDSN, "d", "", "Database DSN")
	fs.StringVar(&remoteURL, "remote-url", "", "Remote datastore base URL")
	fs.StringVar(&remoteAPIKey, "remote-api-key", "", "Remote datastore API key")
	fs.StringVar(&remoteToken, "remote-token", "", "Remote datastore bearer token")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 15s, 1m)")
	fs.UintVar(&argonTime, "argon-time", 0, "Argon2id iterations")
	fs.UintVar(&argonMemory, "argon-memory", 0, "Argon2id memory in KiB")
	fs.UintVar(&argonThreads, "argon-threads", 0, "Argon2id parallelism")
	fs.IntVar(&compressionThreshold, "compression-threshold", 0, "Compress values from this size in bytes")
	fs.DurationVar(&autoLock, "auto-lock", 0, "Idle time before the session locks (e.g., 15m)")
	fs.DurationVar(&checkInterval, "check-interval", 0, "Idle check interval (e.g., 30s)")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("error parsing flags: %w", err)
	}

	if argonThreads > 255 {
		return nil, nil, fmt.Errorf("error parsing flags: argon-threads must fit in a byte")
	}

	cfg := &StructuredConfig{
		App: App{
			TenantID: tenantID,
		},
		Storage: Storage{
			Driver: driver,
			DB: DB{
				DSN: databaseDSN,
			},
			Remote: Remote{
				BaseURL:        remoteURL,
				APIKey:         remoteAPIKey,
				AccessToken:    remoteToken,
				RequestTimeout: requestTimeout,
			},
		},
		Crypto: Crypto{
			ArgonTime:            uint32(argonTime),
			ArgonMemory:          uint32(argonMemory),
			ArgonThreads:         uint8(argonThreads),
			CompressionThreshold: compressionThreshold,
		},
		Workers: Workers{
			AutoLockAfter: autoLock,
			CheckInterval: checkInterval,
		},
		JSONFilePath: jsonConfigPath,
	}

	return cfg, fs.Args(), nil
}
