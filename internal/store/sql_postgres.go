package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/MKhiriev/firm-vault/internal/config"
	"github.com/MKhiriev/firm-vault/internal/logger"
)

// the operator tool runs one command at a time; a migration pass is the
// busiest caller and keeps at most a couple of statements in flight
const (
	postgresMaxOpenConns    = 4
	postgresMaxIdleConns    = 2
	postgresConnMaxIdleTime = 5 * time.Minute
)

// NewConnectPostgres opens the record store on a PostgreSQL server and checks
// it is reachable. The connection is closed again when the ping fails.
func NewConnectPostgres(ctx context.Context, cfg config.DB, log *logger.Logger) (*DB, error) {
	conn, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("cannot open postgres record store")
		return nil, fmt.Errorf("open postgres record store: %w", err)
	}

	conn.SetMaxOpenConns(postgresMaxOpenConns)
	conn.SetMaxIdleConns(postgresMaxIdleConns)
	conn.SetConnMaxIdleTime(postgresConnMaxIdleTime)

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).
			Str("func", "NewConnectPostgres").
			Str("pg_code", pgErrorCode(err)).
			Msg("postgres record store is not reachable")
		_ = conn.Close()
		return nil, fmt.Errorf("ping postgres record store: %w", err)
	}
	log.Info().Str("func", "NewConnectPostgres").Msg("connected to postgres record store")

	return newDB(conn, DialectPostgres, log)
}

// pgErrorCode returns the SQLSTATE of a server-side error, or "" for any
// other error.
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
