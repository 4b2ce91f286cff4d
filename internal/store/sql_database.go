package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/firm-vault/internal/logger"
	"github.com/MKhiriev/firm-vault/migrations"
)

// Dialect identifies the SQL flavour spoken by a [DB].
type Dialect string

// Supported dialects.
const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// ErrorClassificator decides whether a failed database call is worth
// repeating.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

// retry back-off between attempts; len(defaultRetryDelays) is the number of
// retries after the first attempt.
var defaultRetryDelays = []time.Duration{time.Second, 3 * time.Second, 5 * time.Second}

// DB wraps a *sql.DB together with the dialect-specific bits the
// repositories need: placeholder format, error classification and retry
// policy.
type DB struct {
	*sql.DB
	dialect            Dialect
	placeholder        sq.PlaceholderFormat
	errorClassificator ErrorClassificator
	retryDelays        []time.Duration
	logger             *logger.Logger
}

func newDB(conn *sql.DB, dialect Dialect, log *logger.Logger) (*DB, error) {
	db := &DB{
		DB:          conn,
		dialect:     dialect,
		retryDelays: defaultRetryDelays,
		logger:      log,
	}

	switch dialect {
	case DialectPostgres:
		db.placeholder = sq.Dollar
		db.errorClassificator = NewPostgresErrorClassifier()
	case DialectSQLite:
		db.placeholder = sq.Question
		db.errorClassificator = NewSQLiteErrorClassifier()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, dialect)
	}

	return db, nil
}

// Dialect returns the SQL dialect of the connection.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, string(db.dialect))
}

func (db *DB) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(db.placeholder)
}

// withRetry runs fn and repeats it while the error is classified as
// retryable, waiting the configured back-off between attempts.
func (db *DB) withRetry(ctx context.Context, op string, fn func() error) error {
	err := fn()

	for attempt, delay := range db.retryDelays {
		if err == nil || db.errorClassificator == nil || db.errorClassificator.Classify(err) != Retryable {
			return err
		}

		logger.FromContext(ctx).Warn().
			Err(err).
			Str("func", "DB.withRetry").
			Str("op", op).
			Str("pg_code", pgErrorCode(err)).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("retryable database error, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}

		err = fn()
	}

	return err
}
