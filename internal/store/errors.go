package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrTenantNotFound is returned when no tenant row exists for the
	// requested id.
	ErrTenantNotFound = errors.New("tenant was not found")

	// ErrRecordNotFound is returned when a query or update targets a record
	// (identified by id and tenant_id) that does not exist.
	ErrRecordNotFound = errors.New("record was not found")

	// ErrSaltAlreadySet is returned by the conditional salt write when the
	// tenant already has an encryption salt, including the case where a
	// concurrent setup stored one first.
	ErrSaltAlreadySet = errors.New("encryption salt is already set")

	// ErrUnsupportedDialect is returned when a database handle is created for
	// a dialect the repositories have no SQL for.
	ErrUnsupportedDialect = errors.New("unsupported sql dialect")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")
)
