package models

// MigrationReport summarises one pass of the plaintext-to-envelope migration
// over the records of a single entity kind.
type MigrationReport struct {
	Kind     EntityKind `json:"kind"`
	Total    int        `json:"total"`
	Migrated int        `json:"migrated"`
	Skipped  int        `json:"skipped"`
	Errors   int        `json:"errors"`
}

// Add accumulates other into r. Kind is left untouched.
func (r *MigrationReport) Add(other MigrationReport) {
	r.Total += other.Total
	r.Migrated += other.Migrated
	r.Skipped += other.Skipped
	r.Errors += other.Errors
}
