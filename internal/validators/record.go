package validators

// Field name constants used to specify which parts of a record should be
// validated. Passing a subset to Validate restricts validation to it.
const (
	// FieldRecordID targets the record identifier.
	FieldRecordID = "id"

	// FieldTenantID targets the owning tenant.
	FieldTenantID = "tenant_id"

	// FieldKind requires the record kind to have a registered schema.
	FieldKind = "kind"

	// FieldSensitiveFields checks that every field belongs to the kind's
	// schema and is not longer than MaxFieldLength.
	FieldSensitiveFields = "sensitive_fields"

	// FieldNonEmpty requires at least one populated sensitive field.
	FieldNonEmpty = "non_empty"
)

// MaxFieldLength is the longest plaintext accepted for a single sensitive
// field, in bytes.
const MaxFieldLength = 64 * 1024
