package models

// EntityKind names a kind of record that carries sensitive fields.
type EntityKind string

const (
	// KindClient is a client master record (tax identifiers, private notes).
	KindClient EntityKind = "clients"
	// KindCredential is a login/password pair stored for a client portal.
	KindCredential EntityKind = "credentials"
	// KindFiscalDrawer holds the access data of a client's fiscal drawer.
	KindFiscalDrawer EntityKind = "fiscal_drawers"
)

// Sensitive column names shared by the schemas below.
const (
	FieldTaxCode         = "tax_code"
	FieldVATNumber       = "vat_number"
	FieldNotes           = "notes"
	FieldUsername        = "username"
	FieldPassword        = "password"
	FieldPIN             = "pin"
	FieldInitialPassword = "initial_password"
)

// EntitySchema declares which columns of an entity kind are sensitive.
//
// PrimaryField is the field inspected by the migration runner to decide
// whether a record has already been converted.
type EntitySchema struct {
	Kind            EntityKind
	Table           string
	PrimaryField    string
	SensitiveFields []string
}

// HasField reports whether name is one of the schema's sensitive fields.
func (s EntitySchema) HasField(name string) bool {
	for _, f := range s.SensitiveFields {
		if f == name {
			return true
		}
	}
	return false
}

var schemas = []EntitySchema{
	{
		Kind:            KindClient,
		Table:           "clients",
		PrimaryField:    FieldTaxCode,
		SensitiveFields: []string{FieldTaxCode, FieldVATNumber, FieldNotes},
	},
	{
		Kind:            KindCredential,
		Table:           "credentials",
		PrimaryField:    FieldPassword,
		SensitiveFields: []string{FieldUsername, FieldPassword, FieldPIN, FieldNotes},
	},
	{
		Kind:            KindFiscalDrawer,
		Table:           "fiscal_drawers",
		PrimaryField:    FieldPassword,
		SensitiveFields: []string{FieldPassword, FieldPIN, FieldInitialPassword},
	},
}

// Schemas returns every registered entity schema in a stable order.
func Schemas() []EntitySchema {
	out := make([]EntitySchema, len(schemas))
	copy(out, schemas)
	return out
}

// SchemaFor returns the schema registered for kind.
func SchemaFor(kind EntityKind) (EntitySchema, bool) {
	for _, s := range schemas {
		if s.Kind == kind {
			return s, true
		}
	}
	return EntitySchema{}, false
}
