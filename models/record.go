package models

import "time"

// FieldState describes what the read path could do with a sensitive field.
type FieldState string

const (
	// FieldPlain is a legacy plaintext value (or a tenant without encryption).
	FieldPlain FieldState = "plain"
	// FieldDecrypted is an envelope that was opened with the session key.
	FieldDecrypted FieldState = "decrypted"
	// FieldLocked is an envelope left opaque because the session is locked.
	FieldLocked FieldState = "locked"
	// FieldUnreadable is an envelope that failed its integrity check.
	FieldUnreadable FieldState = "unreadable"
)

// Record is the sensitive projection of an entity row: its identity plus the
// values of the sensitive columns declared by the kind's [EntitySchema].
//
// Each field value is nil (SQL NULL), legacy plaintext or a ciphertext
// envelope. States is populated by the read path only.
type Record struct {
	ID        string                `json:"id"`
	TenantID  string                `json:"tenant_id"`
	Kind      EntityKind            `json:"-"`
	Fields    map[string]*string    `json:"-"`
	States    map[string]FieldState `json:"-"`
	UpdatedAt *time.Time            `json:"updated_at,omitempty"`
}

// Field returns the value of a sensitive field and whether it is populated.
func (r Record) Field(name string) (string, bool) {
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// PresentFields returns the names from fields that r carries a key for, in
// the given order. A key mapped to nil counts as present: it asks for the
// column to be cleared, while an absent key leaves the stored value alone.
func (r Record) PresentFields(fields []string) []string {
	present := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := r.Fields[f]; ok {
			present = append(present, f)
		}
	}
	return present
}

// Clone returns a deep copy of r so callers can mutate fields without
// touching the original.
func (r Record) Clone() Record {
	out := r
	if r.Fields != nil {
		out.Fields = make(map[string]*string, len(r.Fields))
		for k, v := range r.Fields {
			if v == nil {
				out.Fields[k] = nil
				continue
			}
			s := *v
			out.Fields[k] = &s
		}
	}
	if r.States != nil {
		out.States = make(map[string]FieldState, len(r.States))
		for k, v := range r.States {
			out.States[k] = v
		}
	}
	if r.UpdatedAt != nil {
		t := *r.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

// StringPtr returns a pointer to s. Handy for building record fields.
func StringPtr(s string) *string {
	return &s
}
