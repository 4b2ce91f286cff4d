package validators

import (
	"context"
	"fmt"

	"github.com/MKhiriev/firm-vault/models"
)

// RecordValidator implements the Validator interface for [models.Record].
type RecordValidator struct{}

// NewRecordValidator returns a ready to use [RecordValidator].
func NewRecordValidator() *RecordValidator {
	return &RecordValidator{}
}

// Validate checks a models.Record (value or pointer). With no fields given
// it checks id, tenant, kind and sensitive fields.
func (v *RecordValidator) Validate(ctx context.Context, data any, fields ...string) error {
	switch value := data.(type) {
	case models.Record:
		return v.validateRecord(ctx, value, fields...)
	case *models.Record:
		if value == nil {
			return ErrUnsupportedType
		}
		return v.validateRecord(ctx, *value, fields...)
	default:
		return ErrUnsupportedType
	}
}

func (v *RecordValidator) validateRecord(_ context.Context, record models.Record, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldRecordID, FieldTenantID, FieldKind, FieldSensitiveFields}
	}

	for _, f := range fields {
		switch f {
		case FieldRecordID:
			if record.ID == "" {
				return ErrInvalidRecordID
			}
		case FieldTenantID:
			if record.TenantID == "" {
				return ErrInvalidTenantID
			}
		case FieldKind:
			if _, ok := models.SchemaFor(record.Kind); !ok {
				return fmt.Errorf("%w: %q", ErrInvalidKind, record.Kind)
			}
		case FieldSensitiveFields:
			schema, ok := models.SchemaFor(record.Kind)
			if !ok {
				return fmt.Errorf("%w: %q", ErrInvalidKind, record.Kind)
			}
			for name, value := range record.Fields {
				if !schema.HasField(name) {
					return fmt.Errorf("%w: %s", ErrUnknownSensitiveField, name)
				}
				if value != nil && len(*value) > MaxFieldLength {
					return fmt.Errorf("%w: %s", ErrFieldTooLong, name)
				}
			}
		case FieldNonEmpty:
			populated := false
			for _, value := range record.Fields {
				if value != nil {
					populated = true
					break
				}
			}
			if !populated {
				return ErrEmptyRecordField
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}
