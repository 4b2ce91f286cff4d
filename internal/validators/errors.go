package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidRecordID       = errors.New("invalid record id")
	ErrInvalidTenantID       = errors.New("invalid tenant id")
	ErrInvalidKind           = errors.New("invalid entity kind")
	ErrUnknownSensitiveField = errors.New("field is not sensitive for this kind")
	ErrFieldTooLong          = errors.New("field value is too long")
	ErrEmptyRecordField      = errors.New("record has no sensitive fields")
)
