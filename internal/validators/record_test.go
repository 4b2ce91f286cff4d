// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"context"
	"strings"
	"testing"

	"github.com/MKhiriev/firm-vault/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() models.Record {
	return models.Record{
		ID:       "cr-1",
		TenantID: "tenant-1",
		Kind:     models.KindCredential,
		Fields: map[string]*string{
			models.FieldUsername: models.StringPtr("mario.rossi"),
			models.FieldPassword: models.StringPtr("hunter22"),
			models.FieldPIN:      nil,
		},
	}
}

func TestNewRecordValidator(t *testing.T) {
	v := NewRecordValidator()
	require.NotNil(t, v)
}

func TestValidate_Dispatch(t *testing.T) {
	v := NewRecordValidator()
	ctx := context.Background()
	rec := validRecord()

	assert.NoError(t, v.Validate(ctx, rec))
	assert.NoError(t, v.Validate(ctx, &rec))
	assert.ErrorIs(t, v.Validate(ctx, (*models.Record)(nil)), ErrUnsupportedType)
	assert.ErrorIs(t, v.Validate(ctx, "record"), ErrUnsupportedType)
}

func TestValidate_Record(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *models.Record)
		fields  []string
		wantErr error
	}{
		{
			name:    "missing id",
			mutate:  func(r *models.Record) { r.ID = "" },
			wantErr: ErrInvalidRecordID,
		},
		{
			name:    "missing tenant",
			mutate:  func(r *models.Record) { r.TenantID = "" },
			wantErr: ErrInvalidTenantID,
		},
		{
			name:    "unknown kind",
			mutate:  func(r *models.Record) { r.Kind = "invoices" },
			wantErr: ErrInvalidKind,
		},
		{
			name:    "field not sensitive for kind",
			mutate:  func(r *models.Record) { r.Fields[models.FieldTaxCode] = models.StringPtr("RSSMRA80A01H501U") },
			wantErr: ErrUnknownSensitiveField,
		},
		{
			name: "field too long",
			mutate: func(r *models.Record) {
				r.Fields[models.FieldNotes] = models.StringPtr(strings.Repeat("x", MaxFieldLength+1))
			},
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "scoped validation skips id",
			mutate:  func(r *models.Record) { r.ID = "" },
			fields:  []string{FieldTenantID, FieldKind},
			wantErr: nil,
		},
		{
			name: "non empty with only nulls",
			mutate: func(r *models.Record) {
				r.Fields = map[string]*string{models.FieldPassword: nil}
			},
			fields:  []string{FieldNonEmpty},
			wantErr: ErrEmptyRecordField,
		},
		{
			name:    "unknown validation field",
			mutate:  func(r *models.Record) {},
			fields:  []string{"colour"},
			wantErr: ErrUnknownField,
		},
	}

	v := NewRecordValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)

			err := v.Validate(context.Background(), rec, tt.fields...)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
