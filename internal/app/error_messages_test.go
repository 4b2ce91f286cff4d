package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MKhiriev/firm-vault/internal/crypto"
	"github.com/MKhiriev/firm-vault/internal/service"
	"github.com/MKhiriev/firm-vault/internal/store"
	"github.com/MKhiriev/firm-vault/internal/validators"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "wrong password", err: service.ErrWrongPassword, want: MsgWrongPassword},
		{name: "locked", err: service.ErrLocked, want: MsgLocked},
		{name: "wrapped locked", err: fmt.Errorf("save credential: %w", service.ErrLocked), want: MsgLocked},
		{name: "not configured", err: service.ErrNotConfigured, want: MsgNotConfigured},
		{name: "already configured", err: service.ErrAlreadyConfigured, want: MsgAlreadyConfigured},
		{name: "empty password", err: service.ErrInvalidPassword, want: MsgInvalidPassword},
		{name: "unknown kind", err: service.ErrUnknownEntityKind, want: MsgUnknownEntityKind},
		{name: "foreign envelope", err: fmt.Errorf("field pin: %w", service.ErrForeignEnvelope), want: MsgInvalidData},
		{name: "bad salt", err: fmt.Errorf("derive key: %w", crypto.ErrConfiguration), want: MsgConfiguration},
		{name: "tenant not found", err: store.ErrTenantNotFound, want: MsgTenantNotFound},
		{name: "record not found", err: store.ErrRecordNotFound, want: MsgRecordNotFound},
		{name: "validation", err: fmt.Errorf("invalid record: %w", validators.ErrInvalidRecordID), want: MsgInvalidData},
		{name: "cancelled", err: context.Canceled, want: MsgCancelled},
		{name: "other", err: errors.New("dial tcp: connection refused"), want: MsgInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestUserMessage_WrongPasswordWording(t *testing.T) {
	assert.Equal(t, "Password errata", UserMessage(service.ErrWrongPassword))
}
