// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains shared application-layer message strings shown to the
// operator by the vault CLI.
//
// All Msg* constants are human-readable messages describing the outcome of
// an operation. Keeping them in one place ensures consistent wording across
// commands. UI text is in Italian, like the rest of the product.
package app

import (
	"context"
	"errors"

	"github.com/MKhiriev/firm-vault/internal/crypto"
	"github.com/MKhiriev/firm-vault/internal/service"
	"github.com/MKhiriev/firm-vault/internal/store"
	"github.com/MKhiriev/firm-vault/internal/validators"
)

const (
	// MsgWrongPassword is shown when the master password does not open the
	// tenant's data.
	MsgWrongPassword = "Password errata"

	// MsgLocked is shown when sensitive data has to be written while the
	// session is locked.
	MsgLocked = "Archivio bloccato: sbloccalo con la password principale prima di salvare"

	// MsgNotConfigured is shown when unlocking a tenant that never enabled
	// encryption.
	MsgNotConfigured = "Cifratura non attivata per questo studio"

	// MsgAlreadyConfigured is shown on a second setup attempt.
	MsgAlreadyConfigured = "Cifratura già attivata per questo studio"

	// MsgInvalidPassword is shown when setup is attempted with an empty
	// password.
	MsgInvalidPassword = "La password principale non può essere vuota"

	// MsgConfiguration is shown when the stored salt is missing or damaged.
	MsgConfiguration = "Configurazione di cifratura non valida, contatta l'assistenza"

	MsgTenantNotFound = "Studio non trovato"
	MsgRecordNotFound = "Elemento non trovato"

	// MsgInvalidData is shown when a record fails validation.
	MsgInvalidData = "Dati non validi"

	MsgUnknownEntityKind = "Tipo di elemento sconosciuto"
	MsgCancelled         = "Operazione annullata"

	// MsgInternalError is the fallback for anything not listed above.
	MsgInternalError = "Errore interno, riprova più tardi"
)

var validationErrors = []error{
	validators.ErrInvalidRecordID,
	validators.ErrInvalidTenantID,
	validators.ErrInvalidKind,
	validators.ErrUnknownSensitiveField,
	validators.ErrFieldTooLong,
	validators.ErrEmptyRecordField,
}

// UserMessage maps an error returned by the service layer to the text shown
// to the operator. A nil error yields "".
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, service.ErrWrongPassword):
		return MsgWrongPassword
	case errors.Is(err, service.ErrLocked):
		return MsgLocked
	case errors.Is(err, service.ErrNotConfigured):
		return MsgNotConfigured
	case errors.Is(err, service.ErrAlreadyConfigured):
		return MsgAlreadyConfigured
	case errors.Is(err, service.ErrInvalidPassword):
		return MsgInvalidPassword
	case errors.Is(err, service.ErrUnknownEntityKind):
		return MsgUnknownEntityKind
	case errors.Is(err, service.ErrForeignEnvelope):
		return MsgInvalidData
	case errors.Is(err, crypto.ErrConfiguration), errors.Is(err, crypto.ErrCrypto):
		return MsgConfiguration
	case errors.Is(err, store.ErrTenantNotFound):
		return MsgTenantNotFound
	case errors.Is(err, store.ErrRecordNotFound):
		return MsgRecordNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return MsgCancelled
	}

	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return MsgInvalidData
		}
	}

	return MsgInternalError
}
