// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/firm-vault/internal/crypto"
	"github.com/MKhiriev/firm-vault/internal/logger"
	"github.com/MKhiriev/firm-vault/internal/session"
	"github.com/MKhiriev/firm-vault/models"
)

// fieldCodec is the single codec for every entity kind. Which fields are
// sensitive comes from the kind's models.EntitySchema.
//
// The key is read from the session on every call and wiped before the call
// returns; it is never cached between calls.
type fieldCodec struct {
	keyChain crypto.KeyChainService
	keys     *session.KeyStore
	logger   *logger.Logger
}

func NewFieldCodec(keyChain crypto.KeyChainService, keys *session.KeyStore, logger *logger.Logger) FieldCodec {
	return &fieldCodec{
		keyChain: keyChain,
		keys:     keys,
		logger:   logger,
	}
}

func (c *fieldCodec) EncryptFields(_ context.Context, record models.Record) (models.Record, error) {
	schema, ok := models.SchemaFor(record.Kind)
	if !ok {
		return record, fmt.Errorf("%w: %q", ErrUnknownEntityKind, record.Kind)
	}

	out := record.Clone()

	var (
		key      crypto.DerivedKey
		looked   bool
		unlocked bool
	)
	defer func() { key.Wipe() }()

	sessionKey := func() bool {
		if !looked {
			key, unlocked = c.keys.GetFor(record.TenantID)
			looked = true
		}
		return unlocked
	}

	for _, field := range schema.SensitiveFields {
		value, populated := out.Field(field)
		if !populated || value == "" {
			continue
		}

		// envelopes are stored as given; with a key at hand they must open
		// under it so a copied value from another tenant is not kept
		if c.keyChain.IsEnvelope(value) {
			if !sessionKey() {
				continue
			}
			if _, err := c.keyChain.Open(value, key); err != nil {
				c.logger.Warn().
					Str("func", "fieldCodec.EncryptFields").
					Str("kind", string(record.Kind)).
					Str("field", field).
					Msg("envelope does not open under the session key")
				return record, fmt.Errorf("field %s: %w", field, ErrForeignEnvelope)
			}
			continue
		}

		if !sessionKey() {
			return record, ErrLocked
		}

		sealed, err := c.keyChain.Seal(value, key)
		if err != nil {
			return record, fmt.Errorf("encrypt field %s: %w", field, err)
		}
		out.Fields[field] = &sealed
	}

	return out, nil
}

func (c *fieldCodec) DecryptFields(_ context.Context, record models.Record) models.Record {
	out := record.Clone()

	schema, ok := models.SchemaFor(record.Kind)
	if !ok {
		c.logger.Warn().
			Str("func", "fieldCodec.DecryptFields").
			Str("kind", string(record.Kind)).
			Msg("unknown entity kind, fields left as is")
		return out
	}

	out.States = make(map[string]models.FieldState, len(schema.SensitiveFields))

	key, unlocked := c.keys.GetFor(record.TenantID)
	defer key.Wipe()

	for _, field := range schema.SensitiveFields {
		value, populated := out.Field(field)
		if !populated {
			continue
		}

		switch {
		case !c.keyChain.IsEnvelope(value):
			out.States[field] = models.FieldPlain
		case !unlocked:
			out.States[field] = models.FieldLocked
		default:
			plain, err := c.keyChain.Open(value, key)
			if err != nil {
				c.logger.Warn().Err(err).
					Str("func", "fieldCodec.DecryptFields").
					Str("tenant_id", record.TenantID).
					Str("kind", string(record.Kind)).
					Str("record_id", record.ID).
					Str("field", field).
					Msg("cannot decrypt field")
				out.States[field] = models.FieldUnreadable
				continue
			}
			out.Fields[field] = &plain
			out.States[field] = models.FieldDecrypted
		}
	}

	return out
}
