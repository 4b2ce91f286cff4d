// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// TenantEncryptionSetting is the persisted encryption configuration of a
// single tenant (one professional-services firm).
//
// A tenant starts with encryption disabled and no salt. The first successful
// setup populates Salt and flips Enabled to true; after that the row is only
// ever updated, never deleted.
type TenantEncryptionSetting struct {
	// TenantID identifies the tenant row the setting belongs to.
	TenantID string `json:"id"`

	// Salt is the base64-encoded Argon2id salt used to derive the tenant key
	// from the master password. Nil until encryption has been set up.
	Salt *string `json:"encryption_salt"`

	// Enabled reports whether sensitive fields of this tenant are written as
	// ciphertext envelopes.
	Enabled bool `json:"encryption_enabled"`
}

// HasSalt reports whether a non-empty salt is stored for the tenant.
func (s TenantEncryptionSetting) HasSalt() bool {
	return s.Salt != nil && *s.Salt != ""
}

// TableName returns the name of the database table
// associated with the TenantEncryptionSetting model.
func (s TenantEncryptionSetting) TableName() string {
	return "tenants"
}
