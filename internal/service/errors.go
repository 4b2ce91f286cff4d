package service

import "errors"

var (
	// ErrWrongPassword is returned by Unlock when the candidate password
	// cannot open the tenant's verification sample.
	ErrWrongPassword = errors.New("wrong password")

	// ErrNotConfigured is returned by Unlock for a tenant that never set up
	// encryption.
	ErrNotConfigured = errors.New("encryption is not configured for tenant")

	// ErrLocked is returned by write paths and migrations that need the
	// session key while the session is locked.
	ErrLocked = errors.New("session is locked")

	// ErrAlreadyConfigured is returned by Setup when the tenant already has
	// a salt.
	ErrAlreadyConfigured = errors.New("encryption is already configured for tenant")

	// ErrForeignEnvelope is returned by EncryptFields when a field already
	// holds an envelope that does not open under the session key.
	ErrForeignEnvelope = errors.New("field holds an envelope sealed under another key")

	ErrUnknownEntityKind = errors.New("unknown entity kind")
	ErrInvalidPassword   = errors.New("master password must not be empty")
)
