package crypto

import "errors"

// Sentinel errors returned by [KeyChainService]. They are never retried by
// callers: repeating an operation with the same key or salt cannot succeed.
var (
	// ErrConfiguration indicates a missing or malformed tenant salt.
	ErrConfiguration = errors.New("invalid encryption configuration")

	// ErrCrypto indicates unusable key material (wrong key length).
	ErrCrypto = errors.New("invalid key material")

	// ErrDecryption indicates that an envelope is malformed or failed its
	// integrity check (wrong key or corrupted data).
	ErrDecryption = errors.New("decryption failed")
)
