package crypto

//go:generate mockgen -source=interfaces.go -destination=../mock/keychain_service_mock.go -package=mock

// KeyChainService owns all client-side cryptography of the sensitive-field
// layer. It knows nothing about tenants, sessions or the record store.
//
// Scheme:
//
//	Salt     = GenerateEncryptionSalt()          (once per tenant, stored openly)
//	Key      = DeriveKey(masterPassword, Salt)   (Argon2id, memory only)
//	Envelope = Seal(plaintext, Key)              (AES-256-GCM, "enc:v1:" prefix)
//	Plain    = Open(Envelope, Key)
type KeyChainService interface {
	// GenerateEncryptionSalt returns 16 random bytes encoded as standard
	// base64. The salt is not a secret; it makes equal passwords of
	// different tenants yield different keys.
	GenerateEncryptionSalt() (string, error)

	// DeriveKey derives a 256-bit key from masterPassword and the
	// base64-encoded salt via Argon2id. It is deterministic for equal inputs.
	// A salt that cannot be decoded or is too short yields ErrConfiguration.
	DeriveKey(masterPassword, salt string) (DerivedKey, error)

	// Seal encrypts plaintext with key and returns a ciphertext envelope.
	// Every call uses a fresh random nonce.
	Seal(plaintext string, key DerivedKey) (string, error)

	// Open verifies and decrypts an envelope produced by Seal. It returns
	// ErrDecryption if the envelope is malformed or fails authentication.
	Open(envelope string, key DerivedKey) (string, error)

	// IsEnvelope reports whether value looks like an envelope produced by
	// Seal. It does not need the key and never fails.
	IsEnvelope(value string) bool
}
