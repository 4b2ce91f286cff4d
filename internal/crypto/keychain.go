// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	// saltSize is the length of a freshly generated salt in bytes.
	saltSize = 16
	// minSaltSize is the shortest decoded salt DeriveKey accepts.
	minSaltSize = 16
)

// KDFParams holds the Argon2id tuning parameters of a [KeyChainService].
// Keys derived under different parameters are unrelated, so the values must
// stay fixed for the lifetime of a tenant's data.
type KDFParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultKDFParams returns the Argon2id parameters recommended by OWASP (2024):
//   - time cost:   1 iteration
//   - memory cost: 64 MiB
//   - parallelism: 4 threads
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Time:    1,
		Memory:  64 * 1024, // 64 MiB
		Threads: 4,
	}
}

// keyChainService is the private implementation of [KeyChainService].
type keyChainService struct {
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
	argonKeyLen  uint32

	compressionThreshold int
}

// Option customises a [KeyChainService].
type Option func(*keyChainService)

// WithKDFParams overrides the Argon2id parameters. Zero fields keep their
// defaults.
func WithKDFParams(p KDFParams) Option {
	return func(k *keyChainService) {
		if p.Time > 0 {
			k.argonTime = p.Time
		}
		if p.Memory > 0 {
			k.argonMemory = p.Memory
		}
		if p.Threads > 0 {
			k.argonThreads = p.Threads
		}
	}
}

// WithCompressionThreshold sets the plaintext size (bytes) from which Seal
// tries zstd compression. A negative value disables compression.
func WithCompressionThreshold(n int) Option {
	return func(k *keyChainService) {
		k.compressionThreshold = n
	}
}

// NewKeyChainService constructs a [KeyChainService] with [DefaultKDFParams]
// and a 1 KiB compression threshold, adjusted by opts.
func NewKeyChainService(opts ...Option) KeyChainService {
	p := DefaultKDFParams()
	k := &keyChainService{
		argonTime:            p.Time,
		argonMemory:          p.Memory,
		argonThreads:         p.Threads,
		argonKeyLen:          KeySize,
		compressionThreshold: defaultCompressionThreshold,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// GenerateEncryptionSalt implements [KeyChainService]. It reads 16 random
// bytes from the OS CSPRNG and returns them base64-encoded.
func (k *keyChainService) GenerateEncryptionSalt() (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// DeriveKey implements [KeyChainService].
func (k *keyChainService) DeriveKey(masterPassword, salt string) (DerivedKey, error) {
	if salt == "" {
		return nil, fmt.Errorf("%w: empty salt", ErrConfiguration)
	}
	saltBytes, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return nil, fmt.Errorf("%w: decode salt: %v", ErrConfiguration, err)
	}
	if len(saltBytes) < minSaltSize {
		return nil, fmt.Errorf("%w: salt is %d bytes, want at least %d", ErrConfiguration, len(saltBytes), minSaltSize)
	}

	return argon2.IDKey(
		[]byte(masterPassword),
		saltBytes,
		k.argonTime,
		k.argonMemory,
		k.argonThreads,
		k.argonKeyLen,
	), nil
}
