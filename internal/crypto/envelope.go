package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// EnvelopePrefix marks a value as a ciphertext envelope. It lets every layer
// tell plaintext from ciphertext without the key, so legacy plaintext rows
// can coexist with encrypted ones during migration.
const EnvelopePrefix = "enc:v1:"

// Envelope body: [flag:1][nonce:12][ciphertext||tag:16+].
// The flag byte is passed to GCM as additional data, so it cannot be flipped
// without failing authentication.
const (
	flagRaw  byte = 0x00
	flagZstd byte = 0x01

	gcmNonceSize = 12
	gcmTagSize   = 16

	minEnvelopeBody = 1 + gcmNonceSize + gcmTagSize
)

func newGCM(key DerivedKey) (cipher.AEAD, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: create cipher: %v", ErrCrypto, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: create gcm: %v", ErrCrypto, err)
	}
	return gcm, nil
}

// Seal implements [KeyChainService]. The plaintext is compressed first when
// it is large enough and compression pays off.
func (k *keyChainService) Seal(plaintext string, key DerivedKey) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	payload, flag := maybeCompress([]byte(plaintext), k.compressionThreshold)

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	body := make([]byte, 0, 1+len(nonce)+len(payload)+gcm.Overhead())
	body = append(body, flag)
	body = append(body, nonce...)
	body = gcm.Seal(body, nonce, payload, []byte{flag})

	return EnvelopePrefix + base64.StdEncoding.EncodeToString(body), nil
}

// Open implements [KeyChainService].
func (k *keyChainService) Open(envelope string, key DerivedKey) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	body, err := decodeEnvelope(envelope)
	if err != nil {
		return "", err
	}

	flag := body[0]
	nonce := body[1 : 1+gcmNonceSize]
	ciphertext := body[1+gcmNonceSize:]

	// An error here almost always means a wrong master password.
	payload, err := gcm.Open(nil, nonce, ciphertext, []byte{flag})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	plain, err := decompress(payload, flag)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return string(plain), nil
}

// IsEnvelope implements [KeyChainService].
func (k *keyChainService) IsEnvelope(value string) bool {
	return IsEnvelope(value)
}

// IsEnvelope reports whether value carries the envelope prefix followed by a
// decodable body of plausible size. It is a syntactic check only.
func IsEnvelope(value string) bool {
	_, err := decodeEnvelope(value)
	return err == nil
}

func decodeEnvelope(value string) ([]byte, error) {
	encoded, ok := strings.CutPrefix(value, EnvelopePrefix)
	if !ok {
		return nil, fmt.Errorf("%w: missing envelope prefix", ErrDecryption)
	}
	body, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrDecryption, err)
	}
	if len(body) < minEnvelopeBody {
		return nil, fmt.Errorf("%w: envelope too short", ErrDecryption)
	}
	if body[0] != flagRaw && body[0] != flagZstd {
		return nil, fmt.Errorf("%w: unknown envelope flag %#x", ErrDecryption, body[0])
	}
	return body, nil
}
