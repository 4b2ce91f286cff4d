package crypto

import (
	"fmt"

	"github.com/awnumar/memguard"
)

// KeySize is the length in bytes of every [DerivedKey].
const KeySize = 32

// DerivedKey is symmetric key material derived from a master password.
// It is never persisted.
type DerivedKey []byte

// Validate returns ErrCrypto if the key does not have [KeySize] bytes.
func (k DerivedKey) Validate() error {
	if len(k) != KeySize {
		return fmt.Errorf("%w: key length %d, want %d", ErrCrypto, len(k), KeySize)
	}
	return nil
}

// Wipe zeroes the key in place.
func (k DerivedKey) Wipe() {
	memguard.WipeBytes(k)
}
