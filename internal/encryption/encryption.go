// Package encryption seals catalog snapshots with age so a copy of the
// catalog can be kept somewhere less trusted than the machine it describes.
package encryption

import (
	"errors"
	"io"
)

// ErrNoKeys is returned when sealing or unlocking before keys were generated.
var ErrNoKeys = errors.New("encryption keys not generated")

// Keyring owns a key pair. Sealing needs only the public half; opening needs
// the passphrase-protected private half.
type Keyring interface {
	// Generate creates a new key pair protected by passphrase, replacing
	// any existing one.
	Generate(passphrase string) error

	// Seal reads plaintext from r and writes ciphertext to w.
	Seal(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key and returns an Opener for ciphertext
	// produced by Seal.
	Unlock(passphrase string) (Opener, error)

	// HasKeys reports whether a key pair is present.
	HasKeys() bool
}

// Opener decrypts data sealed by a Keyring.
type Opener interface {
	Open(r io.Reader, w io.Writer) error
}
