package encryption

import (
	"bytes"
	"fmt"
	"io"
)

var plainMagic = []byte("ISPLAIN\x00")

// PlainKeyring frames data with a fixed marker instead of encrypting it.
// Used by tests and by setups that opt out of snapshot encryption.
type PlainKeyring struct{}

var _ Keyring = PlainKeyring{}

func (PlainKeyring) Generate(string) error { return nil }

func (PlainKeyring) HasKeys() bool { return true }

func (PlainKeyring) Seal(r io.Reader, w io.Writer) error {
	if _, err := w.Write(plainMagic); err != nil {
		return fmt.Errorf("writing marker: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (PlainKeyring) Unlock(string) (Opener, error) { return plainOpener{}, nil }

type plainOpener struct{}

func (plainOpener) Open(r io.Reader, w io.Writer) error {
	marker := make([]byte, len(plainMagic))
	if _, err := io.ReadFull(r, marker); err != nil {
		return fmt.Errorf("reading marker: %w", err)
	}
	if !bytes.Equal(marker, plainMagic) {
		return fmt.Errorf("not a plain snapshot")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
