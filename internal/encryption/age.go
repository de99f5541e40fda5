package encryption

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"isearch/internal/config"
)

// AgeKeyring keeps an X25519 key pair on disk. The recipient is stored in
// plaintext; the identity is wrapped with an scrypt passphrase.
type AgeKeyring struct {
	publicKeyPath  string
	privateKeyPath string
}

var _ Keyring = (*AgeKeyring)(nil)

func NewAgeKeyring(cfg config.EncryptionConfig) *AgeKeyring {
	return &AgeKeyring{
		publicKeyPath:  cfg.PublicKeyPath,
		privateKeyPath: cfg.PrivateKeyPath,
	}
}

func (k *AgeKeyring) Generate(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase must not be empty")
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	for _, p := range []string{k.publicKeyPath, k.privateKeyPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
			return fmt.Errorf("creating key directory: %w", err)
		}
	}

	var wrapped bytes.Buffer
	scrypt, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}
	if err := seal(strings.NewReader(identity.String()+"\n"), &wrapped, scrypt); err != nil {
		return fmt.Errorf("wrapping private key: %w", err)
	}

	// Identity before recipient, so HasKeys never sees a half-written pair.
	if err := os.WriteFile(k.privateKeyPath, wrapped.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}
	if err := os.WriteFile(k.publicKeyPath, []byte(identity.Recipient().String()+"\n"), 0644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}
	return nil
}

func (k *AgeKeyring) Seal(r io.Reader, w io.Writer) error {
	recipient, err := k.recipient()
	if err != nil {
		return err
	}
	return seal(r, w, recipient)
}

func (k *AgeKeyring) Unlock(passphrase string) (Opener, error) {
	wrapped, err := os.ReadFile(k.privateKeyPath)
	if os.IsNotExist(err) {
		return nil, ErrNoKeys
	}
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}

	scrypt, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}
	var plain bytes.Buffer
	if err := open(bytes.NewReader(wrapped), &plain, scrypt); err != nil {
		return nil, fmt.Errorf("unwrapping private key: %w", err)
	}

	identities, err := age.ParseIdentities(&plain)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("private key file holds no identity")
	}
	return ageOpener{identity: identities[0]}, nil
}

func (k *AgeKeyring) HasKeys() bool {
	for _, p := range []string{k.publicKeyPath, k.privateKeyPath} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

func (k *AgeKeyring) recipient() (age.Recipient, error) {
	data, err := os.ReadFile(k.publicKeyPath)
	if os.IsNotExist(err) {
		return nil, ErrNoKeys
	}
	if err != nil {
		return nil, fmt.Errorf("reading public key: %w", err)
	}

	recipients, err := age.ParseRecipients(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("public key file holds no recipient")
	}
	return recipients[0], nil
}

type ageOpener struct {
	identity age.Identity
}

func (o ageOpener) Open(r io.Reader, w io.Writer) error {
	return open(r, w, o.identity)
}

func seal(r io.Reader, w io.Writer, recipient age.Recipient) error {
	enc, err := age.Encrypt(w, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.Copy(enc, r); err != nil {
		return fmt.Errorf("encrypting: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}
	return nil
}

func open(r io.Reader, w io.Writer, identity age.Identity) error {
	dec, err := age.Decrypt(r, identity)
	if err != nil {
		return fmt.Errorf("creating decrypted reader: %w", err)
	}
	if _, err := io.Copy(w, dec); err != nil {
		return fmt.Errorf("decrypting: %w", err)
	}
	return nil
}
