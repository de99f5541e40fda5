package encryption

import (
	"fmt"

	"isearch/internal/config"
)

// NewKeyringFromConfig returns the Keyring selected by cfg.Type.
func NewKeyringFromConfig(cfg config.EncryptionConfig) (Keyring, error) {
	switch cfg.Type {
	case "age", "":
		return NewAgeKeyring(cfg), nil
	case "plain":
		return PlainKeyring{}, nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
