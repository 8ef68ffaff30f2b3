package encryption

import (
	"fmt"

	"tempo-go/internal/config"
	"tempo-go/internal/tempo"
)

// NewCipherFromConfig creates a Cipher based on the configuration type.
// Type "none" (or empty) returns a nil Cipher: day files are stored in plaintext.
func NewCipherFromConfig(cfg config.EncryptionConfig, passphrase PassphraseFunc) (tempo.Cipher, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		if cfg.PublicKeyPath == "" || cfg.PrivateKeyPath == "" {
			return nil, fmt.Errorf("public_key_path and private_key_path required for age encryption")
		}
		return NewAgeCipher(cfg, passphrase), nil
	case "test":
		return NewTestCipher(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
