package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"filippo.io/age"

	"tempo-go/internal/config"
	"tempo-go/internal/tempo"
)

// PassphraseFunc supplies the passphrase that unlocks the private key.
type PassphraseFunc func() (string, error)

// ErrNotConfigured is returned when the key pair has not been generated.
var ErrNotConfigured = errors.New("encryption keys not configured (run: tempo config init --encrypt)")

// AgeCipher seals day files with filippo.io/age using an X25519 key pair.
// The public key is stored in plaintext; the private key is encrypted with
// the user's passphrase using age's scrypt recipient. Encrypting never needs
// the passphrase. The first Decrypt asks for it and keeps the unlocked
// identity for the rest of the process.
type AgeCipher struct {
	publicKeyPath  string
	privateKeyPath string
	passphrase     PassphraseFunc

	mu       sync.Mutex
	identity age.Identity
}

var _ tempo.Cipher = (*AgeCipher)(nil)

// NewAgeCipher creates an AgeCipher from configuration.
func NewAgeCipher(cfg config.EncryptionConfig, passphrase PassphraseFunc) *AgeCipher {
	return &AgeCipher{
		publicKeyPath:  cfg.PublicKeyPath,
		privateKeyPath: cfg.PrivateKeyPath,
		passphrase:     passphrase,
	}
}

// Setup generates a new X25519 key pair, writes the public key in plaintext
// and the private key sealed with passphrase.
func (c *AgeCipher) Setup(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase must not be empty")
	}
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	for _, p := range []string{c.publicKeyPath, c.privateKeyPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
			return fmt.Errorf("creating key directory: %w", err)
		}
	}

	if err := os.WriteFile(c.publicKeyPath, []byte(identity.Recipient().String()+"\n"), 0644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}

	privFile, err := os.OpenFile(c.privateKeyPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating private key file: %w", err)
	}
	defer privFile.Close()

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}
	w, err := age.Encrypt(privFile, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, identity.String()+"\n"); err != nil {
		return fmt.Errorf("writing encrypted private key: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encrypted private key: %w", err)
	}

	c.mu.Lock()
	c.identity = identity
	c.mu.Unlock()
	return nil
}

// IsConfigured reports whether both key files exist.
func (c *AgeCipher) IsConfigured() bool {
	for _, p := range []string{c.publicKeyPath, c.privateKeyPath} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// Encrypt reads plaintext from r and writes age ciphertext to w.
func (c *AgeCipher) Encrypt(r io.Reader, w io.Writer) error {
	recipient, err := c.loadRecipient()
	if err != nil {
		return err
	}

	enc, err := age.Encrypt(w, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.Copy(enc, r); err != nil {
		return fmt.Errorf("encrypting data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}
	return nil
}

// Decrypt reads age ciphertext from r and writes plaintext to w.
func (c *AgeCipher) Decrypt(r io.Reader, w io.Writer) error {
	identity, err := c.unlock()
	if err != nil {
		return err
	}

	dec, err := age.Decrypt(r, identity)
	if err != nil {
		return fmt.Errorf("creating decrypted reader: %w", err)
	}
	if _, err := io.Copy(w, dec); err != nil {
		return fmt.Errorf("decrypting data: %w", err)
	}
	return nil
}

// Unlock decrypts the private key with passphrase and keeps the identity.
func (c *AgeCipher) Unlock(passphrase string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	identity, err := c.readIdentity(passphrase)
	if err != nil {
		return err
	}
	c.identity = identity
	return nil
}

func (c *AgeCipher) unlock() (age.Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.identity != nil {
		return c.identity, nil
	}
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if c.passphrase == nil {
		return nil, fmt.Errorf("no passphrase source for private key")
	}
	passphrase, err := c.passphrase()
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	identity, err := c.readIdentity(passphrase)
	if err != nil {
		return nil, err
	}
	c.identity = identity
	return identity, nil
}

func (c *AgeCipher) readIdentity(passphrase string) (age.Identity, error) {
	privData, err := os.ReadFile(c.privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading private key file: %w", err)
	}

	scrypt, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}
	dec, err := age.Decrypt(bytes.NewReader(privData), scrypt)
	if err != nil {
		return nil, fmt.Errorf("decrypting private key: %w", err)
	}

	identities, err := age.ParseIdentities(dec)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found in private key")
	}
	return identities[0], nil
}

func (c *AgeCipher) loadRecipient() (age.Recipient, error) {
	pubData, err := os.ReadFile(c.publicKeyPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("reading public key: %w", err)
	}

	recipients, err := age.ParseRecipients(bytes.NewReader(pubData))
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no recipients found in public key file")
	}
	return recipients[0], nil
}
