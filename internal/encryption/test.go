package encryption

import (
	"bytes"
	"fmt"
	"io"

	"tempo-go/internal/tempo"
)

// testHeader marks output of TestCipher.
var testHeader = []byte("TEMPOENC")

// TestCipher is a deterministic cipher for tests. It prepends a fixed
// header on Encrypt and strips it on Decrypt.
type TestCipher struct{}

var _ tempo.Cipher = (*TestCipher)(nil)

func NewTestCipher() *TestCipher {
	return &TestCipher{}
}

func (c *TestCipher) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (c *TestCipher) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
