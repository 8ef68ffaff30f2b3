package tempo

import "io"

// Cipher seals day files at rest. Both directions stream from r to w.
type Cipher interface {
	Encrypt(r io.Reader, w io.Writer) error
	Decrypt(r io.Reader, w io.Writer) error
}
