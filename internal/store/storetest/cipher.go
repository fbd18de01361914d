// Package storetest provides a store.Cipher for tests that need no gpg.
package storetest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
)

const magic = "cask-test-cipher\n"

// Cipher stores the password next to the plaintext instead of encrypting.
// It checks passwords exactly like a real cipher would and counts calls.
type Cipher struct {
	// EncryptErr, when set, is returned by every Encrypt call after the
	// destination file has been partially written.
	EncryptErr error

	mu       sync.Mutex
	decrypts int
	encrypts int
}

// Decrypt implements store.Cipher.
func (c *Cipher) Decrypt(_ context.Context, path string, password []byte) ([]byte, error) {
	c.mu.Lock()
	c.decrypts++
	c.mu.Unlock()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrDecryptFailed, err)
	}
	rest, ok := bytes.CutPrefix(raw, []byte(magic))
	if !ok {
		return nil, fmt.Errorf("%w: not a test ciphertext", kerrors.ErrDecryptFailed)
	}
	pass, plaintext, ok := bytes.Cut(rest, []byte("\n"))
	if !ok {
		return nil, fmt.Errorf("%w: truncated test ciphertext", kerrors.ErrDecryptFailed)
	}
	if !bytes.Equal(pass, password) {
		return nil, kerrors.ErrIncorrectPassword
	}
	return plaintext, nil
}

// Encrypt implements store.Cipher.
func (c *Cipher) Encrypt(_ context.Context, path string, plaintext, password []byte) error {
	c.mu.Lock()
	c.encrypts++
	fail := c.EncryptErr
	c.mu.Unlock()

	var buf bytes.Buffer
	buf.WriteString(magic)
	buf.Write(password)
	buf.WriteByte('\n')
	buf.Write(plaintext)

	data := buf.Bytes()
	if fail != nil {
		data = data[:len(data)/2]
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrEncryptFailed, err)
	}
	return fail
}

// Calls returns how many times Decrypt and Encrypt ran.
func (c *Cipher) Calls() (decrypts, encrypts int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decrypts, c.encrypts
}
