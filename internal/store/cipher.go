package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
)

// Cipher encrypts and decrypts store files with a password.
type Cipher interface {
	// Decrypt returns the plaintext of the file at path.
	Decrypt(ctx context.Context, path string, password []byte) ([]byte, error)

	// Encrypt writes the encryption of plaintext to the existing, empty
	// file at path.
	Encrypt(ctx context.Context, path string, plaintext, password []byte) error
}

// GPG is a Cipher backed by the gpg binary in symmetric mode. The password
// reaches gpg through an inherited pipe, never through argv or the
// environment.
type GPG struct {
	// Binary is the gpg executable; empty means "gpg" from PATH.
	Binary string
}

var _ Cipher = GPG{}

func (g GPG) binary() string {
	if g.Binary == "" {
		return "gpg"
	}
	return g.Binary
}

// passphraseFD is the descriptor the password pipe lands on in the child:
// ExtraFiles[0] is always fd 3.
const passphraseFD = "3"

func (g GPG) command(ctx context.Context, args ...string) *exec.Cmd {
	base := []string{
		"--batch", "--quiet", "--no-tty",
		"--pinentry-mode", "loopback",
		"--passphrase-fd", passphraseFD,
	}
	return exec.CommandContext(ctx, g.binary(), append(base, args...)...)
}

// Decrypt implements Cipher.
func (g GPG) Decrypt(ctx context.Context, path string, password []byte) ([]byte, error) {
	cmd := g.command(ctx, "--decrypt", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := g.run(cmd, password); err != nil {
		return nil, g.decryptError(err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// Encrypt implements Cipher. gpg writes straight into path; anything it
// prints on stdout instead is a fault, because it means plaintext or
// ciphertext went somewhere other than the store.
func (g GPG) Encrypt(ctx context.Context, path string, plaintext, password []byte) error {
	cmd := g.command(ctx, "--yes", "--symmetric", "--cipher-algo", "AES256", "--output", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(plaintext)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := g.run(cmd, password); err != nil {
		if errors.Is(err, kerrors.ErrToolMissing) {
			return err
		}
		return fmt.Errorf("%w: %s", kerrors.ErrEncryptFailed, firstLine(stderr.String(), err))
	}
	if stdout.Len() > 0 {
		return fmt.Errorf("%w: gpg wrote %d bytes to stdout while encrypting", kerrors.ErrStrayOutput, stdout.Len())
	}
	return nil
}

// run starts cmd with a pipe on fd 3 carrying password and waits for it. A
// binary that cannot be started is reported as ErrToolMissing.
func (g GPG) run(cmd *exec.Cmd, password []byte) error {
	r, w, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("creating passphrase pipe: %w", err)
	}
	cmd.ExtraFiles = []*os.File{r}

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return fmt.Errorf("%w: %s: %v", kerrors.ErrToolMissing, g.binary(), err)
	}
	r.Close()

	_, werr := w.Write(append(bytes.Clone(password), '\n'))
	w.Close()

	if err := cmd.Wait(); err != nil {
		return err
	}
	if werr != nil {
		return fmt.Errorf("writing passphrase: %w", werr)
	}
	return nil
}

func (g GPG) decryptError(err error, stderr string) error {
	if errors.Is(err, kerrors.ErrToolMissing) {
		return err
	}
	lower := strings.ToLower(stderr)
	if strings.Contains(lower, "bad session key") || strings.Contains(lower, "bad passphrase") {
		return kerrors.ErrIncorrectPassword
	}
	return fmt.Errorf("%w: %s", kerrors.ErrDecryptFailed, firstLine(stderr, err))
}

func firstLine(stderr string, err error) string {
	s := strings.TrimSpace(stderr)
	if s == "" {
		return err.Error()
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
