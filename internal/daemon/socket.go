package daemon

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// socketNameLen is the number of hex digits of the path hash used in a
// socket name. It keeps socket paths well under the sun_path limit.
const socketNameLen = 32

// DefaultSocketDir returns the per-user directory daemon sockets live in:
// $XDG_RUNTIME_DIR/cask when set, else <tmp>/cask-<uid>.
func DefaultSocketDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "cask")
	}
	return filepath.Join(os.TempDir(), "cask-"+strconv.Itoa(os.Getuid()))
}

// SocketPath returns the socket for the store at canonical inside dir.
func SocketPath(dir, canonical string) string {
	sum := blake2b.Sum256([]byte(canonical))
	return filepath.Join(dir, hex.EncodeToString(sum[:])[:socketNameLen]+".sock")
}

// EnsureSocketDir creates dir with mode 0700 if needed and verifies that it
// is a directory owned by the current user that nobody else can enter.
func EnsureSocketDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}
	info, err := os.Lstat(dir)
	if err != nil {
		return fmt.Errorf("checking socket directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("socket directory %s is not a directory", dir)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return fmt.Errorf("socket directory %s has mode %#o, want 0700", dir, perm)
	}
	return checkOwner(dir, info)
}
