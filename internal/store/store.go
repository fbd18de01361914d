package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/cask/internal/codec"
	kerrors "github.com/PolarWolf314/cask/internal/errors"
	"github.com/PolarWolf314/cask/internal/tree"
	"github.com/google/uuid"
)

// Store is an encrypted store file.
type Store struct {
	// Path is the store file as configured. It may be relative or a symlink.
	Path string

	Cipher Cipher

	// Stamp is handed to decoded trees for later mutations; nil means
	// tree.Now.
	Stamp tree.Stamper
}

// New returns a Store for path using cipher.
func New(path string, cipher Cipher) *Store {
	return &Store{Path: path, Cipher: cipher}
}

// Canonical returns the absolute, symlink-free path of the store file. It
// names the store for locking and for the session daemon, so every way of
// spelling the same file maps to one lock and one daemon. The file itself
// need not exist yet, but its directory must.
func (s *Store) Canonical() (string, error) {
	return Canonical(s.Path)
}

// Canonical is Store.Canonical for a bare path.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return "", fmt.Errorf("resolving directory of %s: %w", path, err)
	}
	return filepath.Join(dir, filepath.Base(abs)), nil
}

// Exists reports whether the store file exists.
func (s *Store) Exists() (bool, error) {
	_, err := os.Stat(s.Path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking store %s: %w", s.Path, err)
}

// LoadDocument decrypts the store and returns the plaintext document
// without interpreting it.
func (s *Store) LoadDocument(ctx context.Context, password []byte) ([]byte, error) {
	ok, err := s.Exists()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s (hint: run `cask init`)", kerrors.ErrStoreNotFound, s.Path)
	}
	plaintext, err := s.Cipher.Decrypt(ctx, s.Path, password)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// Load decrypts and decodes the store.
func (s *Store) Load(ctx context.Context, password []byte) (*tree.FS, error) {
	plaintext, err := s.LoadDocument(ctx, password)
	if err != nil {
		return nil, err
	}
	fsys, err := codec.Decode(plaintext, s.Stamp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return fsys, nil
}

// Save encodes fsys and atomically replaces the store with its encryption.
// The tree is marked clean once the new file is in place.
func (s *Store) Save(ctx context.Context, fsys *tree.FS, password []byte) error {
	doc, err := codec.Encode(fsys)
	if err != nil {
		return err
	}
	if err := s.SaveDocument(ctx, doc, password); err != nil {
		return err
	}
	fsys.MarkClean()
	return nil
}

// Create writes a new store holding fsys. An existing store is only
// replaced when force is set.
func (s *Store) Create(ctx context.Context, fsys *tree.FS, password []byte, force bool) error {
	ok, err := s.Exists()
	if err != nil {
		return err
	}
	if ok && !force {
		return fmt.Errorf("%w: %s (use --force to overwrite)", kerrors.ErrStoreExists, s.Path)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	return s.Save(ctx, fsys, password)
}

// SaveDocument atomically replaces the store with the encryption of doc.
func (s *Store) SaveDocument(ctx context.Context, doc, password []byte) error {
	target, err := s.target()
	if err != nil {
		return err
	}
	dir := filepath.Dir(target)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(target), uuid.NewString()))

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	f.Close()

	committed := false
	defer func() {
		if !committed {
			os.Remove(tmp)
		}
	}()

	if err := s.Cipher.Encrypt(ctx, tmp, doc, password); err != nil {
		return err
	}
	if err := syncFile(tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("replacing %s: %w", target, err)
	}
	committed = true
	return syncDir(dir)
}

// target resolves the file a save should replace: the store path with any
// symlinks followed, or the path itself for a store not created yet.
func (s *Store) target() (string, error) {
	resolved, err := filepath.EvalSymlinks(s.Path)
	if err == nil {
		return resolved, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		if _, lerr := os.Lstat(s.Path); lerr == nil {
			// A dangling symlink: write where it points.
			dest, rerr := os.Readlink(s.Path)
			if rerr != nil {
				return "", fmt.Errorf("reading link %s: %w", s.Path, rerr)
			}
			if !filepath.IsAbs(dest) {
				dest = filepath.Join(filepath.Dir(s.Path), dest)
			}
			return dest, nil
		}
		return s.Path, nil
	}
	return "", fmt.Errorf("resolving %s: %w", s.Path, err)
}

func syncFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dir, err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", dir, err)
	}
	return nil
}
