package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
	"github.com/PolarWolf314/cask/internal/store/storetest"
	"github.com/PolarWolf314/cask/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var password = []byte("correct horse")

func newTestStore(t *testing.T) (*Store, *storetest.Cipher) {
	t.Helper()
	c := &storetest.Cipher{}
	return New(filepath.Join(t.TempDir(), "store.gpg"), c), c
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}

func TestCreateLoadSave(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)

	fsys := tree.New(nil)
	_, err := fsys.CreateFile(fsys.Root(), "secret", "s3cr3t")
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, fsys, password, false))
	assert.False(t, fsys.Dirty())

	info, err := os.Stat(s.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := s.Load(ctx, password)
	require.NoError(t, err)
	h, err := loaded.Stat(loaded.Root(), "secret")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", loaded.Data(h))

	_, err = loaded.Mkdir(loaded.Root(), "more")
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, loaded, password))

	again, err := s.Load(ctx, password)
	require.NoError(t, err)
	_, err = again.Lookup(again.Root(), "more")
	assert.NoError(t, err)

	decrypts, encrypts := c.Calls()
	assert.Equal(t, 2, decrypts)
	assert.Equal(t, 2, encrypts)
	assertNoTempFiles(t, filepath.Dir(s.Path))
}

func TestCreateRefusesExistingStore(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.Create(ctx, tree.New(nil), password, false))

	err := s.Create(ctx, tree.New(nil), password, false)
	assert.ErrorIs(t, err, kerrors.ErrStoreExists)

	assert.NoError(t, s.Create(ctx, tree.New(nil), []byte("new"), true))
	_, err = s.Load(ctx, []byte("new"))
	assert.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.Load(ctx, password)
	assert.ErrorIs(t, err, kerrors.ErrStoreNotFound)

	require.NoError(t, s.Create(ctx, tree.New(nil), password, false))
	_, err = s.Load(ctx, []byte("wrong"))
	assert.ErrorIs(t, err, kerrors.ErrIncorrectPassword)
	assert.False(t, kerrors.IsFatal(err))
}

func TestLoadCorruptDocument(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.SaveDocument(ctx, []byte(`{"data": 5, "metadata": {"format_version": 4, "mhost": "h", "mtime": 0, "mtzname": "UTC"}}`), password))

	_, err := s.Load(ctx, password)
	assert.ErrorIs(t, err, kerrors.ErrCorruptStore)
	assert.True(t, kerrors.IsFatal(err))
}

func TestFailedSaveLeavesStoreIntact(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)
	require.NoError(t, s.Create(ctx, tree.New(nil), password, false))
	before, err := os.ReadFile(s.Path)
	require.NoError(t, err)

	c.EncryptErr = errors.New("disk full")
	fsys := tree.New(nil)
	_, err = fsys.Mkdir(fsys.Root(), "lost")
	require.NoError(t, err)
	err = s.Save(ctx, fsys, password)
	require.Error(t, err)
	assert.True(t, fsys.Dirty())

	after, err := os.ReadFile(s.Path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assertNoTempFiles(t, filepath.Dir(s.Path))
}

func TestSaveThroughSymlink(t *testing.T) {
	ctx := context.Background()
	realDir := t.TempDir()
	linkDir := t.TempDir()
	realPath := filepath.Join(realDir, "store.gpg")
	link := filepath.Join(linkDir, "store.gpg")

	c := &storetest.Cipher{}
	require.NoError(t, New(realPath, c).Create(ctx, tree.New(nil), password, false))
	require.NoError(t, os.Symlink(realPath, link))

	s := New(link, c)
	fsys, err := s.Load(ctx, password)
	require.NoError(t, err)
	_, err = fsys.CreateFile(fsys.Root(), "x", "1")
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, fsys, password))

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.Equal(t, os.ModeSymlink, info.Mode()&os.ModeSymlink, "link must survive the save")

	fromReal, err := New(realPath, c).Load(ctx, password)
	require.NoError(t, err)
	_, err = fromReal.Lookup(fromReal.Root(), "x")
	assert.NoError(t, err)
	assertNoTempFiles(t, linkDir)
	assertNoTempFiles(t, realDir)
}

func TestCanonical(t *testing.T) {
	dir := t.TempDir()
	realPath := filepath.Join(dir, "store.gpg")
	require.NoError(t, os.WriteFile(realPath, nil, 0600))
	link := filepath.Join(dir, "alias.gpg")
	require.NoError(t, os.Symlink("store.gpg", link))

	a, err := Canonical(realPath)
	require.NoError(t, err)
	b, err := Canonical(link)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	missing, err := Canonical(filepath.Join(dir, "new.gpg"))
	require.NoError(t, err)
	assert.Equal(t, "new.gpg", filepath.Base(missing))
	assert.True(t, filepath.IsAbs(missing))
}

func TestGPGMissingBinary(t *testing.T) {
	g := GPG{Binary: filepath.Join(t.TempDir(), "no-such-gpg")}
	_, err := g.Decrypt(context.Background(), "/dev/null", password)
	assert.ErrorIs(t, err, kerrors.ErrToolMissing)

	out := filepath.Join(t.TempDir(), "out")
	err = g.Encrypt(context.Background(), out, []byte("{}"), password)
	assert.ErrorIs(t, err, kerrors.ErrToolMissing)
}

func TestDecryptErrorClassification(t *testing.T) {
	g := GPG{}
	exit := errors.New("exit status 2")

	err := g.decryptError(exit, "gpg: AES256.CFB encrypted data\ngpg: decryption failed: Bad session key\n")
	assert.ErrorIs(t, err, kerrors.ErrIncorrectPassword)

	err = g.decryptError(exit, "gpg: no valid OpenPGP data found.\ngpg: decrypt_message failed\n")
	assert.ErrorIs(t, err, kerrors.ErrDecryptFailed)
	assert.Contains(t, err.Error(), "no valid OpenPGP data found")

	err = g.decryptError(exit, "")
	assert.Contains(t, err.Error(), "exit status 2")
}
