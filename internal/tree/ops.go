package tree

import (
	"errors"
	"fmt"
	"strings"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
)

// Mkdir creates an empty directory at path.
func (fs *FS) Mkdir(cwd Handle, path string) (Handle, error) {
	dir, name, err := fs.resolveParent(cwd, path)
	if err != nil {
		return NoHandle, err
	}
	if _, ok := fs.get(dir).entries[name]; ok {
		return NoHandle, fmt.Errorf("%w: %s", kerrors.ErrExists, path)
	}

	h := fs.alloc(node{kind: KindDir, entries: map[string]Handle{}})
	fs.attach(dir, name, h)
	fs.touch(h)
	fs.touch(dir)
	return h, nil
}

// CreateFile creates a new file holding data.
func (fs *FS) CreateFile(cwd Handle, path, data string) (Handle, error) {
	if err := validateData(data); err != nil {
		return NoHandle, err
	}
	dir, name, err := fs.resolveParent(cwd, path)
	if err != nil {
		return NoHandle, err
	}
	if _, ok := fs.get(dir).entries[name]; ok {
		return NoHandle, fmt.Errorf("%w: %s", kerrors.ErrExists, path)
	}

	h := fs.alloc(node{kind: KindFile, data: data})
	fs.attach(dir, name, h)
	fs.touch(h)
	fs.touch(dir)
	return h, nil
}

// EditFile replaces the contents of an existing file. Symlinks are followed.
func (fs *FS) EditFile(cwd Handle, path, data string) (Handle, error) {
	if err := validateData(data); err != nil {
		return NoHandle, err
	}
	h, err := fs.Stat(cwd, path)
	if err != nil {
		return NoHandle, err
	}
	n := fs.get(h)
	if n.kind != KindFile {
		return NoHandle, fmt.Errorf("%w: %s is a %s", kerrors.ErrNotFile, path, n.kind)
	}

	n.data = data
	fs.touch(h)
	return h, nil
}

// Symlink creates a link at path pointing to target. The target is stored
// verbatim and need not exist.
func (fs *FS) Symlink(cwd Handle, path, target string) (Handle, error) {
	if target == "" {
		return NoHandle, kerrors.ErrEmptyTarget
	}
	dir, name, err := fs.resolveParent(cwd, path)
	if err != nil {
		return NoHandle, err
	}
	if _, ok := fs.get(dir).entries[name]; ok {
		return NoHandle, fmt.Errorf("%w: %s", kerrors.ErrExists, path)
	}

	h := fs.alloc(node{kind: KindSymlink, data: target})
	fs.attach(dir, name, h)
	fs.touch(h)
	fs.touch(dir)
	return h, nil
}

// Move renames src to dst. When dst names an existing directory (following
// symlinks), src is moved inside it under its current name, even if the
// caller meant dst as the exact new name. An existing entry at the final
// name is replaced only with overwrite, and never if it is a non-empty
// directory.
func (fs *FS) Move(cwd Handle, src, dst string, overwrite bool) (Handle, error) {
	if base := Base(src); base == "." || base == ".." {
		return NoHandle, fmt.Errorf("%w: %q", kerrors.ErrInvalidName, src)
	}
	s, err := fs.Lookup(cwd, trimSlash(src))
	if err != nil {
		return NoHandle, err
	}
	if s == fs.root {
		return NoHandle, kerrors.ErrMoveRoot
	}

	var dir Handle
	var name string
	if d, err := fs.Stat(cwd, dst); err == nil && fs.get(d).kind == KindDir {
		dir, name = d, fs.get(s).name
	} else {
		dir, name, err = fs.resolveParent(cwd, dst)
		if err != nil {
			return NoHandle, err
		}
	}

	if fs.isAncestor(s, dir) {
		return NoHandle, fmt.Errorf("%w: %s to %s", kerrors.ErrMoveIntoSelf, src, dst)
	}

	if existing, ok := fs.get(dir).entries[name]; ok {
		if existing == s {
			return s, nil
		}
		if !overwrite {
			return NoHandle, fmt.Errorf("%w: %s", kerrors.ErrExists, fs.Path(existing))
		}
		if e := fs.get(existing); e.kind == KindDir && len(e.entries) > 0 {
			return NoHandle, fmt.Errorf("%w: %s", kerrors.ErrNotEmpty, fs.Path(existing))
		}
		fs.detach(existing)
		fs.release(existing)
	}

	oldDir := fs.get(s).parent
	fs.detach(s)
	fs.attach(dir, name, s)
	fs.touch(s)
	fs.touch(oldDir)
	fs.touch(dir)
	return s, nil
}

// Remove deletes each path. Directories with entries need recursive. Paths
// are handled independently: a failure on one does not undo or prevent the
// others, and all failures are returned joined. Once an earlier path has
// removed cwd, later relative paths fail with ErrNotFound.
func (fs *FS) Remove(cwd Handle, paths []string, recursive bool) error {
	var errs []error
	for _, p := range paths {
		if err := fs.removeOne(cwd, p, recursive); err != nil {
			errs = append(errs, fmt.Errorf("cannot remove %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

func (fs *FS) removeOne(cwd Handle, path string, recursive bool) error {
	if base := Base(path); base == "." || base == ".." {
		return fmt.Errorf("%w: %q", kerrors.ErrInvalidName, path)
	}
	if !strings.HasPrefix(path, "/") && !fs.Valid(cwd) {
		return fmt.Errorf("%w: working directory was removed", kerrors.ErrNotFound)
	}
	h, err := fs.Lookup(cwd, trimSlash(path))
	if err != nil {
		return err
	}
	if h == fs.root {
		return kerrors.ErrRemoveRoot
	}
	n := fs.get(h)
	if n.kind == KindDir && len(n.entries) > 0 && !recursive {
		return kerrors.ErrNotEmpty
	}

	dir := n.parent
	fs.detach(h)
	fs.release(h)
	fs.touch(dir)
	return nil
}

func validateData(data string) error {
	if strings.ContainsAny(data, "\n\r") {
		return kerrors.ErrMultiline
	}
	return nil
}

// trimSlash drops trailing slashes so the final component is looked up
// without being followed. "/" stays "/".
func trimSlash(path string) string {
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" && path != "" {
		return "/"
	}
	return trimmed
}
