package tree

import (
	"fmt"
	"strings"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
)

// maxSymlinkHops bounds symlink chains, like the kernel's ELOOP limit.
const maxSymlinkHops = 40

// Resolve finds the node named by path. Relative paths start at cwd. The
// final component is followed if it is a symlink only when follow is set or
// the path ends in "/".
func (fs *FS) Resolve(cwd Handle, path string, follow bool) (Handle, error) {
	h, _, err := fs.resolve(cwd, path, follow, 0)
	if err != nil {
		return NoHandle, err
	}
	return h, nil
}

// Lookup resolves path without following a trailing symlink.
func (fs *FS) Lookup(cwd Handle, path string) (Handle, error) {
	return fs.Resolve(cwd, path, false)
}

// Stat resolves path, following a trailing symlink to what it points to.
func (fs *FS) Stat(cwd Handle, path string) (Handle, error) {
	return fs.Resolve(cwd, path, true)
}

func (fs *FS) resolve(cwd Handle, path string, follow bool, hops int) (Handle, int, error) {
	if path == "" {
		return NoHandle, hops, fmt.Errorf("%w: empty path", kerrors.ErrNotFound)
	}

	cur := cwd
	if strings.HasPrefix(path, "/") {
		cur = fs.root
	}
	mustBeDir := strings.HasSuffix(path, "/")
	if mustBeDir {
		follow = true
	}

	var err error
	for _, comp := range strings.Split(path, "/") {
		if comp == "" {
			continue
		}
		cur, hops, err = fs.followLinks(cur, hops)
		if err != nil {
			return NoHandle, hops, err
		}
		n := fs.get(cur)
		if n.kind != KindDir {
			return NoHandle, hops, fmt.Errorf("%w: %s", kerrors.ErrNotDir, path)
		}
		switch comp {
		case ".":
			continue
		case "..":
			cur = n.parent
			continue
		}
		child, ok := n.entries[comp]
		if !ok {
			return NoHandle, hops, fmt.Errorf("%w: %s", kerrors.ErrNotFound, path)
		}
		cur = child
	}

	if follow {
		cur, hops, err = fs.followLinks(cur, hops)
		if err != nil {
			return NoHandle, hops, err
		}
	}
	if mustBeDir && fs.get(cur).kind != KindDir {
		return NoHandle, hops, fmt.Errorf("%w: %s", kerrors.ErrNotDir, path)
	}
	return cur, hops, nil
}

// followLinks replaces h by its symlink target until it names a non-link.
// Targets resolve relative to the directory containing the link.
func (fs *FS) followLinks(h Handle, hops int) (Handle, int, error) {
	for {
		n := fs.get(h)
		if n.kind != KindSymlink {
			return h, hops, nil
		}
		hops++
		if hops > maxSymlinkHops {
			return NoHandle, hops, fmt.Errorf("%w: %s", kerrors.ErrSymlinkLoop, fs.Path(h))
		}
		target, next, err := fs.resolve(n.parent, n.data, true, hops)
		if err != nil {
			if kerrors.Is(err, kerrors.ErrNotFound) {
				return NoHandle, next, fmt.Errorf("%w: broken symlink %s -> %s", kerrors.ErrNotFound, fs.Path(h), n.data)
			}
			return NoHandle, next, err
		}
		h, hops = target, next
	}
}

// resolveParent splits path into the directory that would contain its final
// component and that component's name. The name is validated but need not
// exist.
func (fs *FS) resolveParent(cwd Handle, path string) (Handle, string, error) {
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		return NoHandle, "", fmt.Errorf("%w: %q", kerrors.ErrInvalidName, path)
	}

	dirPath, name := "", trimmed
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		dirPath, name = trimmed[:i+1], trimmed[i+1:]
	}
	if err := ValidateName(name); err != nil {
		return NoHandle, "", err
	}

	dir := cwd
	if dirPath != "" {
		var err error
		dir, err = fs.Stat(cwd, dirPath)
		if err != nil {
			return NoHandle, "", err
		}
	}
	if fs.get(dir).kind != KindDir {
		return NoHandle, "", fmt.Errorf("%w: %s", kerrors.ErrNotDir, dirPath)
	}
	return dir, name, nil
}

// ValidateName checks that name can label a directory entry.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return fmt.Errorf("%w: %q", kerrors.ErrInvalidName, name)
	}
	return nil
}

// Base returns the final component of path, ignoring trailing slashes.
func Base(path string) string {
	trimmed := strings.TrimRight(path, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
