package tree

import (
	"fmt"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
)

// NewForRestore returns an FS holding only a root directory with the given
// metadata (nil for none). Decoders populate it with the Restore methods,
// which attach nodes exactly as recorded: unlike the mutating operations
// they never re-stamp the containing directory.
func NewForRestore(rootMeta *Metadata, stamp Stamper) *FS {
	if stamp == nil {
		stamp = Now
	}
	fs := &FS{stamp: stamp, Extra: map[string][]byte{}}
	fs.root = fs.alloc(node{kind: KindDir, entries: map[string]Handle{}})
	fs.nodes[fs.root].parent = fs.root
	setMeta(&fs.nodes[fs.root], rootMeta)
	return fs
}

// RestoreDir attaches a directory under parent.
func (fs *FS) RestoreDir(parent Handle, name string, meta *Metadata) (Handle, error) {
	return fs.restore(parent, name, node{kind: KindDir, entries: map[string]Handle{}}, meta)
}

// RestoreFile attaches a file under parent.
func (fs *FS) RestoreFile(parent Handle, name, data string, meta *Metadata) (Handle, error) {
	if err := validateData(data); err != nil {
		return NoHandle, err
	}
	return fs.restore(parent, name, node{kind: KindFile, data: data}, meta)
}

// RestoreSymlink attaches a symlink under parent.
func (fs *FS) RestoreSymlink(parent Handle, name, target string, meta *Metadata) (Handle, error) {
	if target == "" {
		return NoHandle, kerrors.ErrEmptyTarget
	}
	return fs.restore(parent, name, node{kind: KindSymlink, data: target}, meta)
}

func (fs *FS) restore(parent Handle, name string, n node, meta *Metadata) (Handle, error) {
	if err := ValidateName(name); err != nil {
		return NoHandle, err
	}
	if !fs.Valid(parent) || fs.get(parent).kind != KindDir {
		return NoHandle, fmt.Errorf("%w: restore parent %d", kerrors.ErrNotDir, parent)
	}
	if _, ok := fs.get(parent).entries[name]; ok {
		return NoHandle, fmt.Errorf("%w: %s", kerrors.ErrExists, name)
	}
	setMeta(&n, meta)
	h := fs.alloc(n)
	fs.attach(parent, name, h)
	return h, nil
}

func setMeta(n *node, meta *Metadata) {
	if meta != nil {
		n.meta = *meta
		n.hasMeta = true
	}
}
