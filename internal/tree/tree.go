package tree

import (
	"fmt"
	"slices"
	"strings"
)

// Handle addresses a node in an FS arena. Handles stay valid until the node
// they name is removed.
type Handle int32

// NoHandle is the zero value callers can use for "no node".
const NoHandle Handle = -1

// Kind is the type of a node.
type Kind uint8

const (
	KindDir Kind = iota + 1
	KindFile
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "directory"
	case KindFile:
		return "file"
	case KindSymlink:
		return "symlink"
	default:
		return "invalid"
	}
}

type node struct {
	kind    Kind
	live    bool
	name    string
	parent  Handle
	meta    Metadata
	hasMeta bool

	// data is the file contents for files and the target path for symlinks.
	data    string
	entries map[string]Handle
}

// FS is a complete store tree plus the top-level document state that travels
// with it.
type FS struct {
	nodes []node
	free  []Handle
	root  Handle

	// StoreMeta is the store-wide metadata, stamped on every save.
	StoreMeta Metadata

	// Extra holds top-level document sections this version does not
	// interpret, kept as raw bytes so they can be written back unchanged.
	Extra map[string][]byte

	stamp Stamper
	dirty bool
}

// New returns an initialized store containing only an empty root directory.
// A nil stamper selects Now.
func New(stamp Stamper) *FS {
	if stamp == nil {
		stamp = Now
	}
	fs := &FS{stamp: stamp, Extra: map[string][]byte{}}
	fs.root = fs.alloc(node{kind: KindDir, entries: map[string]Handle{}})
	fs.nodes[fs.root].parent = fs.root
	fs.touch(fs.root)
	fs.StoreMeta = stamp()
	return fs
}

// SetStamper replaces the metadata source used by mutations.
func (fs *FS) SetStamper(stamp Stamper) {
	if stamp == nil {
		stamp = Now
	}
	fs.stamp = stamp
}

// Root returns the handle of the root directory.
func (fs *FS) Root() Handle { return fs.root }

// Dirty reports whether the tree changed since it was created, restored or
// last marked clean.
func (fs *FS) Dirty() bool { return fs.dirty }

// MarkClean records that the current state has been persisted.
func (fs *FS) MarkClean() { fs.dirty = false }

// Touch stamps the store-wide metadata.
func (fs *FS) Touch() { fs.StoreMeta = fs.stamp() }

// Valid reports whether h names a live node.
func (fs *FS) Valid(h Handle) bool {
	return h >= 0 && int(h) < len(fs.nodes) && fs.nodes[h].live
}

func (fs *FS) get(h Handle) *node {
	if !fs.Valid(h) {
		panic(fmt.Sprintf("tree: invalid handle %d", h))
	}
	return &fs.nodes[h]
}

// Kind returns the node's type.
func (fs *FS) Kind(h Handle) Kind { return fs.get(h).kind }

// Name returns the node's entry name in its parent; the root's name is empty.
func (fs *FS) Name(h Handle) string { return fs.get(h).name }

// Parent returns the directory containing h. The root is its own parent.
func (fs *FS) Parent(h Handle) Handle { return fs.get(h).parent }

// Data returns a file's contents.
func (fs *FS) Data(h Handle) string {
	n := fs.get(h)
	if n.kind != KindFile {
		return ""
	}
	return n.data
}

// Target returns a symlink's target path.
func (fs *FS) Target(h Handle) string {
	n := fs.get(h)
	if n.kind != KindSymlink {
		return ""
	}
	return n.data
}

// Meta returns the node's metadata and whether it has any. Nodes restored
// from a pre-metadata document have none until their first mutation.
func (fs *FS) Meta(h Handle) (Metadata, bool) {
	n := fs.get(h)
	return n.meta, n.hasMeta
}

// Entries returns the sorted names of a directory's real entries.
func (fs *FS) Entries(h Handle) []string {
	n := fs.get(h)
	names := make([]string, 0, len(n.entries))
	for name := range n.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of real entries in a directory.
func (fs *FS) Len(h Handle) int { return len(fs.get(h).entries) }

// Child looks up one entry of a directory, including the synthetic "." and
// "..". Symlinks are not followed.
func (fs *FS) Child(dir Handle, name string) (Handle, bool) {
	n := fs.get(dir)
	if n.kind != KindDir {
		return NoHandle, false
	}
	switch name {
	case ".":
		return dir, true
	case "..":
		return n.parent, true
	}
	h, ok := n.entries[name]
	return h, ok
}

// Path returns the absolute path of h.
func (fs *FS) Path(h Handle) string {
	if h == fs.root {
		return "/"
	}
	var parts []string
	for h != fs.root {
		n := fs.get(h)
		parts = append(parts, n.name)
		h = n.parent
	}
	slices.Reverse(parts)
	return "/" + strings.Join(parts, "/")
}

func (fs *FS) alloc(n node) Handle {
	n.live = true
	if k := len(fs.free); k > 0 {
		h := fs.free[k-1]
		fs.free = fs.free[:k-1]
		fs.nodes[h] = n
		return h
	}
	fs.nodes = append(fs.nodes, n)
	return Handle(len(fs.nodes) - 1)
}

// release frees h and everything below it, children first.
func (fs *FS) release(h Handle) {
	n := fs.get(h)
	for _, child := range n.entries {
		fs.release(child)
	}
	fs.nodes[h] = node{}
	fs.free = append(fs.free, h)
}

func (fs *FS) attach(dir Handle, name string, h Handle) {
	fs.get(dir).entries[name] = h
	n := fs.get(h)
	n.name = name
	n.parent = dir
}

func (fs *FS) detach(h Handle) {
	n := fs.get(h)
	delete(fs.get(n.parent).entries, n.name)
}

// touch re-stamps h and marks the tree dirty.
func (fs *FS) touch(h Handle) {
	n := fs.get(h)
	n.meta = fs.stamp()
	n.hasMeta = true
	fs.dirty = true
}

// isAncestor reports whether a is h or one of h's ancestors.
func (fs *FS) isAncestor(a, h Handle) bool {
	for {
		if h == a {
			return true
		}
		if h == fs.root {
			return false
		}
		h = fs.get(h).parent
	}
}
