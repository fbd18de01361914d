package tree

import (
	"iter"
	"strings"
)

// Entry describes one listed node.
type Entry struct {
	Name    string
	Handle  Handle
	Kind    Kind
	Target  string
	Meta    Metadata
	HasMeta bool
}

// String renders the entry's short form: directories get a trailing "/",
// symlinks a trailing "@".
func (e Entry) String() string {
	switch e.Kind {
	case KindDir:
		return e.Name + "/"
	case KindSymlink:
		return e.Name + "@"
	default:
		return e.Name
	}
}

func (fs *FS) entry(h Handle, name string) Entry {
	n := fs.get(h)
	e := Entry{
		Name:    name,
		Handle:  h,
		Kind:    n.kind,
		Meta:    n.meta,
		HasMeta: n.hasMeta,
	}
	if n.kind == KindSymlink {
		e.Target = n.data
	}
	return e
}

// List returns the entries of the directory at path, sorted by name. If path
// names anything other than a directory, or self is set, the result is the
// node itself under the name it was asked for. With self, a trailing symlink
// is not followed.
func (fs *FS) List(cwd Handle, path string, self bool) ([]Entry, error) {
	if self {
		h, err := fs.Lookup(cwd, trimSlash(path))
		if err != nil {
			return nil, err
		}
		return []Entry{fs.entry(h, path)}, nil
	}

	h, err := fs.Stat(cwd, path)
	if err != nil {
		return nil, err
	}
	n := fs.get(h)
	if n.kind != KindDir {
		return []Entry{fs.entry(h, path)}, nil
	}

	names := fs.Entries(h)
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, fs.entry(n.entries[name], name))
	}
	return entries, nil
}

// Walk returns the paths below path in pre-order, each prefixed by path as
// given ("." yields bare relative names). Directory paths end in "/".
// Symlinks are yielded but never descended, so the sequence is finite. With
// filesOnly only regular files are yielded, not directories or symlinks. It re-walks the tree each time it is ranged over;
// the tree must not be mutated while a walk is in progress.
func (fs *FS) Walk(cwd Handle, path string, filesOnly bool) (iter.Seq[string], error) {
	start, err := fs.Stat(cwd, path)
	if err != nil {
		return nil, err
	}
	prefix := path
	if prefix == "." || prefix == "./" {
		prefix = ""
	}
	return func(yield func(string) bool) {
		fs.walk(start, prefix, filesOnly, yield)
	}, nil
}

func (fs *FS) walk(h Handle, path string, filesOnly bool, yield func(string) bool) bool {
	n := fs.get(h)
	switch {
	case n.kind == KindSymlink && filesOnly:
		return true
	case n.kind != KindDir:
		return yield(path)
	}
	if path != "" {
		path = strings.TrimRight(path, "/") + "/"
		if !filesOnly && !yield(path) {
			return false
		}
	}
	for _, name := range fs.Entries(h) {
		child, ok := n.entries[name]
		if !ok {
			continue
		}
		if !fs.walk(child, path+name, filesOnly, yield) {
			return false
		}
	}
	return true
}
