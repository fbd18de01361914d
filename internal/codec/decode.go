package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
	"github.com/PolarWolf314/cask/internal/tree"
)

// shape says whether a node was written with or without metadata.
type shape int

const (
	shapeBare shape = iota
	shapeWithMeta
)

// encodedNode is one decoded node variant. entries holds a directory's raw
// children, decoded lazily as the tree is rebuilt.
type encodedNode struct {
	kind    tree.Kind
	shape   shape
	data    string
	entries map[string]json.RawMessage
	meta    tree.Metadata
}

func (n encodedNode) metadata() *tree.Metadata {
	if n.shape == shapeBare {
		return nil
	}
	m := n.meta
	return &m
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", kerrors.ErrCorruptStore, fmt.Sprintf(format, args...))
}

// Decode parses a document into a tree. Decoding never stamps: every node
// keeps exactly the metadata it was stored with, and nodes stored without
// metadata stay without it until first modified. A nil stamper selects
// tree.Now for later mutations.
func Decode(data []byte, stamp tree.Stamper) (*tree.FS, error) {
	top, err := sections(data)
	if err != nil {
		return nil, err
	}

	rawMeta, ok := top[sectionMetadata]
	if !ok {
		return nil, corrupt("missing %q section", sectionMetadata)
	}
	version, err := versionOf(rawMeta)
	if err != nil {
		return nil, err
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: store is format version %d, this build reads version %d (run `cask migrate`)",
			kerrors.ErrFormatVersion, version, FormatVersion)
	}
	meta, err := decodeTopMeta(rawMeta)
	if err != nil {
		return nil, err
	}

	rawRoot, ok := top[sectionData]
	if !ok {
		return nil, corrupt("missing %q section", sectionData)
	}
	root, err := decodeNode(rawRoot)
	if err != nil {
		return nil, fmt.Errorf("/: %w", err)
	}
	if root.kind != tree.KindDir {
		return nil, corrupt("root is a %s, not a directory", root.kind)
	}

	fs := tree.NewForRestore(root.metadata(), stamp)
	if err := restoreEntries(fs, fs.Root(), "/", root.entries); err != nil {
		return nil, err
	}
	fs.StoreMeta = meta

	for name, raw := range top {
		if name == sectionData || name == sectionMetadata {
			continue
		}
		fs.Extra[name] = bytes.Clone(raw)
	}
	return fs, nil
}

// PeekVersion returns a document's format version without validating the
// rest of it. Documents without a version are reported as version 0.
func PeekVersion(data []byte) (int, error) {
	top, err := sections(data)
	if err != nil {
		return 0, err
	}
	rawMeta, ok := top[sectionMetadata]
	if !ok {
		return 0, corrupt("missing %q section", sectionMetadata)
	}
	return versionOf(rawMeta)
}

func sections(data []byte) (map[string]json.RawMessage, error) {
	if firstByte(data) != '{' {
		return nil, corrupt("document is not a JSON object")
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, corrupt("invalid JSON: %v", err)
	}
	return top, nil
}

func versionOf(rawMeta json.RawMessage) (int, error) {
	if firstByte(rawMeta) != '{' {
		return 0, corrupt("metadata section is not an object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rawMeta, &fields); err != nil {
		return 0, corrupt("metadata section: %v", err)
	}
	raw, ok := fields["format_version"]
	if !ok {
		return 0, nil
	}
	var v int
	if !isNumber(raw) {
		return 0, corrupt("format_version is not an integer")
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, corrupt("format_version is not an integer")
	}
	return v, nil
}

func decodeTopMeta(raw json.RawMessage) (tree.Metadata, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return tree.Metadata{}, corrupt("metadata section: %v", err)
	}
	delete(fields, "format_version")
	return metaFromFields(fields)
}

func decodeMeta(raw json.RawMessage) (tree.Metadata, error) {
	if firstByte(raw) != '{' {
		return tree.Metadata{}, corrupt("metadata is not an object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return tree.Metadata{}, corrupt("metadata: %v", err)
	}
	return metaFromFields(fields)
}

func metaFromFields(fields map[string]json.RawMessage) (tree.Metadata, error) {
	var m tree.Metadata
	for name := range fields {
		switch name {
		case "mhost", "mtime", "mtzname":
		default:
			return m, corrupt("unexpected metadata field %q", name)
		}
	}

	host, ok := fields["mhost"]
	if !ok || !isString(host) {
		return m, corrupt("metadata field mhost missing or not a string")
	}
	mtime, ok := fields["mtime"]
	if !ok || !isNumber(mtime) {
		return m, corrupt("metadata field mtime missing or not a number")
	}
	tz, ok := fields["mtzname"]
	if !ok || !isString(tz) {
		return m, corrupt("metadata field mtzname missing or not a string")
	}

	if err := json.Unmarshal(host, &m.Host); err != nil {
		return m, corrupt("mhost: %v", err)
	}
	if err := json.Unmarshal(mtime, &m.MTime); err != nil {
		return m, corrupt("mtime: %v", err)
	}
	if err := json.Unmarshal(tz, &m.TZName); err != nil {
		return m, corrupt("mtzname: %v", err)
	}
	return m, nil
}

// decodeNode picks the node variant from the JSON value's type and arity.
func decodeNode(raw json.RawMessage) (encodedNode, error) {
	switch firstByte(raw) {
	case '"':
		var data string
		if err := json.Unmarshal(raw, &data); err != nil {
			return encodedNode{}, corrupt("file: %v", err)
		}
		return encodedNode{kind: tree.KindFile, shape: shapeBare, data: data}, nil

	case '{':
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return encodedNode{}, corrupt("directory: %v", err)
		}
		return encodedNode{kind: tree.KindDir, shape: shapeBare, entries: entries}, nil

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return encodedNode{}, corrupt("node: %v", err)
		}
		switch len(items) {
		case 2:
			return decodeWithMeta(items[0], items[1])
		case 3:
			return decodeSymlink(items)
		}
		return encodedNode{}, corrupt("node array has %d elements", len(items))
	}
	return encodedNode{}, corrupt("node is not a string, object or array")
}

func decodeWithMeta(value, rawMeta json.RawMessage) (encodedNode, error) {
	switch firstByte(value) {
	case '"', '{':
	default:
		return encodedNode{}, corrupt("node value is neither file data nor a directory")
	}
	n, err := decodeNode(value)
	if err != nil {
		return encodedNode{}, err
	}
	meta, err := decodeMeta(rawMeta)
	if err != nil {
		return encodedNode{}, err
	}
	n.shape = shapeWithMeta
	n.meta = meta
	return n, nil
}

func decodeSymlink(items []json.RawMessage) (encodedNode, error) {
	var tag, target string
	if !isString(items[0]) || json.Unmarshal(items[0], &tag) != nil || tag != symlinkTag {
		return encodedNode{}, corrupt("three-element node is not a symlink")
	}
	if !isString(items[1]) || json.Unmarshal(items[1], &target) != nil {
		return encodedNode{}, corrupt("symlink target is not a string")
	}
	meta, err := decodeMeta(items[2])
	if err != nil {
		return encodedNode{}, err
	}
	return encodedNode{kind: tree.KindSymlink, shape: shapeWithMeta, data: target, meta: meta}, nil
}

func restoreEntries(fs *tree.FS, dir tree.Handle, dirPath string, entries map[string]json.RawMessage) error {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		path := dirPath + name
		n, err := decodeNode(entries[name])
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		var h tree.Handle
		switch n.kind {
		case tree.KindDir:
			h, err = fs.RestoreDir(dir, name, n.metadata())
		case tree.KindFile:
			h, err = fs.RestoreFile(dir, name, n.data, n.metadata())
		case tree.KindSymlink:
			h, err = fs.RestoreSymlink(dir, name, n.data, n.metadata())
		}
		if err != nil {
			return corrupt("%s: %v", path, err)
		}

		if n.kind == tree.KindDir {
			if err := restoreEntries(fs, h, path+"/", n.entries); err != nil {
				return err
			}
		}
	}
	return nil
}

func firstByte(raw []byte) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func isString(raw json.RawMessage) bool { return firstByte(raw) == '"' }

func isNumber(raw json.RawMessage) bool {
	b := firstByte(raw)
	return b == '-' || (b >= '0' && b <= '9')
}
