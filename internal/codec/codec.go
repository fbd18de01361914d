package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/PolarWolf314/cask/internal/tree"
)

// FormatVersion is the only document revision this package reads and writes.
const FormatVersion = 4

const (
	sectionData     = "data"
	sectionMetadata = "metadata"

	symlinkTag = "symlink"
)

// metaJSON is the wire form of tree.Metadata. Field order matches sorted
// key order so encoding is canonical.
type metaJSON struct {
	MHost   string  `json:"mhost"`
	MTime   float64 `json:"mtime"`
	MTZName string  `json:"mtzname"`
}

type topMetaJSON struct {
	FormatVersion int     `json:"format_version"`
	MHost         string  `json:"mhost"`
	MTime         float64 `json:"mtime"`
	MTZName       string  `json:"mtzname"`
}

func toMetaJSON(m tree.Metadata) metaJSON {
	return metaJSON{MHost: m.Host, MTime: m.MTime, MTZName: m.TZName}
}

// Encode serializes fs as a tab-indented JSON document with sorted keys and
// a single trailing newline. Unknown sections are emitted byte for byte.
func Encode(fs *tree.FS) ([]byte, error) {
	sections := map[string][]byte{}

	root, err := marshal(encodeNode(fs, fs.Root()))
	if err != nil {
		return nil, fmt.Errorf("encoding tree: %w", err)
	}
	sections[sectionData] = root

	meta, err := marshal(topMetaJSON{
		FormatVersion: FormatVersion,
		MHost:         fs.StoreMeta.Host,
		MTime:         fs.StoreMeta.MTime,
		MTZName:       fs.StoreMeta.TZName,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}
	sections[sectionMetadata] = meta

	for name, raw := range fs.Extra {
		if name == sectionData || name == sectionMetadata {
			continue
		}
		sections[name] = raw
	}

	keys := make([]string, 0, len(sections))
	for k := range sections {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, k := range keys {
		key, err := marshal(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte('\t')
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(sections[k])
		if i < len(keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// marshal encodes v indented for a position one level below the top-level
// object, without HTML escaping.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("\t", "\t")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func encodeNode(fs *tree.FS, h tree.Handle) any {
	meta, hasMeta := fs.Meta(h)
	switch fs.Kind(h) {
	case tree.KindDir:
		entries := make(map[string]any, fs.Len(h))
		for _, name := range fs.Entries(h) {
			child, _ := fs.Child(h, name)
			entries[name] = encodeNode(fs, child)
		}
		if !hasMeta {
			return entries
		}
		return []any{entries, toMetaJSON(meta)}
	case tree.KindSymlink:
		return []any{symlinkTag, fs.Target(h), toMetaJSON(meta)}
	default:
		if !hasMeta {
			return fs.Data(h)
		}
		return []any{fs.Data(h), toMetaJSON(meta)}
	}
}
