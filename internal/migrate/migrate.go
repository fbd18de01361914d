// Package migrate upgrades decrypted store documents written by older
// releases to the current format version.
//
// Version history:
//
//	0, 1  no format_version; nodes may omit metadata
//	2     every node carries metadata; format_version recorded
//	3     every node is a map of META plus "type" ("d", "f" or "l") and
//	      one content key ("entries", "data" or "target")
//	4     back to array shapes: [data|entries, META] for files and
//	      directories, ["symlink", target, META] for symlinks
//
// Documents are handled generically until the last step, so sections this
// package does not know about pass through unchanged.
package migrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/PolarWolf314/cask/internal/codec"
	kerrors "github.com/PolarWolf314/cask/internal/errors"
)

// MinTarget is the oldest version a document can be upgraded to.
const MinTarget = 2

// Placeholder metadata for nodes that predate per-node metadata.
const (
	UnknownHost = "(unknown)"
	UnknownTZ   = "GMT"
)

// Step reports the outcome of one upgrade step.
type Step struct {
	Version int
	Updated bool
}

func (s Step) String() string {
	if s.Updated {
		return fmt.Sprintf("Updated to version %d", s.Version)
	}
	return fmt.Sprintf("No update necessary for version %d", s.Version)
}

type upgrader func(doc *document) (bool, error)

// steps is indexed by the version each function produces. Version 1 is a
// superset of version 0 and needs no conversion.
var steps = []upgrader{
	nil,
	nil,
	ensureV2,
	v2ToV3,
	v3ToV4,
}

// Upgrade brings doc up to version to and returns the rewritten document
// together with one Step per version considered. A document already at or
// past a step is left alone by it.
func Upgrade(doc []byte, to int) ([]byte, []Step, error) {
	if to < MinTarget || to > codec.FormatVersion {
		return nil, nil, fmt.Errorf("%w: invalid target version %d (want %d to %d)",
			kerrors.ErrUsage, to, MinTarget, codec.FormatVersion)
	}

	d, err := parse(doc)
	if err != nil {
		return nil, nil, err
	}
	if d.version > codec.FormatVersion {
		return nil, nil, fmt.Errorf("%w: document is version %d, newer than this build supports (%d)",
			kerrors.ErrFormatVersion, d.version, codec.FormatVersion)
	}

	var report []Step
	for v := 0; v <= to; v++ {
		fn := steps[v]
		if fn == nil {
			continue
		}
		updated, err := fn(d)
		if err != nil {
			return nil, report, fmt.Errorf("upgrading to version %d: %w", v, err)
		}
		report = append(report, Step{Version: v, Updated: updated})
	}

	out, err := d.encode()
	if err != nil {
		return nil, report, err
	}
	if to == codec.FormatVersion {
		// Round trip through the codec to validate the result and emit the
		// canonical layout.
		fs, err := codec.Decode(out, nil)
		if err != nil {
			return nil, report, err
		}
		if out, err = codec.Encode(fs); err != nil {
			return nil, report, err
		}
	}
	return out, report, nil
}

// document is a store document decoded only as far as migration needs.
// Numbers are kept as json.Number so nothing is rounded on the way through.
type document struct {
	sections map[string]json.RawMessage
	data     any
	meta     map[string]any
	version  int
}

func parse(raw []byte) (*document, error) {
	d := &document{}
	if err := json.Unmarshal(raw, &d.sections); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrCorruptStore, err)
	}
	rawData, ok := d.sections["data"]
	if !ok {
		return nil, fmt.Errorf("%w: missing \"data\" section", kerrors.ErrCorruptStore)
	}
	rawMeta, ok := d.sections["metadata"]
	if !ok {
		return nil, fmt.Errorf("%w: missing \"metadata\" section", kerrors.ErrCorruptStore)
	}
	if err := unmarshal(rawData, &d.data); err != nil {
		return nil, err
	}
	if err := unmarshal(rawMeta, &d.meta); err != nil {
		return nil, err
	}
	if d.meta == nil {
		return nil, fmt.Errorf("%w: metadata section is not an object", kerrors.ErrCorruptStore)
	}

	version, err := codec.PeekVersion(raw)
	if err != nil {
		return nil, err
	}
	d.version = version
	return d, nil
}

func unmarshal(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrCorruptStore, err)
	}
	return nil
}

func (d *document) setVersion(v int) {
	d.version = v
	d.meta["format_version"] = v
}

// encode writes the document back, tab indented with sorted keys.
func (d *document) encode() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.sections))
	for name, raw := range d.sections {
		out[name] = raw
	}
	var err error
	if out["data"], err = json.Marshal(d.data); err != nil {
		return nil, fmt.Errorf("encoding data: %w", err)
	}
	if out["metadata"], err = json.Marshal(d.meta); err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "\t")
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func placeholder() map[string]any {
	return map[string]any{"mhost": UnknownHost, "mtime": json.Number("0.0"), "mtzname": UnknownTZ}
}

func ensureV2(d *document) (bool, error) {
	if d.version >= 2 {
		return false, nil
	}
	data, err := addMetadata(d.data, "/")
	if err != nil {
		return false, err
	}
	d.data = data

	// Old top-level metadata used looser keys; keep what matches and fill
	// in the rest.
	top := placeholder()
	for _, k := range []string{"mhost", "mtime", "mtzname"} {
		if v, ok := d.meta[k]; ok {
			top[k] = v
		}
	}
	d.meta = top
	d.setVersion(2)
	return true, nil
}

func addMetadata(item any, path string) (any, error) {
	pair, ok := item.([]any)
	if !ok {
		pair = []any{item, placeholder()}
	}
	if len(pair) != 2 {
		return nil, fmt.Errorf("%w: %s: node array has %d elements", kerrors.ErrCorruptStore, path, len(pair))
	}
	if err := checkMeta(pair[1], path); err != nil {
		return nil, err
	}

	switch v := pair[0].(type) {
	case string:
	case map[string]any:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			child, err := addMetadata(v[name], path+name+"/")
			if err != nil {
				return nil, err
			}
			v[name] = child
		}
	default:
		return nil, fmt.Errorf("%w: %s: node is neither file data nor a directory", kerrors.ErrCorruptStore, path)
	}
	return pair, nil
}

func checkMeta(v any, path string) error {
	m, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: %s: metadata is not an object", kerrors.ErrCorruptStore, path)
	}
	if len(m) != 3 {
		return fmt.Errorf("%w: %s: metadata has %d fields", kerrors.ErrCorruptStore, path, len(m))
	}
	for _, k := range []string{"mhost", "mtime", "mtzname"} {
		if _, ok := m[k]; !ok {
			return fmt.Errorf("%w: %s: metadata lacks %s", kerrors.ErrCorruptStore, path, k)
		}
	}
	return nil
}

// contentKeys maps a version 3 node type to the key holding its content.
var contentKeys = map[string]string{"d": "entries", "f": "data", "l": "target"}

func v2ToV3(d *document) (bool, error) {
	if d.version >= 3 {
		return false, nil
	}
	data, err := typedNode(d.data, "/")
	if err != nil {
		return false, err
	}
	d.data = data
	d.setVersion(3)
	return true, nil
}

func typedNode(item any, path string) (any, error) {
	pair, ok := item.([]any)
	if !ok || len(pair) != 2 {
		return nil, fmt.Errorf("%w: %s: expected a [content, metadata] pair", kerrors.ErrCorruptStore, path)
	}
	if err := checkMeta(pair[1], path); err != nil {
		return nil, err
	}
	node := pair[1].(map[string]any)

	switch v := pair[0].(type) {
	case string:
		node["type"] = "f"
		node["data"] = v
	case map[string]any:
		entries := make(map[string]any, len(v))
		for name, child := range v {
			conv, err := typedNode(child, path+name+"/")
			if err != nil {
				return nil, err
			}
			entries[name] = conv
		}
		node["type"] = "d"
		node["entries"] = entries
	default:
		return nil, fmt.Errorf("%w: %s: node is neither file data nor a directory", kerrors.ErrCorruptStore, path)
	}
	return node, nil
}

func v3ToV4(d *document) (bool, error) {
	if d.version >= 4 {
		return false, nil
	}
	data, err := arrayNode(d.data, "/")
	if err != nil {
		return false, err
	}
	d.data = data
	d.setVersion(4)
	return true, nil
}

func arrayNode(item any, path string) (any, error) {
	node, ok := item.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: node is not an object", kerrors.ErrCorruptStore, path)
	}
	typ, _ := node["type"].(string)
	key, ok := contentKeys[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %s: unknown node type %v", kerrors.ErrCorruptStore, path, node["type"])
	}
	content, ok := node[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s: %q node lacks %q", kerrors.ErrCorruptStore, path, typ, key)
	}

	meta := make(map[string]any, 3)
	for k, v := range node {
		if k != "type" && k != key {
			meta[k] = v
		}
	}
	if err := checkMeta(meta, path); err != nil {
		return nil, err
	}

	switch typ {
	case "f", "l":
		s, ok := content.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s: %s is not a string", kerrors.ErrCorruptStore, path, key)
		}
		if typ == "l" {
			return []any{"symlink", s, meta}, nil
		}
		return []any{s, meta}, nil
	default:
		entries, ok := content.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s: entries is not an object", kerrors.ErrCorruptStore, path)
		}
		out := make(map[string]any, len(entries))
		for name, child := range entries {
			conv, err := arrayNode(child, path+name+"/")
			if err != nil {
				return nil, err
			}
			out[name] = conv
		}
		return []any{out, meta}, nil
	}
}

// Current returns the newest version Upgrade can produce.
func Current() int { return codec.FormatVersion }
