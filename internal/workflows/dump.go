package workflows

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/PolarWolf314/cask/internal/codec"
	"github.com/PolarWolf314/cask/internal/tree"
)

// DumpFormat selects the output of Dump.
type DumpFormat int

const (
	// DumpJSON is the store document exactly as it is encrypted.
	DumpJSON DumpFormat = iota

	// DumpYAML is a readable view of the tree: directories are mappings,
	// files are strings and symlinks are !symlink scalars. Metadata is
	// left out.
	DumpYAML
)

// Dump returns the decrypted store.
func Dump(ctx context.Context, s *Session, format DumpFormat) ([]byte, error) {
	var out []byte
	var err error
	switch format {
	case DumpYAML:
		out, err = yaml.Marshal(yamlNode(s.FS, s.FS.Root()))
	default:
		out, err = codec.Encode(s.FS)
	}
	s.journal("dump", err)
	if err != nil {
		return nil, fmt.Errorf("dumping store: %w", err)
	}
	return out, nil
}

func yamlNode(fsys *tree.FS, h tree.Handle) *yaml.Node {
	switch fsys.Kind(h) {
	case tree.KindDir:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, name := range fsys.Entries(h) {
			child, _ := fsys.Child(h, name)
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
				yamlNode(fsys, child))
		}
		return n
	case tree.KindSymlink:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!symlink", Value: fsys.Target(h)}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fsys.Data(h)}
	}
}
