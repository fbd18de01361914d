package workflows

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
)

// FindOptions configures the find workflow.
type FindOptions struct {
	// Path is where the walk starts; empty means the working directory.
	Path string

	// FilesOnly keeps regular files only, leaving out directories and symlinks.
	FilesOnly bool

	// Name is a glob. Without a "/" it is matched against each entry's
	// name, otherwise against the whole path. "**" crosses directories.
	Name string
}

// Find lists the paths below opts.Path in pre-order. Symlinks are listed
// but not descended into.
func Find(ctx context.Context, s *Session, opts FindOptions) ([]string, error) {
	start := opts.Path
	if start == "" {
		start = "."
	}
	if opts.Name != "" && !doublestar.ValidatePattern(opts.Name) {
		return nil, fmt.Errorf("%w: bad pattern %q", kerrors.ErrUsage, opts.Name)
	}

	seq, err := s.FS.Walk(s.Cwd, start, opts.FilesOnly)
	if err != nil {
		return nil, err
	}

	var paths []string
	for p := range seq {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opts.Name == "" || match(opts.Name, p) {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

func match(pattern, p string) bool {
	p = strings.TrimSuffix(p, "/")
	if !strings.Contains(pattern, "/") {
		p = path.Base(p)
	}
	// Patterns were validated up front.
	ok, _ := doublestar.Match(pattern, p)
	return ok
}
