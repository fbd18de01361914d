package workflows

import (
	"context"
	"errors"

	"github.com/PolarWolf314/cask/internal/tree"
)

// ListOptions configures the list workflow.
type ListOptions struct {
	// Paths to list; empty means the working directory.
	Paths []string

	// Self lists the named entries themselves instead of directory contents.
	Self bool
}

// Listing is the result for one requested path.
type Listing struct {
	Path string

	// Dir is true when Entries are the contents of a directory.
	Dir     bool
	Entries []tree.Entry
}

// ListResult contains the outcome of a list operation.
type ListResult struct {
	Listings []Listing
}

// List lists each path. A path that cannot be listed does not stop the
// others; the failures are joined into the returned error alongside a
// result for the rest.
func List(ctx context.Context, s *Session, opts ListOptions) (*ListResult, error) {
	paths := opts.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}

	result := &ListResult{}
	var errs []error
	for _, p := range paths {
		entries, err := s.FS.List(s.Cwd, p, opts.Self)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		dir := false
		if !opts.Self {
			if h, err := s.FS.Stat(s.Cwd, p); err == nil {
				dir = s.FS.Kind(h) == tree.KindDir
			}
		}
		result.Listings = append(result.Listings, Listing{Path: p, Dir: dir, Entries: entries})
	}
	return result, errors.Join(errs...)
}
