package workflows

import (
	"context"
	"errors"
)

// RemoveOptions configures the remove workflow.
type RemoveOptions struct {
	Paths []string

	// Recursive removes directories together with their contents.
	Recursive bool
}

// Remove deletes each path independently. Removals that succeed are saved
// even when others fail; the failures are returned joined.
func Remove(ctx context.Context, s *Session, opts RemoveOptions) error {
	err := s.FS.Remove(s.Cwd, opts.Paths, opts.Recursive)
	s.fixCwd()
	return errors.Join(err, s.Commit(ctx, "rm", opts.Paths...))
}
