package workflows

import "context"

// Link creates a symlink at path pointing to target. The target is stored
// as given and need not exist.
//
// Returns ErrExists if the name is taken; existing entries are never
// replaced.
func Link(ctx context.Context, s *Session, target, path string) error {
	h, err := s.FS.Symlink(s.Cwd, path, target)
	if err != nil {
		return err
	}
	return s.Commit(ctx, "ln", s.FS.Path(h))
}
