package workflows

import (
	"fmt"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
	"github.com/PolarWolf314/cask/internal/tree"
)

// Chdir changes the session's working directory. An empty path means the
// root.
func (s *Session) Chdir(path string) error {
	if path == "" {
		s.Cwd = s.FS.Root()
		return nil
	}
	h, err := s.FS.Stat(s.Cwd, path)
	if err != nil {
		return err
	}
	if s.FS.Kind(h) != tree.KindDir {
		return fmt.Errorf("%w: %s", kerrors.ErrNotDir, path)
	}
	s.Cwd = h
	return nil
}

// Getwd returns the absolute path of the working directory.
func (s *Session) Getwd() string {
	return s.FS.Path(s.Cwd)
}

// fixCwd moves the working directory to the root once it has been removed.
// It must run right after a removal, before a freed handle can be reused.
func (s *Session) fixCwd() {
	if !s.FS.Valid(s.Cwd) || s.FS.Kind(s.Cwd) != tree.KindDir {
		s.Cwd = s.FS.Root()
	}
}
