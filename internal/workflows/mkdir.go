package workflows

import (
	"context"
	"errors"
)

// Mkdir creates directories. Each path is attempted even if an earlier one
// failed, and whatever was created is saved.
func Mkdir(ctx context.Context, s *Session, paths []string) error {
	var errs []error
	for _, p := range paths {
		if _, err := s.FS.Mkdir(s.Cwd, p); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.Commit(ctx, "mkdir", paths...); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
