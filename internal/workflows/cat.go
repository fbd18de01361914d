package workflows

import (
	"context"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
	"github.com/PolarWolf314/cask/internal/tree"
)

// Value is the data of one file.
type Value struct {
	Path string
	Data string
}

// Cat reads files, following symlinks. Reads are journaled by path only.
//
// Returns ErrNotFile for a path naming a directory.
func Cat(ctx context.Context, s *Session, paths []string) ([]Value, error) {
	var values []Value
	var errs []error
	for _, p := range paths {
		h, err := s.FS.Stat(s.Cwd, p)
		if err == nil && s.FS.Kind(h) != tree.KindFile {
			err = fmt.Errorf("%w: %s is a %s", kerrors.ErrNotFile, p, s.FS.Kind(h))
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		values = append(values, Value{Path: p, Data: s.FS.Data(h)})
	}
	err := errors.Join(errs...)
	s.journal("cat", err, paths...)
	return values, err
}
