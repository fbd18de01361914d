package workflows

import "context"

// MoveOptions configures the move workflow.
type MoveOptions struct {
	Src string
	Dst string

	// Overwrite replaces an existing file, symlink or empty directory at
	// the destination.
	Overwrite bool
}

// MoveResult contains the outcome of a move operation.
type MoveResult struct {
	// From and To are the absolute paths before and after the move. When
	// Dst names an existing directory, To is inside it.
	From string
	To   string
}

// Move renames or relocates a node. A symlink source is moved itself, not
// its target.
//
// Returns ErrMoveIntoSelf if Dst is inside Src.
// Returns ErrExists if the destination is taken and Overwrite is not set.
func Move(ctx context.Context, s *Session, opts MoveOptions) (*MoveResult, error) {
	src, err := s.FS.Lookup(s.Cwd, opts.Src)
	if err != nil {
		return nil, err
	}
	from := s.FS.Path(src)

	h, err := s.FS.Move(s.Cwd, opts.Src, opts.Dst, opts.Overwrite)
	if err != nil {
		return nil, err
	}
	s.fixCwd()

	result := &MoveResult{From: from, To: s.FS.Path(h)}
	if err := s.Commit(ctx, "mv", result.From, result.To); err != nil {
		return nil, err
	}
	return result, nil
}
