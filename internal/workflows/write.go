package workflows

import (
	"context"

	"github.com/PolarWolf314/cask/internal/pwgen"
)

// WriteOptions configures the create and edit workflows.
type WriteOptions struct {
	Path string

	// Data is the new file contents. Ignored when Generate is set.
	Data string

	// Generate is a password generator spec; the generated password becomes
	// the file contents.
	Generate string
}

// WriteResult contains the outcome of a create or edit operation.
type WriteResult struct {
	// Path is the absolute path of the written file.
	Path string

	// Generated is true when the contents came from the generator.
	Generated bool
}

func (o WriteOptions) data() (string, bool, error) {
	if o.Generate == "" {
		return o.Data, false, nil
	}
	data, err := pwgen.Generate(o.Generate)
	if err != nil {
		return "", false, err
	}
	return data, true, nil
}

// Create creates a new file.
//
// Returns ErrExists if the name is taken.
// Returns ErrMultiline if the data contains a newline.
func Create(ctx context.Context, s *Session, opts WriteOptions) (*WriteResult, error) {
	data, generated, err := opts.data()
	if err != nil {
		return nil, err
	}
	h, err := s.FS.CreateFile(s.Cwd, opts.Path, data)
	if err != nil {
		return nil, err
	}
	result := &WriteResult{Path: s.FS.Path(h), Generated: generated}
	if err := s.Commit(ctx, "create", result.Path); err != nil {
		return nil, err
	}
	return result, nil
}

// Edit replaces the contents of an existing file, following symlinks.
//
// Returns ErrNotFound if the file does not exist.
// Returns ErrNotFile if the path names a directory.
func Edit(ctx context.Context, s *Session, opts WriteOptions) (*WriteResult, error) {
	data, generated, err := opts.data()
	if err != nil {
		return nil, err
	}
	h, err := s.FS.EditFile(s.Cwd, opts.Path, data)
	if err != nil {
		return nil, err
	}
	result := &WriteResult{Path: s.FS.Path(h), Generated: generated}
	if err := s.Commit(ctx, "edit", result.Path); err != nil {
		return nil, err
	}
	return result, nil
}

// ValidateGenerate checks a generator spec up front, before any prompt.
func ValidateGenerate(spec string) error {
	if spec == "" {
		return nil
	}
	_, err := pwgen.Parse(spec)
	return err
}
