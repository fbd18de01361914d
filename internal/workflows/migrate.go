package workflows

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
	"github.com/PolarWolf314/cask/internal/migrate"
)

// MigrateOptions configures the migrate workflow.
type MigrateOptions struct {
	// To is the target format version; zero means the current one.
	To int

	// DryRun reports the steps without writing the store.
	DryRun bool
}

// MigrateResult contains the outcome of a migrate operation.
type MigrateResult struct {
	Steps []migrate.Step

	// Written is true if the store was rewritten.
	Written bool
}

// Migrate upgrades a store written by an older release. It works on the raw
// document, so it does not need the store to decode at its current version.
func Migrate(ctx context.Context, env *Env, opts MigrateOptions) (*MigrateResult, error) {
	to := opts.To
	if to == 0 {
		to = migrate.Current()
	}

	canonical, lock, err := env.lock()
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	if _, err := env.stopDaemon(ctx, canonical); err != nil {
		return nil, err
	}

	exists, err := env.Store.Exists()
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrStoreNotFound, env.Store.Path)
	}

	var doc, password []byte
	for attempt := 1; ; attempt++ {
		if password, err = env.Prompter.Password(passwordPrompt(canonical)); err != nil {
			return nil, err
		}
		doc, err = env.Store.LoadDocument(ctx, password)
		if err == nil {
			break
		}
		if !errors.Is(err, kerrors.ErrIncorrectPassword) || attempt == passwordAttempts {
			return nil, err
		}
		env.Prompter.ReportError(err)
	}
	defer clear(password)

	out, steps, err := migrate.Upgrade(doc, to)
	if err != nil {
		return nil, err
	}
	result := &MigrateResult{Steps: steps}
	if opts.DryRun || bytes.Equal(out, doc) {
		return result, nil
	}

	err = env.Store.SaveDocument(ctx, out, password)
	env.journal(canonical, false, "migrate", err)
	if err != nil {
		return nil, fmt.Errorf("saving store: %w", err)
	}
	result.Written = true
	return result, nil
}
