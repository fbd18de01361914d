package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
	"github.com/PolarWolf314/cask/internal/tree"
)

// InitOptions configures the init workflow.
type InitOptions struct {
	// Force replaces an existing store.
	Force bool
}

// InitResult contains the outcome of an init operation.
type InitResult struct {
	// StorePath is the canonical path of the new store.
	StorePath string

	// StoppedDaemon is true if a daemon caching the replaced store was
	// stopped.
	StoppedDaemon bool
}

// Init creates a new, empty store protected by a new password.
//
// Returns ErrStoreExists if the store exists and Force is not set.
// Returns ErrPasswordMismatch if the password confirmation differs.
func Init(ctx context.Context, env *Env, opts InitOptions) (result *InitResult, err error) {
	if err := os.MkdirAll(filepath.Dir(env.Store.Path), 0700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	canonical, lock, err := env.lock()
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	// Checked before prompting so nobody types a password for nothing.
	exists, err := env.Store.Exists()
	if err != nil {
		return nil, err
	}
	if exists && !opts.Force {
		return nil, fmt.Errorf("%w: %s (use --force to overwrite)", kerrors.ErrStoreExists, env.Store.Path)
	}

	password, err := env.Prompter.NewPassword("New password")
	if err != nil {
		return nil, err
	}
	defer clear(password)

	result = &InitResult{StorePath: canonical}
	if exists {
		if result.StoppedDaemon, err = env.stopDaemon(ctx, canonical); err != nil {
			return nil, err
		}
	}

	fsys := tree.New(env.Store.Stamp)
	err = env.Store.Create(ctx, fsys, password, opts.Force)
	env.journal(canonical, false, "init", err)
	if err != nil {
		return nil, err
	}
	env.Logger.Infof("Created store %s", canonical)
	return result, nil
}
