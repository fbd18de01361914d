package workflows

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/PolarWolf314/cask/internal/codec"
	"github.com/PolarWolf314/cask/internal/daemon"
	kerrors "github.com/PolarWolf314/cask/internal/errors"
)

// ServeOptions configures the daemon serve workflow.
type ServeOptions struct {
	// Handoff carries the password and document from the launching client.
	Handoff io.Reader

	IdleTimeout time.Duration
}

// Serve runs a daemon for the configured store until it is told to exit,
// goes idle or ctx is cancelled. It does not take the lock: the client that
// spawned it holds it, and every later client takes it before connecting.
func Serve(ctx context.Context, env *Env, opts ServeOptions) error {
	canonical, err := env.Store.Canonical()
	if err != nil {
		return err
	}
	socket := env.socket(canonical)
	if socket == "" {
		return fmt.Errorf("%w: no socket directory configured", kerrors.ErrUsage)
	}
	if err := daemon.EnsureSocketDir(env.SocketDir); err != nil {
		return err
	}

	password, doc, err := daemon.ReadHandoff(opts.Handoff)
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrDaemon, err)
	}
	defer clear(password)
	fsys, err := codec.Decode(doc, env.Store.Stamp)
	if err != nil {
		return err
	}

	srv := daemon.NewServer(daemon.ServerConfig{
		Socket:      socket,
		StorePath:   canonical,
		Saver:       env.Store,
		Password:    password,
		IdleTimeout: opts.IdleTimeout,
		Logger:      env.Logger,
	}, fsys)
	if err := srv.Listen(); err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// DaemonStatus describes the daemon slot of a store.
type DaemonStatus struct {
	Store   string
	Socket  string
	Running bool
}

// Status reports whether a daemon is serving the configured store.
func Status(ctx context.Context, env *Env) (*DaemonStatus, error) {
	canonical, err := env.Store.Canonical()
	if err != nil {
		return nil, err
	}
	status := &DaemonStatus{Store: canonical, Socket: env.socket(canonical)}
	if status.Socket == "" {
		return status, nil
	}
	if client, err := daemon.Dial(ctx, status.Socket); err == nil {
		client.Close()
		status.Running = true
	}
	return status, nil
}

// StopServe asks the daemon serving the configured store to exit. It takes
// the lock like any other client. It reports whether a daemon was running.
func StopServe(ctx context.Context, env *Env) (bool, error) {
	canonical, lock, err := env.lock()
	if err != nil {
		return false, err
	}
	defer lock.Release()
	stopped, err := env.stopDaemon(ctx, canonical)
	if stopped && err == nil {
		env.journal(canonical, true, "daemon-stop", nil)
	}
	return stopped, err
}
