package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/PolarWolf314/cask/internal/audit"
	"github.com/PolarWolf314/cask/internal/codec"
	"github.com/PolarWolf314/cask/internal/daemon"
	kerrors "github.com/PolarWolf314/cask/internal/errors"
	logger "github.com/PolarWolf314/cask/internal/logging"
	"github.com/PolarWolf314/cask/internal/store"
	"github.com/PolarWolf314/cask/internal/tree"
	"github.com/PolarWolf314/cask/internal/ui"
	"github.com/PolarWolf314/cask/internal/utils"
)

// passwordAttempts is how many times Open asks for the password before
// giving up.
const passwordAttempts = 3

// Env is everything a workflow needs from its surroundings. The CLI builds
// one per invocation; tests build one around a fake cipher.
type Env struct {
	Store    *store.Store
	Prompter Prompter
	Logger   logger.Logger
	Journal  audit.Journal

	// SocketDir holds daemon sockets. Empty means never contact a daemon.
	SocketDir string

	// Quiet suppresses spinners.
	Quiet bool
}

// socket returns the daemon socket for the store at canonical, or "" when
// daemons are disabled.
func (e *Env) socket(canonical string) string {
	if e.SocketDir == "" {
		return ""
	}
	return daemon.SocketPath(e.SocketDir, canonical)
}

func (e *Env) journal(canonical string, viaDaemon bool, op string, err error, paths ...string) {
	entry := audit.Entry{
		User:      username(),
		Host:      utils.ShortHostname("unknown"),
		Operation: op,
		Store:     canonical,
		Paths:     paths,
		Daemon:    viaDaemon,
	}
	if err != nil {
		entry.Failed = err.Error()
	}
	e.Journal.Log(entry)
}

// stopDaemon asks a daemon serving canonical to exit. It reports whether
// one was running.
func (e *Env) stopDaemon(ctx context.Context, canonical string) (bool, error) {
	socket := e.socket(canonical)
	if socket == "" {
		return false, nil
	}
	client, err := daemon.Dial(ctx, socket)
	if err != nil {
		return false, nil
	}
	defer client.Close()
	if err := client.Exit(); err != nil {
		return true, err
	}
	e.Logger.Infof("Stopped daemon for %s", canonical)
	return true, nil
}

// lock acquires the advisory lock of the configured store.
func (e *Env) lock() (string, *store.Lock, error) {
	canonical, err := e.Store.Canonical()
	if err != nil {
		return "", nil, err
	}
	lock, err := store.AcquireLock(canonical, store.LockOwner())
	if err != nil {
		return "", nil, err
	}
	return canonical, lock, nil
}

// Session is an open, locked store. It owns the decrypted tree until Close.
type Session struct {
	env       *Env
	canonical string
	lock      *store.Lock

	// FS is the decrypted tree. Workflows mutate it and then call Commit.
	FS *tree.FS

	// Cwd is the working directory relative paths resolve against.
	Cwd tree.Handle

	password []byte

	// daemonSocket is set while the tree is served by a daemon. Each
	// round trip dials it afresh, so an idle daemon never holds a stale
	// connection of ours.
	daemonSocket string
}

// Open locks the store and obtains its tree, from a running daemon when one
// serves this store and by decrypting the file otherwise.
//
// Returns ErrLocked, naming the holder, if another process has the store open.
// Returns ErrStoreNotFound if the store does not exist.
// Returns ErrIncorrectPassword after repeated wrong passwords.
func Open(ctx context.Context, env *Env) (*Session, error) {
	canonical, lock, err := env.lock()
	if err != nil {
		return nil, err
	}
	s := &Session{env: env, canonical: canonical, lock: lock}

	if err := s.load(ctx); err != nil {
		s.Close()
		return nil, err
	}
	s.Cwd = s.FS.Root()
	return s, nil
}

func (s *Session) load(ctx context.Context) error {
	if socket := s.env.socket(s.canonical); socket != "" {
		if err := daemon.EnsureSocketDir(s.env.SocketDir); err != nil {
			return err
		}
		client, err := daemon.Dial(ctx, socket)
		if err == nil {
			s.env.Logger.Debugf("Using daemon at %s", socket)
			doc, err := client.Read(s.canonical)
			client.Close()
			if err != nil {
				return err
			}
			fsys, err := codec.Decode(doc, s.env.Store.Stamp)
			if err != nil {
				return fmt.Errorf("daemon document: %w", err)
			}
			s.daemonSocket = socket
			s.FS = fsys
			return nil
		}
		s.env.Logger.Debugf("No daemon at %s: %v", socket, err)
	}

	ok, err := s.env.Store.Exists()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s (run %s to create one)", kerrors.ErrStoreNotFound, s.env.Store.Path, ui.Code.Sprint("cask init"))
	}

	for attempt := 1; ; attempt++ {
		password, err := s.env.Prompter.Password(passwordPrompt(s.canonical))
		if err != nil {
			return err
		}
		stop := ui.StartSpinner("Decrypting store...", s.env.Quiet)
		fsys, err := s.env.Store.Load(ctx, password)
		stop("")
		if err == nil {
			s.FS = fsys
			s.password = password
			return nil
		}
		if !errors.Is(err, kerrors.ErrIncorrectPassword) || attempt == passwordAttempts {
			return err
		}
		s.env.Prompter.ReportError(err)
	}
}

// Canonical returns the resolved path of the open store.
func (s *Session) Canonical() string { return s.canonical }

// ViaDaemon reports whether the tree came from a running daemon.
func (s *Session) ViaDaemon() bool { return s.daemonSocket != "" }

// Commit persists pending changes, through the daemon when the session uses
// one, and journals op with the tree paths it touched. A clean tree is not
// written. If the daemon has exited since the tree was read, the password
// is asked for and the store is written directly.
func (s *Session) Commit(ctx context.Context, op string, paths ...string) error {
	if !s.FS.Dirty() {
		return nil
	}
	s.FS.Touch()

	var err error
	sent := false
	if s.daemonSocket != "" {
		sent, err = s.writeDaemon(ctx)
		if err == nil && !sent {
			err = s.recoverPassword(ctx)
		}
	}
	if err == nil && !sent {
		stop := ui.StartSpinner("Encrypting store...", s.env.Quiet)
		err = s.env.Store.Save(ctx, s.FS, s.password)
		stop("")
	}

	s.journal(op, err, paths...)
	if err != nil {
		return fmt.Errorf("saving store: %w", err)
	}
	s.env.Logger.Debugf("Saved %s", s.canonical)
	return nil
}

// writeDaemon sends the tree to the daemon. sent is false when no daemon
// answers any more, in which case the session has dropped it.
func (s *Session) writeDaemon(ctx context.Context) (sent bool, err error) {
	client, err := daemon.Dial(ctx, s.daemonSocket)
	if err != nil {
		s.env.Logger.Warnf("Daemon at %s is gone (%v), writing the store directly", s.daemonSocket, err)
		s.daemonSocket = ""
		return false, nil
	}
	defer client.Close()

	doc, err := codec.Encode(s.FS)
	if err != nil {
		return true, err
	}
	if err := client.Write(s.canonical, doc); err != nil {
		return true, err
	}
	s.FS.MarkClean()
	return true, nil
}

// journal records op without writing anything. Read-only workflows use it.
func (s *Session) journal(op string, err error, paths ...string) {
	s.env.journal(s.canonical, s.ViaDaemon(), op, err, paths...)
}

// StopDaemon asks a daemon serving this store to exit and continues without
// it. The password is then needed to write the store directly.
func (s *Session) StopDaemon(ctx context.Context) error {
	if s.daemonSocket == "" {
		return nil
	}
	s.daemonSocket = ""
	if _, err := s.env.stopDaemon(ctx, s.canonical); err != nil {
		return err
	}
	return s.recoverPassword(ctx)
}

// recoverPassword asks for the password of a store whose tree came from a
// daemon and checks it against the file before any direct write.
func (s *Session) recoverPassword(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		password, err := s.env.Prompter.Password(passwordPrompt(s.canonical))
		if err != nil {
			return err
		}
		if _, err = s.env.Store.LoadDocument(ctx, password); err == nil {
			s.password = password
			return nil
		}
		if !errors.Is(err, kerrors.ErrIncorrectPassword) || attempt == passwordAttempts {
			return err
		}
		s.env.Prompter.ReportError(err)
	}
}

// SpawnOptions configures a background daemon started after a command.
type SpawnOptions struct {
	// Executable and Args start "cask daemon serve" for this store.
	Executable string
	Args       []string
	LogPath    string
}

// SpawnDaemon starts a daemon caching this session's tree, unless the
// session already talks to one. The daemon never takes the lock; this
// session keeps it until Close.
func (s *Session) SpawnDaemon(ctx context.Context, opts SpawnOptions) (int, error) {
	if s.daemonSocket != "" || s.password == nil {
		return 0, nil
	}
	socket := s.env.socket(s.canonical)
	if socket == "" {
		return 0, fmt.Errorf("%w: daemon support is disabled", kerrors.ErrUsage)
	}
	if err := daemon.EnsureSocketDir(s.env.SocketDir); err != nil {
		return 0, err
	}
	doc, err := codec.Encode(s.FS)
	if err != nil {
		return 0, err
	}
	pid, err := daemon.Spawn(ctx, daemon.SpawnConfig{
		Executable: opts.Executable,
		Args:       opts.Args,
		Socket:     socket,
		LogPath:    opts.LogPath,
		Password:   s.password,
		Document:   doc,
	})
	if err != nil {
		return 0, err
	}
	s.env.Logger.Infof("Started daemon (pid %d) on %s", pid, socket)
	return pid, nil
}

// Close wipes the password and releases the lock. It is safe to call more
// than once.
func (s *Session) Close() error {
	clear(s.password)
	return s.lock.Release()
}

// Release removes the lock without touching anything else. Signal handlers
// use it so an interrupted command never leaves a stale lock.
func (s *Session) Release() error { return s.lock.Release() }

// passwordPrompt names the store the password is for.
func passwordPrompt(store string) string {
	return fmt.Sprintf("Password for %s: ", ui.Highlight.Sprint(store))
}

func username() string {
	name, err := utils.GetUsername()
	if err != nil {
		return "unknown"
	}
	return name
}
