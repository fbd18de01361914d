package workflows

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolarWolf314/cask/internal/audit"
	"github.com/PolarWolf314/cask/internal/daemon"
	kerrors "github.com/PolarWolf314/cask/internal/errors"
	"github.com/PolarWolf314/cask/internal/store"
	"github.com/PolarWolf314/cask/internal/store/storetest"
)

func newEnv(t *testing.T) *Env {
	t.Helper()
	dir := t.TempDir()
	return &Env{
		Store:    store.New(filepath.Join(dir, "store.gpg"), &storetest.Cipher{}),
		Prompter: &FixedPrompter{Secret: []byte("correct horse")},
		Journal:  audit.Journal{Path: filepath.Join(dir, "audit.jsonl")},
		Quiet:    true,
	}
}

func initEnv(t *testing.T) *Env {
	t.Helper()
	env := newEnv(t)
	_, err := Init(context.Background(), env, InitOptions{})
	require.NoError(t, err)
	return env
}

func open(t *testing.T, env *Env) *Session {
	t.Helper()
	s, err := Open(context.Background(), env)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func catOne(t *testing.T, s *Session, path string) string {
	t.Helper()
	values, err := Cat(context.Background(), s, []string{path})
	require.NoError(t, err)
	require.Len(t, values, 1)
	return values[0].Data
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	env := initEnv(t)
	s := open(t, env)

	require.NoError(t, Mkdir(ctx, s, []string{"d"}))
	created, err := Create(ctx, s, WriteOptions{Path: "d/f1", Generate: "10"})
	require.NoError(t, err)
	assert.Equal(t, "/d/f1", created.Path)
	assert.True(t, created.Generated)

	first := catOne(t, s, "d/f1")
	assert.Len(t, first, 10)

	moved, err := Move(ctx, s, MoveOptions{Src: "d/f1", Dst: "d/f2"})
	require.NoError(t, err)
	assert.Equal(t, &MoveResult{From: "/d/f1", To: "/d/f2"}, moved)
	assert.Equal(t, first, catOne(t, s, "d/f2"))

	_, err = Move(ctx, s, MoveOptions{Src: "d", Dst: "e"})
	require.NoError(t, err)
	assert.Equal(t, first, catOne(t, s, "e/f2"))

	_, err = Edit(ctx, s, WriteOptions{Path: "e/f2", Generate: "10"})
	require.NoError(t, err)
	edited := catOne(t, s, "e/f2")
	assert.Len(t, edited, 10)
	assert.NotEqual(t, first, edited)
	require.NoError(t, s.Close())

	// Everything above was persisted.
	again := open(t, env)
	assert.Equal(t, edited, catOne(t, again, "/e/f2"))
	_, err = again.FS.Lookup(again.FS.Root(), "d")
	assert.ErrorIs(t, err, kerrors.ErrNotFound)
}

func TestOpenWhileLocked(t *testing.T) {
	env := initEnv(t)
	first := open(t, env)

	_, err := Open(context.Background(), env)
	require.ErrorIs(t, err, kerrors.ErrLocked)
	assert.Contains(t, err.Error(), store.LockOwner())

	// The store was not touched by the failed attempt.
	require.NoError(t, Mkdir(context.Background(), first, []string{"still-mine"}))
	require.NoError(t, first.Close())

	second := open(t, env)
	_, err = second.FS.Lookup(second.FS.Root(), "still-mine")
	assert.NoError(t, err)
}

func TestOpenWrongPassword(t *testing.T) {
	env := initEnv(t)
	prompter := &FixedPrompter{Secret: []byte("wrong")}
	env.Prompter = prompter

	_, err := Open(context.Background(), env)
	require.ErrorIs(t, err, kerrors.ErrIncorrectPassword)
	assert.Equal(t, passwordAttempts, prompter.Prompts())
	assert.Len(t, prompter.Reported(), passwordAttempts-1)

	// The lock was released on the way out.
	env.Prompter = &FixedPrompter{Secret: []byte("correct horse")}
	open(t, env)
}

func TestOpenMissingStore(t *testing.T) {
	env := newEnv(t)
	_, err := Open(context.Background(), env)
	require.ErrorIs(t, err, kerrors.ErrStoreNotFound)

	canonical, err := env.Store.Canonical()
	require.NoError(t, err)
	_, err = os.Lstat(store.LockPath(canonical))
	assert.True(t, os.IsNotExist(err), "lock left behind")
}

func TestInitRefusesExistingStore(t *testing.T) {
	env := initEnv(t)
	prompter := &FixedPrompter{Secret: []byte("other")}
	env.Prompter = prompter

	_, err := Init(context.Background(), env, InitOptions{})
	require.ErrorIs(t, err, kerrors.ErrStoreExists)
	assert.Zero(t, prompter.Prompts(), "prompted before checking")

	_, err = Init(context.Background(), env, InitOptions{Force: true})
	require.NoError(t, err)
	open(t, env)
}

func TestMkdirAndList(t *testing.T) {
	ctx := context.Background()
	s := open(t, initEnv(t))

	err := Mkdir(ctx, s, []string{"a", "a", "b"})
	require.ErrorIs(t, err, kerrors.ErrExists)
	require.NoError(t, Link(ctx, s, "a", "l"))
	_, err = Create(ctx, s, WriteOptions{Path: "a/secret", Data: "v"})
	require.NoError(t, err)

	result, err := List(ctx, s, ListOptions{})
	require.NoError(t, err)
	require.Len(t, result.Listings, 1)
	assert.True(t, result.Listings[0].Dir)

	var names []string
	for _, e := range result.Listings[0].Entries {
		names = append(names, e.String())
	}
	assert.Equal(t, []string{"a/", "b/", "l@"}, names)

	result, err = List(ctx, s, ListOptions{Paths: []string{"l", "missing", "a/secret"}})
	require.ErrorIs(t, err, kerrors.ErrNotFound)
	require.Len(t, result.Listings, 2)
	assert.Equal(t, "secret", result.Listings[0].Entries[0].Name, "symlink to a directory lists the directory")
	assert.False(t, result.Listings[1].Dir)

	result, err = List(ctx, s, ListOptions{Paths: []string{"l"}, Self: true})
	require.NoError(t, err)
	assert.Equal(t, "a", result.Listings[0].Entries[0].Target)
}

func TestCatRejectsDirectories(t *testing.T) {
	ctx := context.Background()
	s := open(t, initEnv(t))
	require.NoError(t, Mkdir(ctx, s, []string{"d"}))
	_, err := Create(ctx, s, WriteOptions{Path: "f", Data: "x"})
	require.NoError(t, err)

	values, err := Cat(ctx, s, []string{"d", "f"})
	require.ErrorIs(t, err, kerrors.ErrNotFile)
	assert.Equal(t, []Value{{Path: "f", Data: "x"}}, values)
}

func TestCreateRejectsMultiline(t *testing.T) {
	s := open(t, initEnv(t))
	_, err := Create(context.Background(), s, WriteOptions{Path: "f", Data: "a\nb"})
	require.ErrorIs(t, err, kerrors.ErrMultiline)
	assert.False(t, s.FS.Dirty())

	assert.ErrorIs(t, ValidateGenerate("0"), kerrors.ErrUsage)
	assert.NoError(t, ValidateGenerate(""))
}

func TestRemoveKeepsSuccessfulRemovals(t *testing.T) {
	ctx := context.Background()
	env := initEnv(t)
	s := open(t, env)
	require.NoError(t, Mkdir(ctx, s, []string{"full", "gone"}))
	_, err := Create(ctx, s, WriteOptions{Path: "full/f", Data: "x"})
	require.NoError(t, err)

	err = Remove(ctx, s, RemoveOptions{Paths: []string{"missing", "full", "gone"}})
	require.ErrorIs(t, err, kerrors.ErrNotFound)
	require.ErrorIs(t, err, kerrors.ErrNotEmpty)
	require.NoError(t, s.Close())

	s = open(t, env)
	_, err = s.FS.Lookup(s.Cwd, "gone")
	assert.ErrorIs(t, err, kerrors.ErrNotFound)
	_, err = s.FS.Lookup(s.Cwd, "full/f")
	assert.NoError(t, err)
}

func TestRemoveWorkingDirectory(t *testing.T) {
	ctx := context.Background()
	s := open(t, initEnv(t))
	require.NoError(t, Mkdir(ctx, s, []string{"a", "a/b"}))
	require.NoError(t, s.Chdir("a/b"))
	assert.Equal(t, "/a/b", s.Getwd())

	require.NoError(t, Remove(ctx, s, RemoveOptions{Paths: []string{"/a"}, Recursive: true}))
	assert.Equal(t, "/", s.Getwd())

	require.NoError(t, Mkdir(ctx, s, []string{"c"}))
	assert.Equal(t, "/", s.Getwd())
}

func TestChdir(t *testing.T) {
	ctx := context.Background()
	s := open(t, initEnv(t))
	require.NoError(t, Mkdir(ctx, s, []string{"a"}))
	_, err := Create(ctx, s, WriteOptions{Path: "a/f", Data: "x"})
	require.NoError(t, err)
	require.NoError(t, Link(ctx, s, "a", "l"))

	require.NoError(t, s.Chdir("l"))
	assert.Equal(t, "/a", s.Getwd())
	require.NoError(t, s.Chdir(".."))
	assert.Equal(t, "/", s.Getwd())
	require.NoError(t, s.Chdir(".."))
	assert.Equal(t, "/", s.Getwd())

	assert.ErrorIs(t, s.Chdir("a/f"), kerrors.ErrNotDir)
	assert.ErrorIs(t, s.Chdir("nope"), kerrors.ErrNotFound)

	require.NoError(t, s.Chdir("a"))
	require.NoError(t, s.Chdir(""))
	assert.Equal(t, "/", s.Getwd())
}

func TestMoveIntoItself(t *testing.T) {
	ctx := context.Background()
	s := open(t, initEnv(t))
	require.NoError(t, Mkdir(ctx, s, []string{"a", "a/b"}))

	_, err := Move(ctx, s, MoveOptions{Src: "a", Dst: "a/b"})
	require.ErrorIs(t, err, kerrors.ErrMoveIntoSelf)

	result, err := Move(ctx, s, MoveOptions{Src: "a/b", Dst: "/"})
	require.NoError(t, err)
	assert.Equal(t, "/b", result.To)
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	s := open(t, initEnv(t))
	require.NoError(t, Mkdir(ctx, s, []string{"web", "web/old"}))
	for _, p := range []string{"web/login", "web/old/login", "bank"} {
		_, err := Create(ctx, s, WriteOptions{Path: p, Data: "x"})
		require.NoError(t, err)
	}
	require.NoError(t, Link(ctx, s, "web", "w"))

	all, err := Find(ctx, s, FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"bank", "w", "web/", "web/login", "web/old/", "web/old/login"}, all)

	files, err := Find(ctx, s, FindOptions{Path: "web", FilesOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"web/login", "web/old/login"}, files)

	named, err := Find(ctx, s, FindOptions{Name: "log*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"web/login", "web/old/login"}, named)

	deep, err := Find(ctx, s, FindOptions{Name: "web/*/login"})
	require.NoError(t, err)
	assert.Equal(t, []string{"web/old/login"}, deep)

	_, err = Find(ctx, s, FindOptions{Name: "[unclosed"})
	assert.ErrorIs(t, err, kerrors.ErrUsage)
}

func TestDump(t *testing.T) {
	ctx := context.Background()
	s := open(t, initEnv(t))
	require.NoError(t, Mkdir(ctx, s, []string{"web"}))
	_, err := Create(ctx, s, WriteOptions{Path: "web/login", Data: "hunter2"})
	require.NoError(t, err)
	require.NoError(t, Link(ctx, s, "web/login", "current"))

	out, err := Dump(ctx, s, DumpYAML)
	require.NoError(t, err)
	assert.Equal(t, "current: !symlink web/login\nweb:\n    login: hunter2\n", string(out))

	out, err = Dump(ctx, s, DumpJSON)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"format_version": 4`)
}

func TestPasswd(t *testing.T) {
	ctx := context.Background()
	env := initEnv(t)
	env.Prompter = &FixedPrompter{Secret: []byte("correct horse"), NewSecret: []byte("battery staple")}
	s := open(t, env)
	require.NoError(t, Mkdir(ctx, s, []string{"kept"}))
	require.NoError(t, Passwd(ctx, s))

	// Later commits in the same session use the new password.
	require.NoError(t, Mkdir(ctx, s, []string{"after"}))
	require.NoError(t, s.Close())

	env.Prompter = &FixedPrompter{Secret: []byte("correct horse")}
	_, err := Open(ctx, env)
	require.ErrorIs(t, err, kerrors.ErrIncorrectPassword)

	env.Prompter = &FixedPrompter{Secret: []byte("battery staple")}
	s = open(t, env)
	assert.Equal(t, []string{"after", "kept"}, s.FS.Entries(s.FS.Root()))
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	password := []byte("correct horse")
	legacy := `{"data": {"bank": {"pin": "1234"}}, "metadata": {"mhost": "old", "mtime": 1, "mtzname": "UTC"}}`
	require.NoError(t, env.Store.SaveDocument(ctx, []byte(legacy), password))

	_, err := Open(ctx, env)
	require.ErrorIs(t, err, kerrors.ErrFormatVersion)

	dry, err := Migrate(ctx, env, MigrateOptions{DryRun: true})
	require.NoError(t, err)
	assert.False(t, dry.Written)
	_, err = Open(ctx, env)
	require.ErrorIs(t, err, kerrors.ErrFormatVersion)

	result, err := Migrate(ctx, env, MigrateOptions{})
	require.NoError(t, err)
	assert.True(t, result.Written)
	assert.Len(t, result.Steps, 3)

	s := open(t, env)
	assert.Equal(t, "1234", catOne(t, s, "bank/pin"))
	require.NoError(t, s.Close())

	// Already current: nothing to write.
	result, err = Migrate(ctx, env, MigrateOptions{})
	require.NoError(t, err)
	assert.False(t, result.Written)
}

func TestJournalNeverRecordsData(t *testing.T) {
	ctx := context.Background()
	env := initEnv(t)
	s := open(t, env)
	_, err := Create(ctx, s, WriteOptions{Path: "f", Data: "top-secret-value"})
	require.NoError(t, err)
	_, err = Cat(ctx, s, []string{"f"})
	require.NoError(t, err)

	raw, err := os.ReadFile(env.Journal.Path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "top-secret-value")

	result, err := Log(ctx, env.Journal, LogOptions{Operations: "create,cat"})
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, []string{"/f"}, result.Entries[0].Paths)
	assert.Equal(t, s.Canonical(), result.Entries[1].Store)

	_, err = Log(ctx, env.Journal, LogOptions{Since: "yesterday"})
	assert.ErrorIs(t, err, kerrors.ErrUsage)
}

// shortDir returns a directory whose path leaves room for a socket name.
func shortDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "cask")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestDaemonRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := initEnv(t)
	env.SocketDir = filepath.Join(shortDir(t), "run")

	// Hand the daemon what a spawning client would.
	s := open(t, env)
	require.NoError(t, Mkdir(ctx, s, []string{"before"}))
	var handoff bytes.Buffer
	require.NoError(t, daemon.WriteHandoff(&handoff, []byte("correct horse"), mustEncode(t, s)))
	require.NoError(t, s.Close())

	served := make(chan error, 1)
	go func() {
		served <- Serve(ctx, env, ServeOptions{Handoff: &handoff, IdleTimeout: time.Minute})
	}()
	require.Eventually(t, func() bool {
		status, err := Status(ctx, env)
		return err == nil && status.Running
	}, 5*time.Second, 20*time.Millisecond)

	prompter := &FixedPrompter{}
	env.Prompter = prompter
	s = open(t, env)
	assert.True(t, s.ViaDaemon())
	assert.Equal(t, []string{"before"}, s.FS.Entries(s.FS.Root()))
	require.NoError(t, Mkdir(ctx, s, []string{"via-daemon"}))
	require.NoError(t, s.Close())
	assert.Zero(t, prompter.Prompts())

	stopped, err := StopServe(ctx, env)
	require.NoError(t, err)
	assert.True(t, stopped)
	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not exit")
	}

	// The daemon persisted the write.
	env.Prompter = &FixedPrompter{Secret: []byte("correct horse")}
	s = open(t, env)
	assert.False(t, s.ViaDaemon())
	assert.Equal(t, []string{"before", "via-daemon"}, s.FS.Entries(s.FS.Root()))
	require.NoError(t, s.Close())

	stopped, err = StopServe(ctx, env)
	require.NoError(t, err)
	assert.False(t, stopped)
}

func TestPasswordPromptNamesStore(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	env := initEnv(t)
	prompter := &FixedPrompter{Secret: []byte("correct horse")}
	env.Prompter = prompter

	s := open(t, env)
	assert.Equal(t, "Password for '"+s.Canonical()+"': ", prompter.LastPrompt())
}

func TestCommitAfterDaemonIdledOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := initEnv(t)
	env.SocketDir = filepath.Join(shortDir(t), "run")

	s := open(t, env)
	var handoff bytes.Buffer
	require.NoError(t, daemon.WriteHandoff(&handoff, []byte("correct horse"), mustEncode(t, s)))
	require.NoError(t, s.Close())

	served := make(chan error, 1)
	go func() {
		served <- Serve(ctx, env, ServeOptions{Handoff: &handoff, IdleTimeout: 300 * time.Millisecond})
	}()
	require.Eventually(t, func() bool {
		status, err := Status(ctx, env)
		return err == nil && status.Running
	}, 5*time.Second, 20*time.Millisecond)

	prompter := &FixedPrompter{Secret: []byte("correct horse")}
	env.Prompter = prompter
	s = open(t, env)
	require.True(t, s.ViaDaemon())
	assert.Zero(t, prompter.Prompts())

	// The daemon exits while the session sits idle.
	time.Sleep(600 * time.Millisecond)
	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not idle out")
	}

	require.NoError(t, Mkdir(ctx, s, []string{"late"}))
	assert.False(t, s.ViaDaemon())
	assert.False(t, s.FS.Dirty())
	assert.Equal(t, 1, prompter.Prompts())
	require.NoError(t, s.Close())

	s = open(t, env)
	assert.Equal(t, []string{"late"}, s.FS.Entries(s.FS.Root()))
}

func mustEncode(t *testing.T, s *Session) []byte {
	t.Helper()
	out, err := Dump(context.Background(), s, DumpJSON)
	require.NoError(t, err)
	return out
}

func TestFormatDetails(t *testing.T) {
	assert.Equal(t, "/a, /b", FormatDetails(audit.Entry{Paths: []string{"/a", "/b"}}))
	assert.Equal(t, "4 paths (daemon)", FormatDetails(audit.Entry{Paths: strings.Split("a b c d", " "), Daemon: true}))
	assert.Equal(t, "failed: boom", FormatDetails(audit.Entry{Failed: "boom"}))
}
