package daemon

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/PolarWolf314/cask/internal/codec"
	kerrors "github.com/PolarWolf314/cask/internal/errors"
	"github.com/PolarWolf314/cask/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storePath = "/home/u/store.gpg"

type recordingSaver struct {
	mu    sync.Mutex
	saved []*tree.FS
	err   error
}

func (r *recordingSaver) Save(_ context.Context, fsys *tree.FS, _ []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, fsys)
	return nil
}

func (r *recordingSaver) fail(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *recordingSaver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

// shortDir keeps socket paths under the sun_path limit.
func shortDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "cask")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

type harness struct {
	socket string
	saver  *recordingSaver
	done   chan error
	cancel context.CancelFunc
}

func startServer(t *testing.T, idle time.Duration) *harness {
	t.Helper()
	fsys := tree.New(nil)
	_, err := fsys.CreateFile(fsys.Root(), "secret", "v1")
	require.NoError(t, err)

	h := &harness{
		socket: filepath.Join(shortDir(t), "d.sock"),
		saver:  &recordingSaver{},
		done:   make(chan error, 1),
	}
	srv := NewServer(ServerConfig{
		Socket:      h.socket,
		StorePath:   storePath,
		Saver:       h.saver,
		Password:    []byte("pw"),
		IdleTimeout: idle,
	}, fsys)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	t.Cleanup(cancel)
	go func() { h.done <- srv.Serve(ctx) }()
	return h
}

func (h *harness) dial(t *testing.T) *Client {
	t.Helper()
	c, err := Dial(context.Background(), h.socket)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func (h *harness) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
		return nil
	}
}

func TestServerReadWrite(t *testing.T) {
	h := startServer(t, 0)
	c := h.dial(t)

	doc, err := c.Read(storePath)
	require.NoError(t, err)
	fsys, err := codec.Decode(doc, nil)
	require.NoError(t, err)

	_, err = fsys.EditFile(fsys.Root(), "secret", "v2")
	require.NoError(t, err)
	updated, err := codec.Encode(fsys)
	require.NoError(t, err)
	require.NoError(t, c.Write(storePath, updated))
	assert.Equal(t, 1, h.saver.count())

	// A second connection sees the new tree.
	c.Close()
	c2 := h.dial(t)
	doc, err = c2.Read(storePath)
	require.NoError(t, err)
	assert.Equal(t, string(updated), string(doc))

	require.NoError(t, c2.Exit())
	assert.NoError(t, h.wait(t))
	_, err = os.Stat(h.socket)
	assert.True(t, os.IsNotExist(err), "socket removed on exit")
}

func TestServerRefusesOtherStore(t *testing.T) {
	h := startServer(t, 0)
	c := h.dial(t)

	_, err := c.Read("/somewhere/else.gpg")
	assert.ErrorIs(t, err, kerrors.ErrDaemon)

	err = c.Write("/somewhere/else.gpg", []byte("{}"))
	assert.ErrorIs(t, err, kerrors.ErrDaemon)
	assert.Equal(t, 0, h.saver.count())

	// Still serving on the same connection.
	_, err = c.Read(storePath)
	assert.NoError(t, err)
}

func TestServerRejectsCorruptWrite(t *testing.T) {
	h := startServer(t, 0)
	c := h.dial(t)

	before, err := c.Read(storePath)
	require.NoError(t, err)

	err = c.Write(storePath, []byte(`{"data": 1}`))
	require.Error(t, err)
	assert.Equal(t, 0, h.saver.count())

	after, err := c.Read(storePath)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestServerKeepsTreeWhenSaveFails(t *testing.T) {
	h := startServer(t, 0)
	h.saver.fail(errors.New("disk full"))
	c := h.dial(t)

	before, err := c.Read(storePath)
	require.NoError(t, err)

	fsys, err := codec.Decode(before, nil)
	require.NoError(t, err)
	_, err = fsys.Mkdir(fsys.Root(), "new")
	require.NoError(t, err)
	doc, err := codec.Encode(fsys)
	require.NoError(t, err)

	err = c.Write(storePath, doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	after, err := c.Read(storePath)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestServerAnswersMalformedRequests(t *testing.T) {
	h := startServer(t, 0)
	conn, err := net.Dial("unix", h.socket)
	require.NoError(t, err)
	defer conn.Close()
	c := &Client{conn: conn, r: bufio.NewReader(conn)}

	_, err = conn.Write([]byte("BOGUS\n"))
	require.NoError(t, err)
	line, err := c.r.ReadBytes('\n')
	require.NoError(t, err)
	_, err = ParseReply(line)
	assert.ErrorIs(t, err, kerrors.ErrDaemon)

	_, err = c.Read(storePath)
	assert.NoError(t, err)
}

func TestServerIdleTimeout(t *testing.T) {
	h := startServer(t, 100*time.Millisecond)
	assert.NoError(t, h.wait(t))
	_, err := os.Stat(h.socket)
	assert.True(t, os.IsNotExist(err))
}

func TestServerIdleTimeoutWithSilentClient(t *testing.T) {
	h := startServer(t, 100*time.Millisecond)
	c := h.dial(t)
	_, err := c.Read(storePath)
	require.NoError(t, err)

	assert.NoError(t, h.wait(t))
}

func TestServerStopsOnCancel(t *testing.T) {
	h := startServer(t, 0)
	c := h.dial(t)
	_, err := c.Read(storePath)
	require.NoError(t, err)

	h.cancel()
	assert.NoError(t, h.wait(t))
}

func TestListenRefusesLiveSocketAndReplacesStale(t *testing.T) {
	h := startServer(t, 0)

	other := NewServer(ServerConfig{Socket: h.socket, StorePath: storePath}, tree.New(nil))
	err := other.Listen()
	assert.ErrorIs(t, err, kerrors.ErrDaemon)

	stale := filepath.Join(shortDir(t), "stale.sock")
	require.NoError(t, os.WriteFile(stale, nil, 0600))
	srv := NewServer(ServerConfig{Socket: stale, StorePath: storePath}, tree.New(nil))
	require.NoError(t, srv.Listen())
	srv.cleanup()
}
