package daemon

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"sync"
	"time"

	"github.com/PolarWolf314/cask/internal/codec"
	kerrors "github.com/PolarWolf314/cask/internal/errors"
	logger "github.com/PolarWolf314/cask/internal/logging"
	"github.com/PolarWolf314/cask/internal/tree"
)

// Saver persists a tree. *store.Store is the production implementation.
type Saver interface {
	Save(ctx context.Context, fsys *tree.FS, password []byte) error
}

// ServerConfig holds configuration for a daemon server.
type ServerConfig struct {
	// Socket is the path to listen on.
	Socket string

	// StorePath is the canonical path of the served store. Requests naming
	// any other path are refused.
	StorePath string

	Saver    Saver
	Password []byte

	// IdleTimeout ends the daemon after this long without a request.
	// Zero disables it.
	IdleTimeout time.Duration

	Logger logger.Logger
}

// Server serves one cached tree, strictly one connection at a time.
type Server struct {
	config ServerConfig
	fs     *tree.FS
	ln     *net.UnixListener

	mu   sync.Mutex
	conn *net.UnixConn
}

// NewServer returns a server for fsys. Call Listen, then Serve.
func NewServer(cfg ServerConfig, fsys *tree.FS) *Server {
	return &Server{config: cfg, fs: fsys}
}

// Listen binds the socket. A socket file left behind by a dead daemon is
// replaced; a live one is an error.
func (s *Server) Listen() error {
	path := s.config.Socket
	if _, err := os.Lstat(path); err == nil {
		if c, err := net.DialTimeout("unix", path, time.Second); err == nil {
			c.Close()
			return fmt.Errorf("%w: a daemon is already listening on %s", kerrors.ErrDaemon, path)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing stale socket: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking socket: %w", err)
	}

	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return fmt.Errorf("listen %s: %w", path, err)
	}
	ln.SetUnlinkOnClose(false)
	if err := os.Chmod(path, 0600); err != nil {
		ln.Close()
		os.Remove(path)
		return fmt.Errorf("restricting socket: %w", err)
	}
	s.ln = ln
	return nil
}

// Serve answers requests until EXIT, the idle timeout or ctx cancellation,
// all of which return nil. A connection I/O fault returns an error. The
// socket is removed either way.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		return fmt.Errorf("%w: Serve called before Listen", kerrors.ErrInternal)
	}
	defer s.cleanup()
	stop := context.AfterFunc(ctx, s.interrupt)
	defer stop()

	s.config.Logger.Infof("Serving %s on %s", s.config.StorePath, s.config.Socket)
	for {
		if err := s.ln.SetDeadline(s.deadline()); err != nil {
			return fmt.Errorf("arming idle timer: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}
		conn, err := s.ln.AcceptUnix()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if isTimeout(err) {
				s.config.Logger.Infof("Idle for %s, exiting", s.config.IdleTimeout)
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		if err := checkPeer(conn); err != nil {
			s.config.Logger.Warnf("Refusing connection: %v", err)
			conn.Close()
			continue
		}

		done, err := s.serveConn(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// serveConn drains one connection. done reports that the daemon should
// exit: EXIT was received or the idle timer fired mid-connection.
func (s *Server) serveConn(ctx context.Context, conn *net.UnixConn) (done bool, err error) {
	s.setConn(conn)
	defer s.setConn(nil)
	defer conn.Close()

	r := bufio.NewReader(conn)
	for {
		if err := conn.SetReadDeadline(s.deadline()); err != nil {
			return false, fmt.Errorf("arming idle timer: %w", err)
		}
		if ctx.Err() != nil {
			return true, nil
		}
		line, err := r.ReadBytes('\n')
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				if len(line) > 0 {
					s.config.Logger.Warnf("Client hung up mid-request")
				}
				return false, nil
			case isTimeout(err):
				s.config.Logger.Infof("Idle for %s, exiting", s.config.IdleTimeout)
				return true, nil
			}
			return false, fmt.Errorf("reading request: %w", err)
		}
		if err := conn.SetReadDeadline(time.Time{}); err != nil {
			return false, fmt.Errorf("clearing idle timer: %w", err)
		}

		reply, exit := s.handle(ctx, line)
		if _, err := conn.Write(reply); err != nil {
			return false, fmt.Errorf("writing reply: %w", err)
		}
		if exit {
			s.config.Logger.Infof("Exit requested")
			return true, nil
		}
	}
}

func (s *Server) handle(ctx context.Context, line []byte) (reply []byte, exit bool) {
	req, err := ParseRequest(line)
	if err != nil {
		s.config.Logger.Warnf("Malformed request: %v", err)
		return FormatError(err.Error()), false
	}
	s.config.Logger.Debugf("Request %s", req.Verb)

	switch req.Verb {
	case VerbRead:
		if err := s.checkPath(req.Args[0]); err != nil {
			return FormatError(err.Error()), false
		}
		doc, err := codec.Encode(s.fs)
		if err != nil {
			return FormatError(err.Error()), false
		}
		return FormatOK(doc), false

	case VerbWrite:
		if err := s.checkPath(req.Args[0]); err != nil {
			return FormatError(err.Error()), false
		}
		fsys, err := codec.Decode(req.Args[1], nil)
		if err != nil {
			s.config.Logger.Warnf("Rejected write: %v", err)
			return FormatError(err.Error()), false
		}
		if err := s.config.Saver.Save(ctx, fsys, s.config.Password); err != nil {
			s.config.Logger.Errorf("Saving store: %v", err)
			return FormatError(err.Error()), false
		}
		s.fs = fsys
		return FormatOK(nil), false

	case VerbExit:
		return FormatOK(nil), true
	}
	return FormatError("unhandled request " + req.Verb), false
}

func (s *Server) checkPath(path []byte) error {
	if !bytes.Equal(path, []byte(s.config.StorePath)) {
		return fmt.Errorf("this daemon serves %s, not %s", s.config.StorePath, path)
	}
	return nil
}

func (s *Server) deadline() time.Time {
	if s.config.IdleTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(s.config.IdleTimeout)
}

func (s *Server) setConn(c *net.UnixConn) {
	s.mu.Lock()
	s.conn = c
	s.mu.Unlock()
}

// interrupt unblocks a pending Accept or Read so Serve can notice
// cancellation.
func (s *Server) interrupt() {
	now := time.Now()
	s.ln.SetDeadline(now)
	s.mu.Lock()
	if s.conn != nil {
		s.conn.SetReadDeadline(now)
	}
	s.mu.Unlock()
}

func (s *Server) cleanup() {
	s.ln.Close()
	if err := os.Remove(s.config.Socket); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.config.Logger.Warnf("Removing socket: %v", err)
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
