package daemon

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
)

// Client is a connection to a running daemon.
type Client struct {
	conn net.Conn
	r    *bufio.Reader

	// Timeout bounds each round trip; zero means no limit.
	Timeout time.Duration
}

// Dial connects to the daemon listening on socket. The error is returned
// unwrapped so callers can treat "no daemon" as a normal outcome.
func Dial(ctx context.Context, socket string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socket)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, r: bufio.NewReader(conn), Timeout: 30 * time.Second}, nil
}

// Close closes the connection.
func (c *Client) Close() error { return c.conn.Close() }

// Read fetches the cached document for the store at canonical.
func (c *Client) Read(canonical string) ([]byte, error) {
	payload, err := c.roundTrip(VerbRead, []byte(canonical))
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: READ reply carried no document", kerrors.ErrDaemon)
	}
	return payload, nil
}

// Write replaces the cached document; the daemon persists it before
// answering.
func (c *Client) Write(canonical string, doc []byte) error {
	_, err := c.roundTrip(VerbWrite, []byte(canonical), doc)
	return err
}

// Exit asks the daemon to shut down.
func (c *Client) Exit() error {
	_, err := c.roundTrip(VerbExit)
	return err
}

func (c *Client) roundTrip(verb string, args ...[]byte) ([]byte, error) {
	if c.Timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.Timeout)); err != nil {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrDaemon, err)
		}
	}
	if _, err := c.conn.Write(FormatRequest(verb, args...)); err != nil {
		return nil, fmt.Errorf("%w: sending %s: %v", kerrors.ErrDaemon, verb, err)
	}
	line, err := c.r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s reply: %v", kerrors.ErrDaemon, verb, err)
	}
	return ParseReply(line)
}
