//go:build !linux

package daemon

import "net"

// checkPeer relies on the socket directory permissions alone.
func checkPeer(*net.UnixConn) error { return nil }
