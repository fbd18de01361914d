// Package daemon implements the session daemon: a background process that
// holds one decrypted store in memory and serves it to later cask commands
// over a Unix socket, so the password is asked for only once.
//
// # Protocol
//
// Requests and replies are single lines. Every argument is base64 encoded.
//
//	READ <path>            -> OK <document>
//	WRITE <path> <document> -> OK
//	EXIT                   -> OK
//
// Failures are answered with "ERROR <message>". The path argument must be
// the canonical path of the store the daemon serves.
//
// # Lifecycle
//
// A daemon is started by Spawn, which re-executes cask detached from the
// terminal and hands it the password and decrypted document over a pipe.
// The daemon serves one connection at a time and exits after an idle
// timeout, on EXIT, or on any connection I/O fault. It never holds the
// store lock; clients lock the store before they connect.
package daemon
