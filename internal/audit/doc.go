// Package audit records which store operations ran, when, and from where.
//
// # Log Format
//
// The journal is JSON Lines (one JSON object per line), by default at
// $XDG_STATE_HOME/cask/audit.jsonl. Each entry contains:
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - User and host
//   - Operation name and canonical store path
//   - Tree paths involved, never their contents
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails the operation continues
// without error. A zero Journal discards entries, which is what
// `audit = false` in the config selects.
//
// # Reading Logs
//
// ReadEntries parses the journal for `cask log`. Malformed entries are
// silently skipped to handle partial writes.
package audit
