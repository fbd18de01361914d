// Package errors provides typed error values for cask.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching. Every
// sentinel also carries a Kind, which decides how the CLI and the interactive
// shell react to it.
//
// # Error Kinds
//
//   - KindUsage: malformed command input (ErrInvalidName, ErrMultiline).
//     Reported before any tree mutation; never ends a shell session.
//   - KindUser: valid input that cannot be completed (ErrNotFound,
//     ErrExists, ErrNotEmpty, ErrIncorrectPassword, ErrLocked, ...).
//     Reported, no state change, non-fatal.
//   - KindCorrupt: the decrypted document violates the store format
//     (ErrCorruptStore). Always fatal, no partial recovery.
//   - KindInternal: an invariant cask itself is responsible for was broken
//     (ErrStrayOutput, ErrInternal). Always fatal, nothing is persisted.
//
// # Usage
//
// Return errors from internal packages, wrapped with context:
//
//	return fmt.Errorf("%w: %s", kerrors.ErrNotFound, path)
//
// Handle errors in the CLI layer:
//
//	if kerrors.IsFatal(err) {
//	    // end the session
//	}
//	if errors.Is(err, kerrors.ErrLocked) {
//	    // show who holds the lock
//	}
package errors
