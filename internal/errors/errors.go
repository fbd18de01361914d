package errors

import "errors"

// Kind classifies an error by how callers must react to it.
type Kind int

const (
	KindUser Kind = iota
	KindUsage
	KindCorrupt
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindUser:
		return "user"
	case KindCorrupt:
		return "corrupt"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a sentinel error tagged with its Kind.
type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Usage errors indicate malformed command input.
var (
	// ErrUsage indicates a command was invoked with invalid arguments.
	ErrUsage = newError(KindUsage, "invalid usage")

	// ErrInvalidName indicates a path's final component cannot name an entry.
	ErrInvalidName = newError(KindUsage, "invalid entry name")

	// ErrMultiline indicates file data contains a newline.
	ErrMultiline = newError(KindUsage, "file data must be a single line")

	// ErrEmptyTarget indicates a symlink was given an empty target.
	ErrEmptyTarget = newError(KindUsage, "symlink target must not be empty")
)

// Tree errors indicate an operation that cannot be applied to the current tree.
var (
	// ErrNotFound indicates a path component does not exist.
	ErrNotFound = newError(KindUser, "no such file or directory")

	// ErrNotDir indicates a path component that must be a directory is not one.
	ErrNotDir = newError(KindUser, "not a directory")

	// ErrNotFile indicates the target of a file operation is not a file.
	ErrNotFile = newError(KindUser, "not a file")

	// ErrExists indicates the target name is already taken.
	ErrExists = newError(KindUser, "file exists")

	// ErrNotEmpty indicates a directory still has entries.
	ErrNotEmpty = newError(KindUser, "directory not empty")

	// ErrMoveIntoSelf indicates a move would place a node inside its own subtree.
	ErrMoveIntoSelf = newError(KindUser, "cannot move a directory into itself")

	// ErrRemoveRoot indicates an attempt to remove the root directory.
	ErrRemoveRoot = newError(KindUser, "cannot remove the root directory")

	// ErrMoveRoot indicates an attempt to move the root directory.
	ErrMoveRoot = newError(KindUser, "cannot move the root directory")

	// ErrSymlinkLoop indicates symlink resolution exceeded the hop limit.
	ErrSymlinkLoop = newError(KindUser, "too many levels of symbolic links")
)

// Store errors indicate problems opening, decrypting, or writing the store.
var (
	// ErrIncorrectPassword indicates the store could not be decrypted with the given password.
	ErrIncorrectPassword = newError(KindUser, "incorrect password")

	// ErrPasswordMismatch indicates a new password and its confirmation differ.
	ErrPasswordMismatch = newError(KindUser, "passwords do not match")

	// ErrToolMissing indicates the external encryption tool could not be found.
	ErrToolMissing = newError(KindUser, "encryption tool not found")

	// ErrEncryptFailed indicates the encryption tool exited with an error.
	ErrEncryptFailed = newError(KindUser, "failed to encrypt store")

	// ErrDecryptFailed indicates the encryption tool failed for a reason other than the password.
	ErrDecryptFailed = newError(KindUser, "failed to decrypt store")

	// ErrLocked indicates another process holds the store's advisory lock.
	ErrLocked = newError(KindUser, "store is locked")

	// ErrStoreExists indicates init was asked to create a store that already exists.
	ErrStoreExists = newError(KindUser, "store already exists")

	// ErrStoreNotFound indicates the store file does not exist.
	ErrStoreNotFound = newError(KindUser, "store not found")

	// ErrFormatVersion indicates the document revision differs from the supported one.
	ErrFormatVersion = newError(KindUser, "unsupported store format version")

	// ErrDaemon indicates the session daemon rejected a request or could not be reached.
	ErrDaemon = newError(KindUser, "session daemon error")
)

// Corruption errors indicate a decrypted document that violates the store format.
var (
	// ErrCorruptStore indicates the store document is structurally invalid.
	ErrCorruptStore = newError(KindCorrupt, "corrupt store")
)

// Internal errors indicate a broken invariant inside cask itself.
var (
	// ErrStrayOutput indicates the encryption tool wrote output where none was expected.
	ErrStrayOutput = newError(KindInternal, "encryption tool produced unexpected output")

	// ErrInternal indicates an internal consistency check failed.
	ErrInternal = newError(KindInternal, "internal error")
)

// KindOf returns the Kind of the first classified error in err's chain.
// Errors without a classification are treated as KindUser.
func KindOf(err error) Kind {
	if err == nil {
		return KindUser
	}
	var worst *Error
	visit(err, func(e *Error) {
		if worst == nil || e.kind > worst.kind {
			worst = e
		}
	})
	if worst == nil {
		return KindUser
	}
	return worst.kind
}

// IsFatal reports whether err must end the current session.
func IsFatal(err error) bool {
	k := KindOf(err)
	return k == KindCorrupt || k == KindInternal
}

// visit walks err's tree, including joined errors, calling fn for each *Error.
func visit(err error, fn func(*Error)) {
	if err == nil {
		return
	}
	if e, ok := err.(*Error); ok {
		fn(e)
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			visit(inner, fn)
		}
	case interface{ Unwrap() error }:
		visit(u.Unwrap(), fn)
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
