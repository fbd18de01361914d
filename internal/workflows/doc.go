// Package workflows provides high-level orchestration for cask commands.
//
// Workflows coordinate the store, the session daemon, and the audit journal
// to implement complete user-facing features. Each workflow handles a single
// command's business logic, independent of CLI concerns like flag parsing
// and output formatting.
//
// # Sessions
//
// Most workflows run against an open Session:
//
//	s, err := workflows.Open(ctx, env)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	err = workflows.Mkdir(ctx, s, []string{"web"})
//
// Open takes the store's advisory lock before anything else, then asks a
// running daemon for the tree or decrypts the store. Mutating workflows
// finish with Session.Commit, which writes through the daemon or
// re-encrypts the file. The interactive shell keeps one Session open for
// many commands.
//
// # Password entry
//
// Passwords come from a Prompter carried in the Env: TerminalPrompter for
// interactive use, FixedPrompter for tests and scripts.
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package, allowing
// the CLI layer to provide appropriate user-facing messages without string
// matching:
//
//	_, err := workflows.Open(ctx, env)
//	if errors.Is(err, kerrors.ErrLocked) {
//	    // Someone else has the store open
//	}
package workflows
