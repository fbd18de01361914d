package workflows

import (
	"fmt"
	"io"
	"os"
	"sync"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
	"github.com/PolarWolf314/cask/internal/ui"
	"github.com/PolarWolf314/cask/internal/utils"
	"github.com/manifoldco/promptui"
)

// Prompter obtains passwords and reports errors to whoever is at the other
// end. It is passed into every workflow that needs one.
type Prompter interface {
	// Password asks for an existing password.
	Password(prompt string) ([]byte, error)

	// NewPassword asks for a new password, confirming it.
	NewPassword(prompt string) ([]byte, error)

	// ReportError shows a non-fatal error, such as a wrong password before
	// a retry.
	ReportError(err error)
}

// TerminalPrompter reads passwords from the controlling terminal, so stdin
// stays free for piped data.
type TerminalPrompter struct {
	// Errors receives reported errors; nil means stderr.
	Errors io.Writer
}

var _ Prompter = TerminalPrompter{}

// Password reads a password with echo disabled.
func (p TerminalPrompter) Password(prompt string) ([]byte, error) {
	return utils.ReadPassphraseFromTTY(prompt)
}

// NewPassword reads a password and its confirmation as masked prompts.
// Returns ErrPasswordMismatch if they differ.
func (p TerminalPrompter) NewPassword(prompt string) ([]byte, error) {
	password, err := (&promptui.Prompt{
		Label: prompt,
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return fmt.Errorf("password must not be empty")
			}
			return nil
		},
	}).Run()
	if err != nil {
		return nil, promptError(err)
	}

	confirm, err := (&promptui.Prompt{Label: "Confirm password", Mask: '*'}).Run()
	if err != nil {
		return nil, promptError(err)
	}
	if password != confirm {
		return nil, kerrors.ErrPasswordMismatch
	}
	return []byte(password), nil
}

// ReportError prints err in red.
func (p TerminalPrompter) ReportError(err error) {
	w := p.Errors
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintln(w, ui.Error.Sprint("✗"), err)
}

func promptError(err error) error {
	if err == promptui.ErrInterrupt || err == promptui.ErrEOF {
		return fmt.Errorf("%w: password entry aborted", kerrors.ErrUsage)
	}
	return fmt.Errorf("reading password: %w", err)
}

// FixedPrompter answers every prompt with preset values. Tests and scripted
// callers use it.
type FixedPrompter struct {
	// Secret answers Password.
	Secret []byte

	// NewSecret answers NewPassword; nil means Secret.
	NewSecret []byte

	mu       sync.Mutex
	prompts  int
	last     string
	reported []error
}

var _ Prompter = (*FixedPrompter)(nil)

func (p *FixedPrompter) Password(prompt string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts++
	p.last = prompt
	return append([]byte(nil), p.Secret...), nil
}

func (p *FixedPrompter) NewPassword(string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts++
	if p.NewSecret != nil {
		return append([]byte(nil), p.NewSecret...), nil
	}
	return append([]byte(nil), p.Secret...), nil
}

func (p *FixedPrompter) ReportError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reported = append(p.reported, err)
}

// Prompts returns how many passwords were asked for.
func (p *FixedPrompter) Prompts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prompts
}

// LastPrompt returns the text of the most recent Password prompt.
func (p *FixedPrompter) LastPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Reported returns the errors passed to ReportError.
func (p *FixedPrompter) Reported() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]error(nil), p.reported...)
}
