package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"github.com/spf13/cobra"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
	"github.com/PolarWolf314/cask/internal/ui"
	"github.com/PolarWolf314/cask/internal/utils"
	"github.com/PolarWolf314/cask/internal/workflows"
)

// errIdle ends a shell nobody has typed into for the idle timeout.
var errIdle = errors.New("idle timeout")

// shellRefused are commands that open, replace or serve a store on their
// own and so cannot share the shell's session.
var shellRefused = []string{"shell", "init", "migrate", "daemon"}

func init() {
	RootCmd.AddCommand(shellCmd)
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open the store for an interactive session",
	Long: `Decrypts the store once and reads commands until exit, end of input or
the shell idle timeout. Every cask command works without the "cask" prefix,
and relative paths resolve against a working directory.

Built-ins:
  cd [PATH]   change directory (no PATH: the root)
  pwd         print the working directory
  clear       clear the screen
  exit, quit  leave the shell

The store stays locked while the shell is open.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if shellSession != nil {
			return notInShell(cmd)
		}
		ctx := commandContext(cmd)
		s, err := workflows.Open(ctx, newEnv())
		if err != nil {
			return err
		}
		stop := releaseOnSignal(s)
		shellSession = s
		defer func() {
			shellSession = nil
			stop()
			s.Close()
		}()

		lines := newLineReader(cmd.InOrStdin(), cmd.OutOrStdout())
		defer lines.Close()
		return runShell(ctx, cmd.Root(), s, lines, config.Shell.IdleTimeout.Duration)
	},
}

func runShell(ctx context.Context, root *cobra.Command, s *workflows.Session, lines lineReader, idle time.Duration) error {
	out, errOut := root.OutOrStdout(), root.ErrOrStderr()
	for {
		line, err := readLine(ctx, lines, fmt.Sprintf("cask:%s> ", s.Getwd()), idle)
		switch {
		case errors.Is(err, io.EOF):
			fmt.Fprintln(out)
			return nil
		case errors.Is(err, errIdle):
			fmt.Fprintf(errOut, "\nNo input for %s, closing the store\n", idle)
			return nil
		case errors.Is(err, readline.ErrInterrupt):
			continue
		case err != nil:
			return err
		}

		args, err := splitWords(line)
		if err != nil {
			fmt.Fprintln(errOut, ui.Error.Sprint("✗"), err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		done, err := shellCommand(ctx, root, s, args)
		if err != nil {
			fmt.Fprintln(errOut, ui.Error.Sprint("✗"), err)
			if kerrors.IsFatal(err) {
				return err
			}
		}
		if done {
			return nil
		}
	}
}

// shellCommand runs one line of input. It reports whether the shell should
// end.
func shellCommand(ctx context.Context, root *cobra.Command, s *workflows.Session, args []string) (bool, error) {
	out := root.OutOrStdout()
	switch args[0] {
	case "exit", "quit":
		return true, nil
	case "cd":
		if len(args) > 2 {
			return false, fmt.Errorf("%w: cd takes at most one path", kerrors.ErrUsage)
		}
		path := ""
		if len(args) == 2 {
			path = args[1]
		}
		return false, s.Chdir(path)
	case "pwd":
		fmt.Fprintln(out, s.Getwd())
		return false, nil
	case "clear":
		return false, utils.ClearScreen()
	case "cask":
		args = args[1:]
		if len(args) == 0 {
			return false, nil
		}
	}
	if slices.Contains(shellRefused, args[0]) {
		return false, fmt.Errorf("%w: %s cannot run inside the shell", kerrors.ErrUsage, args[0])
	}

	resetFlags(root)
	root.SetArgs(args)
	return false, root.ExecuteContext(ctx)
}

// lineReader reads one line of input after showing a prompt.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// newLineReader uses readline for editing and history on a terminal and
// reads plain lines otherwise.
func newLineReader(in io.Reader, out io.Writer) lineReader {
	if utils.IsTerminal() {
		rl, err := readline.NewEx(&readline.Config{
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err == nil {
			return &terminalLines{rl: rl}
		}
		Logger.Debugf("Line editing unavailable: %v", err)
	}
	return &plainLines{scanner: bufio.NewScanner(in), out: out}
}

type terminalLines struct {
	rl *readline.Instance
}

func (t *terminalLines) ReadLine(prompt string) (string, error) {
	t.rl.SetPrompt(prompt)
	return t.rl.Readline()
}

func (t *terminalLines) Close() error { return t.rl.Close() }

type plainLines struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (p *plainLines) ReadLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.scanner.Text(), nil
}

func (p *plainLines) Close() error { return nil }

// readLine reads a line, giving up with errIdle after idle. Zero idle waits
// forever.
func readLine(ctx context.Context, lines lineReader, prompt string, idle time.Duration) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := lines.ReadLine(prompt)
		ch <- result{line, err}
	}()

	var timeout <-chan time.Time
	if idle > 0 {
		timer := time.NewTimer(idle)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case r := <-ch:
		return r.line, r.err
	case <-timeout:
		return "", errIdle
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// splitWords splits a command line the way a POSIX shell would: single
// quotes keep text literally, double quotes allow backslash escapes, and an
// unquoted word starting with "#" comments out the rest of the line.
func splitWords(line string) ([]string, error) {
	words, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrUsage, err)
	}
	return words, nil
}
