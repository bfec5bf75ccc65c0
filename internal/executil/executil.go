// internal/executil/executil.go
package executil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Cmd is a single external command invocation.
type Cmd struct {
	Name  string
	Args  []string
	Stdin io.Reader

	// Display overrides the logged argv (e.g., with secrets redacted).
	Display []string
}

// String renders the command the way it is logged.
func (c Cmd) String() string {
	args := c.Args
	if c.Display != nil {
		args = c.Display
	}
	return c.Name + " " + ShellQuoteArgs(args)
}

// Runner executes commands. The build invoker depends on this, not on os/exec.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) error
}

// ExitError carries the exit status of a command that ran and failed.
type ExitError struct {
	Code    int
	Command string
	Err     error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command failed (exit=%d): %s: %v", e.Code, e.Command, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode lets main propagate the underlying tool's status.
func (e *ExitError) ExitCode() int { return e.Code }

// ExecRunner runs commands with inherited stdout/stderr.
type ExecRunner struct {
	Stdout io.Writer // default os.Stdout
	Stderr io.Writer // default os.Stderr
}

// DryRunner logs the command that would be run without executing.
type DryRunner struct {
	Out io.Writer // default os.Stdout
}

func (r DryRunner) Run(_ context.Context, cmd Cmd) error {
	return runCore(context.Background(), cmd, true, r.Out, nil)
}

func (r ExecRunner) Run(ctx context.Context, cmd Cmd) error {
	return runCore(ctx, cmd, false, r.Stdout, r.Stderr)
}

// ----------------------------------------------------------------

func runCore(ctx context.Context, c Cmd, dry bool, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	fullCmd := c.String()

	if dry {
		fmt.Fprintf(stdout, "[DRY RUN] %s\n", fullCmd)
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Stdin = c.Stdin

	fmt.Fprintf(stdout, "Running: %s\n", fullCmd)
	if err := cmd.Run(); err != nil {
		// context cancellations/timeouts show clearly
		if errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("command canceled: %s", fullCmd)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("command timed out: %s", fullCmd)
		}
		// include exit status if available
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode(), Command: fullCmd, Err: err}
		}
		return fmt.Errorf("failed to run command: %s: %w", fullCmd, err)
	}
	return nil
}

// ShellQuoteArgs returns a printable, shell-safe representation of args.
func ShellQuoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\n\"'`$\\*?[]{}()<>|&;") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}
