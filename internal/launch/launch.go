// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// ErrLaunch is the sentinel error wrapped by LaunchError.
var ErrLaunch = errors.New("launch failed")

type (
	// LaunchError is returned when the child process could not be started
	// at all (bad interpreter path, permission problems). It is NOT
	// returned when the child starts and exits non-zero; that case is
	// reported through the exit code alone, matching the child's own
	// error output. A child torn down by a signal has no exit code in
	// the 0-255 range and is reported as a launch failure.
	LaunchError struct {
		Script string
		Cause  error
	}

	// Launcher runs the dashboard entry script with the provisioned
	// interpreter. Stdin/Stdout/Stderr default to the parent's streams;
	// tests substitute buffers.
	Launcher struct {
		Interpreter string    // absolute path to the provisioned python executable
		Script      string    // entry script path, resolved against Dir
		Args        []string  // extra arguments after the script path
		Dir         string    // working directory for the child (tool root)
		Stdin       io.Reader
		Stdout      io.Writer
		Stderr      io.Writer
	}
)

// Error implements the error interface.
func (e *LaunchError) Error() string {
	return fmt.Sprintf("launching %s: %v", e.Script, e.Cause)
}

// Unwrap returns ErrLaunch so callers can use errors.Is.
func (e *LaunchError) Unwrap() error { return ErrLaunch }

// NewLauncher creates a Launcher with the parent's standard streams.
func NewLauncher(interpreter, script string) *Launcher {
	return &Launcher{
		Interpreter: interpreter,
		Script:      script,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}
}

// Run starts the child and blocks until it exits. The script path is not
// pre-checked for existence: a missing script surfaces as the
// interpreter's own startup error and a non-zero exit code, which is
// propagated verbatim.
func (l *Launcher) Run(ctx context.Context) (ExitCode, error) {
	args := append([]string{l.Script}, l.Args...)
	cmd := exec.CommandContext(ctx, l.Interpreter, args...)
	cmd.Dir = l.Dir
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return childExitCode(l.Script, exitErr.ExitCode())
		}
		return 1, &LaunchError{Script: l.Script, Cause: err}
	}

	return 0, nil
}

// childExitCode validates the status reported for an exited child. A
// status outside 0-255 (notably -1 when the child was killed by a signal
// rather than exiting) cannot be propagated as the bootstrapper's own
// exit code and is reported as a launch failure instead.
func childExitCode(script string, raw int) (ExitCode, error) {
	code := ExitCode(raw)
	if ok, _ := code.IsValid(); !ok {
		return 1, &LaunchError{Script: script, Cause: &InvalidExitCodeError{Value: code}}
	}
	return code, nil
}
