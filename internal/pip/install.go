// SPDX-License-Identifier: MPL-2.0

package pip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ErrInstall is the sentinel error wrapped by InstallError.
var ErrInstall = errors.New("package install failed")

type (
	// InstallError records a single failed package install.
	// It wraps ErrInstall for errors.Is classification.
	InstallError struct {
		Package string
		Cause   error
		Output  string // trailing pip output, for diagnostics
	}

	// InstallReport aggregates the outcome of the install loop. With the
	// default continue-on-error policy every package is attempted and
	// failures accumulate here; the dashboard then runs with whatever
	// versions are already present.
	InstallReport struct {
		Attempted []string
		Failures  []*InstallError
	}

	// Installer runs the dependency install loop against the provisioned
	// runtime's pip module.
	Installer struct {
		// Interpreter is the provisioned runtime executable; pip is
		// invoked as "<interpreter> -m pip" so the module always matches
		// the runtime it installs into.
		Interpreter string

		// Packages are installed in order, one invocation each.
		Packages []string

		// Timeout bounds each single install. Zero disables the bound.
		Timeout time.Duration

		// FailFast aborts the loop on the first failure instead of
		// collecting it and moving on.
		FailFast bool

		// Logger reports progress. Required.
		Logger *log.Logger
	}
)

// Error implements the error interface.
func (e *InstallError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("installing %s: %v: %s", e.Package, e.Cause, e.Output)
	}
	return fmt.Sprintf("installing %s: %v", e.Package, e.Cause)
}

// Unwrap returns ErrInstall so callers can use errors.Is.
func (e *InstallError) Unwrap() error { return ErrInstall }

// Ok reports whether every attempted install succeeded.
func (r *InstallReport) Ok() bool { return len(r.Failures) == 0 }

// Summary returns a one-line description of the loop outcome.
func (r *InstallReport) Summary() string {
	if r.Ok() {
		return fmt.Sprintf("%d packages up to date", len(r.Attempted))
	}
	names := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		names = append(names, f.Package)
	}
	return fmt.Sprintf("%d of %d packages failed to install: %s",
		len(r.Failures), len(r.Attempted), strings.Join(names, ", "))
}

// Install runs the loop. Under the default policy the returned error is
// nil even when some packages failed; the report carries the failures
// and the caller decides how loudly to surface them. Under FailFast the
// first InstallError is returned immediately alongside the partial
// report.
func (i *Installer) Install(ctx context.Context) (*InstallReport, error) {
	report := &InstallReport{}

	for _, pkg := range i.Packages {
		report.Attempted = append(report.Attempted, pkg)
		i.Logger.Info("installing package", "package", pkg)

		if err := i.installOne(ctx, pkg); err != nil {
			var installErr *InstallError
			if !errors.As(err, &installErr) {
				installErr = &InstallError{Package: pkg, Cause: err}
			}
			if i.FailFast {
				return report, installErr
			}
			report.Failures = append(report.Failures, installErr)
			i.Logger.Warn("package install failed, continuing",
				"package", pkg, "error", installErr.Cause)
			continue
		}
	}

	return report, nil
}

// installOne performs a single "install, upgrading if already present"
// invocation, which is a safe no-op for an already-current package.
func (i *Installer) installOne(ctx context.Context, pkg string) error {
	if i.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.Timeout)
		defer cancel()
	}

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, i.Interpreter, "-m", "pip", "install", "--upgrade", pkg)
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		cause := err
		if ctxErr := ctx.Err(); ctxErr != nil {
			cause = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		return &InstallError{Package: pkg, Cause: cause, Output: tailLines(output.String(), 5)}
	}
	return nil
}
