// SPDX-License-Identifier: MPL-2.0

package pip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"dashstrap/internal/pyruntime"

	"github.com/charmbracelet/log"
)

var (
	// ErrConfigPatchSkipped indicates the path-configuration file was
	// absent, so the enabling patch could not be applied. Installed
	// packages may be invisible to the runtime.
	ErrConfigPatchSkipped = errors.New("path configuration patch skipped")

	// ErrPipBootstrap is the sentinel error wrapped by PipBootstrapError.
	ErrPipBootstrap = errors.New("pip bootstrap failed")
)

type (
	// ConfigPatchSkippedError is returned (under strict mode) or logged
	// loudly (default) when the path-configuration file is missing.
	ConfigPatchSkippedError struct {
		Path string
	}

	// PipBootstrapError is returned when get-pip.py could not be
	// downloaded or executed. It wraps ErrPipBootstrap.
	PipBootstrapError struct {
		Cause  error
		Output string // trailing child output, for diagnostics
	}

	// Activator enables library discovery in the provisioned runtime and
	// bootstraps pip when it is absent.
	Activator struct {
		// PathConfig is the path-configuration file to patch. Empty
		// means the platform's distribution has none and the step is a
		// silent no-op.
		PathConfig string

		// Interpreter is the provisioned runtime executable.
		Interpreter string

		// PipPath is the expected package-manager executable; its
		// existence is the sole bootstrap signal.
		PipPath string

		// GetPipURL is where the bootstrap script is fetched from.
		GetPipURL string

		// ToolRoot hosts the transient bootstrap script download.
		ToolRoot string

		// Strict promotes a missing path-configuration file to a fatal
		// ConfigPatchSkippedError.
		Strict bool

		// Fetcher downloads get-pip.py. Defaults to a plain fetcher.
		Fetcher *pyruntime.Fetcher

		// Logger reports progress. Required.
		Logger *log.Logger
	}
)

// Error implements the error interface.
func (e *ConfigPatchSkippedError) Error() string {
	return fmt.Sprintf("path configuration file %s not found; installed packages may not be importable", e.Path)
}

// Unwrap returns ErrConfigPatchSkipped so callers can use errors.Is.
func (e *ConfigPatchSkippedError) Unwrap() error { return ErrConfigPatchSkipped }

// Error implements the error interface.
func (e *PipBootstrapError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("bootstrapping pip: %v: %s", e.Cause, e.Output)
	}
	return fmt.Sprintf("bootstrapping pip: %v", e.Cause)
}

// Unwrap returns ErrPipBootstrap so callers can use errors.Is.
func (e *PipBootstrapError) Unwrap() error { return ErrPipBootstrap }

// EnablePathConfig applies the site-discovery patch to the runtime's
// path-configuration file. It runs unconditionally on every invocation;
// re-applying to an already-enabled file leaves it byte-identical.
func (a *Activator) EnablePathConfig() error {
	if a.PathConfig == "" {
		a.Logger.Debug("platform distribution has no path configuration file, nothing to patch")
		return nil
	}

	data, err := os.ReadFile(a.PathConfig)
	if errors.Is(err, os.ErrNotExist) {
		skipped := &ConfigPatchSkippedError{Path: a.PathConfig}
		if a.Strict {
			return skipped
		}
		a.Logger.Warn("path configuration file missing, skipping patch",
			"path", a.PathConfig, "consequence", "installed packages may not be importable")
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading path configuration %s: %w", a.PathConfig, err)
	}

	patched, changed := PatchPathConfig(string(data))
	if !changed {
		a.Logger.Debug("path configuration already enabled", "path", a.PathConfig)
		return nil
	}

	info, err := os.Stat(a.PathConfig)
	if err != nil {
		return fmt.Errorf("inspecting path configuration %s: %w", a.PathConfig, err)
	}
	if err := os.WriteFile(a.PathConfig, []byte(patched), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing path configuration %s: %w", a.PathConfig, err)
	}

	a.Logger.Info("enabled site-packages discovery", "path", a.PathConfig)
	return nil
}

// EnsurePip returns the package-manager path, bootstrapping it first when
// the executable is absent. The bootstrap script is a transient download,
// removed on success and failure alike.
func (a *Activator) EnsurePip(ctx context.Context) (string, error) {
	if fileExists(a.PipPath) {
		a.Logger.Debug("pip already present", "path", a.PipPath)
		return a.PipPath, nil
	}

	a.Logger.Info("bootstrapping pip", "url", a.GetPipURL)

	fetcher := a.Fetcher
	if fetcher == nil {
		fetcher = pyruntime.NewFetcher()
	}

	scriptPath, err := fetcher.FetchToFile(ctx, a.GetPipURL, a.ToolRoot, "dashstrap-get-pip-*.py")
	if err != nil {
		return "", &PipBootstrapError{Cause: err}
	}
	defer func() { _ = os.Remove(scriptPath) }()

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, a.Interpreter, scriptPath)
	cmd.Dir = a.ToolRoot
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		return "", &PipBootstrapError{Cause: err, Output: tailLines(output.String(), 5)}
	}

	if !fileExists(a.PipPath) {
		return "", &PipBootstrapError{
			Cause:  fmt.Errorf("bootstrap script succeeded but %s is missing", a.PipPath),
			Output: tailLines(output.String(), 5),
		}
	}

	a.Logger.Info("pip bootstrapped", "path", a.PipPath)
	return a.PipPath, nil
}

// tailLines returns the last n non-empty lines of s, joined by "; ".
func tailLines(s string, n int) string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "; ")
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
