// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	// AppName is the application name.
	AppName = "dashstrap"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"

	// EnvPrefix is the prefix for environment variable overrides
	// (e.g. DASHSTRAP_RUNTIME_ARCHIVE_URL).
	EnvPrefix = "DASHSTRAP"

	// minSupportedRuntime is the oldest CPython release the dashboard
	// dependency set still installs on.
	minSupportedRuntime = "v3.9.0"
)

var (
	// ErrInvalidArchiveURL is the sentinel error wrapped by InvalidArchiveURLError.
	ErrInvalidArchiveURL = errors.New("invalid archive URL")
	// ErrInvalidRuntimeVersion is the sentinel error wrapped by InvalidRuntimeVersionError.
	ErrInvalidRuntimeVersion = errors.New("invalid runtime version")
	// ErrInvalidPackageName is the sentinel error wrapped by InvalidPackageNameError.
	ErrInvalidPackageName = errors.New("invalid package name")
	// ErrInvalidEntryScript is returned when the entry script value is whitespace-only.
	ErrInvalidEntryScript = errors.New("invalid entry script")
	// ErrInvalidInstallTimeout is returned when the per-package install timeout is negative.
	ErrInvalidInstallTimeout = errors.New("invalid install timeout")
)

type (
	// RuntimeConfig describes the private Python runtime to provision.
	RuntimeConfig struct {
		// Version is the CPython release the default archive URL is
		// composed from, e.g. "3.11.9".
		Version string `json:"version" mapstructure:"version"`

		// ArchiveURL overrides the platform-default distribution URL.
		// Empty means "compose from Version for the current platform".
		ArchiveURL string `json:"archive_url" mapstructure:"archive_url"`

		// DirName is the runtime directory name under the tool root.
		DirName string `json:"dir_name" mapstructure:"dir_name"`

		// SHA256 is an optional hex digest for the distribution archive.
		// Empty (the default) skips verification, matching the reference
		// trust-the-filesystem behavior.
		SHA256 string `json:"sha256" mapstructure:"sha256"`

		// StrictPathConfig promotes a missing path-configuration file
		// from a loud warning to a fatal error.
		StrictPathConfig bool `json:"strict_path_config" mapstructure:"strict_path_config"`
	}

	// PipConfig describes how the package manager is bootstrapped and driven.
	PipConfig struct {
		// GetPipURL is the pip bootstrap script location.
		GetPipURL string `json:"get_pip_url" mapstructure:"get_pip_url"`

		// InstallTimeout bounds each single package install. Zero
		// disables the bound.
		InstallTimeout time.Duration `json:"install_timeout" mapstructure:"install_timeout"`
	}

	// InstallConfig holds the dependency list and its failure policy.
	InstallConfig struct {
		// Packages are installed in order, one pip invocation each.
		Packages []string `json:"packages" mapstructure:"packages"`

		// FailFast aborts the loop on the first failed install instead
		// of collecting failures into a report.
		FailFast bool `json:"fail_fast" mapstructure:"fail_fast"`
	}

	// AppConfig identifies the target application to launch.
	AppConfig struct {
		// Entry is the dashboard entry script, relative to the tool root.
		Entry string `json:"entry" mapstructure:"entry"`

		// Args are extra arguments passed after the script path.
		Args []string `json:"args" mapstructure:"args"`
	}

	// UIConfig holds user interface preferences.
	UIConfig struct {
		// Verbose enables debug-level progress logging.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// Config is the root configuration for the bootstrapper.
	Config struct {
		Runtime RuntimeConfig `json:"runtime" mapstructure:"runtime"`
		Pip     PipConfig     `json:"pip" mapstructure:"pip"`
		Install InstallConfig `json:"install" mapstructure:"install"`
		App     AppConfig     `json:"app" mapstructure:"app"`
		UI      UIConfig      `json:"ui" mapstructure:"ui"`
	}

	// InvalidArchiveURLError is returned when a configured URL is not an
	// absolute http(s) URL. It wraps ErrInvalidArchiveURL for errors.Is.
	InvalidArchiveURLError struct {
		Field string
		Value string
	}

	// InvalidRuntimeVersionError is returned when the runtime version is
	// not well-formed or is older than the minimum supported release.
	// It wraps ErrInvalidRuntimeVersion for errors.Is.
	InvalidRuntimeVersionError struct {
		Value  string
		Reason string
	}

	// InvalidPackageNameError is returned when a dependency list entry
	// cannot be passed to pip safely. It wraps ErrInvalidPackageName.
	InvalidPackageNameError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidArchiveURLError) Error() string {
	return fmt.Sprintf("invalid archive URL for %s: %q (must be absolute http or https)", e.Field, e.Value)
}

// Unwrap returns ErrInvalidArchiveURL so callers can use errors.Is.
func (e *InvalidArchiveURLError) Unwrap() error { return ErrInvalidArchiveURL }

// Error implements the error interface.
func (e *InvalidRuntimeVersionError) Error() string {
	return fmt.Sprintf("invalid runtime version %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidRuntimeVersion so callers can use errors.Is.
func (e *InvalidRuntimeVersionError) Unwrap() error { return ErrInvalidRuntimeVersion }

// Error implements the error interface.
func (e *InvalidPackageNameError) Error() string {
	return fmt.Sprintf("invalid package name %q", e.Value)
}

// Unwrap returns ErrInvalidPackageName so callers can use errors.Is.
func (e *InvalidPackageNameError) Unwrap() error { return ErrInvalidPackageName }

// DefaultPackages is the dashboard dependency set, in install order. The
// order matters: dash extensions expect the core dash package to be
// resolved first so pip reuses the already-downloaded wheels.
func DefaultPackages() []string {
	return []string{
		"dash",
		"dash-bootstrap-components",
		"pandas",
		"plotly",
		"dash-extensions",
		"numpy",
		"dash-ag-grid",
	}
}

// DefaultConfig returns a Config with the built-in defaults the
// dashboard deployment expects.
func DefaultConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			Version:          "3.11.9",
			ArchiveURL:       "", // composed from Version per platform
			DirName:          "python-runtime",
			SHA256:           "",
			StrictPathConfig: false,
		},
		Pip: PipConfig{
			GetPipURL:      "https://bootstrap.pypa.io/get-pip.py",
			InstallTimeout: 5 * time.Minute,
		},
		Install: InstallConfig{
			Packages: DefaultPackages(),
			FailFast: false,
		},
		App: AppConfig{
			Entry: "sync_measurement_analyzer.py",
			Args:  []string{},
		},
		UI: UIConfig{
			Verbose: false,
		},
	}
}

// Validate checks constraints the CUE schema cannot express and returns
// the first violation found.
func (c *Config) Validate() error {
	if err := validateVersion(c.Runtime.Version); err != nil {
		return err
	}
	if c.Runtime.ArchiveURL != "" {
		if err := validateHTTPURL("runtime.archive_url", c.Runtime.ArchiveURL); err != nil {
			return err
		}
	}
	if err := validateHTTPURL("pip.get_pip_url", c.Pip.GetPipURL); err != nil {
		return err
	}
	if c.Pip.InstallTimeout < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInstallTimeout, c.Pip.InstallTimeout)
	}
	for _, pkg := range c.Install.Packages {
		if err := validatePackageName(pkg); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.App.Entry) == "" {
		return fmt.Errorf("%w: entry script must not be empty", ErrInvalidEntryScript)
	}
	return nil
}

// validateVersion checks that the version is a well-formed CPython
// release number at or above the minimum supported release.
func validateVersion(v string) error {
	norm := "v" + strings.TrimPrefix(v, "v")
	if !semver.IsValid(norm) {
		return &InvalidRuntimeVersionError{Value: v, Reason: "not a valid version number"}
	}
	if semver.Compare(norm, minSupportedRuntime) < 0 {
		return &InvalidRuntimeVersionError{
			Value:  v,
			Reason: fmt.Sprintf("older than minimum supported %s", strings.TrimPrefix(minSupportedRuntime, "v")),
		}
	}
	return nil
}

// validateHTTPURL checks that the value is an absolute http(s) URL.
func validateHTTPURL(field, value string) error {
	u, err := url.Parse(value)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &InvalidArchiveURLError{Field: field, Value: value}
	}
	return nil
}

// validatePackageName rejects names pip would misinterpret: empty values,
// embedded whitespace, and leading dashes (which pip parses as flags).
func validatePackageName(name string) error {
	if strings.TrimSpace(name) == "" ||
		strings.ContainsAny(name, " \t\n") ||
		strings.HasPrefix(name, "-") {
		return &InvalidPackageNameError{Value: name}
	}
	return nil
}
