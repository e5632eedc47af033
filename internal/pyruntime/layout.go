// SPDX-License-Identifier: MPL-2.0

package pyruntime

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

type (
	// Layout computes every path the bootstrapper touches inside the tool
	// root. It is pure: no filesystem access, so tests can assert paths
	// without provisioning anything.
	Layout struct {
		// ToolRoot is the directory the bootstrapper and its artifacts
		// live under.
		ToolRoot string

		// RuntimeDirName is the runtime subdirectory name.
		RuntimeDirName string

		// Version is the CPython release, e.g. "3.11.9". It determines
		// the path-configuration filename of the Windows embeddable
		// distribution (python311._pth for 3.11.x).
		Version string

		// GOOS overrides runtime.GOOS, for tests.
		GOOS string
	}
)

// NewLayout creates a Layout for the current platform.
func NewLayout(toolRoot, runtimeDirName, version string) Layout {
	return Layout{
		ToolRoot:       toolRoot,
		RuntimeDirName: runtimeDirName,
		Version:        version,
		GOOS:           runtime.GOOS,
	}
}

// RuntimeDir returns the runtime directory path.
func (l Layout) RuntimeDir() string {
	return filepath.Join(l.ToolRoot, l.RuntimeDirName)
}

// Interpreter returns the expected runtime executable path. Its existence
// is the provisioning signal.
func (l Layout) Interpreter() string {
	if l.GOOS == "windows" {
		// The embeddable distribution is flat: python.exe at the root.
		return filepath.Join(l.RuntimeDir(), "python.exe")
	}
	return filepath.Join(l.RuntimeDir(), "bin", "python3")
}

// Pip returns the expected package-manager executable path. Its existence
// is the pip-bootstrap signal.
func (l Layout) Pip() string {
	if l.GOOS == "windows" {
		return filepath.Join(l.RuntimeDir(), "Scripts", "pip.exe")
	}
	return filepath.Join(l.RuntimeDir(), "bin", "pip3")
}

// PathConfigFile returns the library search-path configuration file of
// the Windows embeddable distribution (e.g. python311._pth), or "" on
// platforms whose distributions have no such file. The filename embeds
// the major and minor version with no separator.
func (l Layout) PathConfigFile() string {
	if l.GOOS != "windows" {
		return ""
	}
	return filepath.Join(l.RuntimeDir(), fmt.Sprintf("python%s._pth", majorMinorCompact(l.Version)))
}

// DefaultDistributionURL composes the platform-default runtime archive
// URL for the given CPython version: the python.org embeddable zip on
// Windows, a python-build-standalone install_only tarball elsewhere.
func DefaultDistributionURL(version, goos, goarch string) string {
	if goos == "windows" {
		arch := "amd64"
		if goarch == "arm64" {
			arch = "arm64"
		}
		return fmt.Sprintf("https://www.python.org/ftp/python/%s/python-%s-embed-%s.zip",
			version, version, arch)
	}

	triple := "x86_64-unknown-linux-gnu"
	switch {
	case goos == "darwin" && goarch == "arm64":
		triple = "aarch64-apple-darwin"
	case goos == "darwin":
		triple = "x86_64-apple-darwin"
	case goarch == "arm64":
		triple = "aarch64-unknown-linux-gnu"
	}
	return fmt.Sprintf(
		"https://github.com/astral-sh/python-build-standalone/releases/download/20240814/cpython-%s+20240814-%s-install_only.tar.gz",
		version, triple)
}

// majorMinorCompact turns "3.11.9" into "311".
func majorMinorCompact(version string) string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return strings.ReplaceAll(version, ".", "")
	}
	return parts[0] + parts[1]
}
