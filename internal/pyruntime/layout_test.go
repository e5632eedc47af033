// SPDX-License-Identifier: MPL-2.0

package pyruntime

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLayoutWindowsPaths(t *testing.T) {
	l := Layout{
		ToolRoot:       `C:\tools\dashboard`,
		RuntimeDirName: "python-runtime",
		Version:        "3.11.9",
		GOOS:           "windows",
	}

	rt := l.RuntimeDir()
	require.Equal(t, filepath.Join(`C:\tools\dashboard`, "python-runtime"), rt)
	require.Equal(t, filepath.Join(rt, "python.exe"), l.Interpreter())
	require.Equal(t, filepath.Join(rt, "Scripts", "pip.exe"), l.Pip())
	require.Equal(t, filepath.Join(rt, "python311._pth"), l.PathConfigFile())
}

func TestLayoutPosixPaths(t *testing.T) {
	l := Layout{
		ToolRoot:       "/opt/dashboard",
		RuntimeDirName: "python-runtime",
		Version:        "3.11.9",
		GOOS:           "linux",
	}

	rt := l.RuntimeDir()
	require.Equal(t, filepath.Join(rt, "bin", "python3"), l.Interpreter())
	require.Equal(t, filepath.Join(rt, "bin", "pip3"), l.Pip())

	// POSIX distributions have no _pth file; the activator treats "" as
	// "nothing to patch on this platform".
	require.Empty(t, l.PathConfigFile())
}

func TestPathConfigFilenameTracksVersion(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"3.11.9", "python311._pth"},
		{"3.9.13", "python39._pth"},
		{"3.12.4", "python312._pth"},
	}

	for _, tt := range tests {
		l := Layout{ToolRoot: "/root", RuntimeDirName: "rt", Version: tt.version, GOOS: "windows"}
		require.Equal(t, tt.want, filepath.Base(l.PathConfigFile()), "version %s", tt.version)
	}
}

func TestDefaultDistributionURL(t *testing.T) {
	winURL := DefaultDistributionURL("3.11.9", "windows", "amd64")
	require.Equal(t,
		"https://www.python.org/ftp/python/3.11.9/python-3.11.9-embed-amd64.zip", winURL)

	linuxURL := DefaultDistributionURL("3.11.9", "linux", "amd64")
	require.Contains(t, linuxURL, "x86_64-unknown-linux-gnu")
	require.Contains(t, linuxURL, "cpython-3.11.9+")
	require.Contains(t, linuxURL, "install_only.tar.gz")

	macURL := DefaultDistributionURL("3.11.9", "darwin", "arm64")
	require.Contains(t, macURL, "aarch64-apple-darwin")
}
