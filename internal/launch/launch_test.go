// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeInterpreterStub writes an executable shell script that plays the
// role of the provisioned interpreter. It echoes a marker and exits with
// the code given as $2 when the script path matches $1.
func writeInterpreterStub(t *testing.T, dir string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("interpreter stubs use /bin/sh")
	}

	path := filepath.Join(dir, "python")
	script := "#!/bin/sh\necho \"running $1\"\nexit ${STUB_EXIT:-0}\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestRunPropagatesChildExitCode(t *testing.T) {
	dir := t.TempDir()
	interp := writeInterpreterStub(t, dir)

	for _, want := range []ExitCode{0, 1, 7, 42} {
		t.Setenv("STUB_EXIT", want.String())

		var out bytes.Buffer
		l := NewLauncher(interp, "app.py")
		l.Stdout = &out
		l.Stderr = &out

		code, err := l.Run(context.Background())
		require.NoError(t, err)
		require.Equal(t, want, code)
		require.Contains(t, out.String(), "running app.py")
	}
}

func TestRunMissingInterpreterReturnsLaunchError(t *testing.T) {
	l := NewLauncher(filepath.Join(t.TempDir(), "no-such-python"), "app.py")
	l.Stdout = &bytes.Buffer{}
	l.Stderr = &bytes.Buffer{}

	code, err := l.Run(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrLaunch))

	var launchErr *LaunchError
	require.True(t, errors.As(err, &launchErr))
	require.Equal(t, "app.py", launchErr.Script)
	require.Equal(t, ExitCode(1), code)
}

func TestRunHonorsWorkingDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("interpreter stubs use /bin/sh")
	}

	dir := t.TempDir()
	workDir := t.TempDir()

	path := filepath.Join(dir, "python")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\npwd\n"), 0o755))

	var out bytes.Buffer
	l := NewLauncher(path, "app.py")
	l.Dir = workDir
	l.Stdout = &out
	l.Stderr = &out

	code, err := l.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, ExitCode(0), code)

	// Resolve symlinks: on macOS t.TempDir lives under /private.
	resolved, err := filepath.EvalSymlinks(workDir)
	require.NoError(t, err)
	require.Contains(t, out.String(), resolved)
}

func TestChildExitCodeRejectsOutOfRange(t *testing.T) {
	for _, raw := range []int{-1, 256, 1000} {
		code, err := childExitCode("app.py", raw)
		require.Equal(t, ExitCode(1), code, "raw %d", raw)
		require.ErrorIs(t, err, ErrLaunch)

		var launchErr *LaunchError
		require.True(t, errors.As(err, &launchErr))
		require.ErrorIs(t, launchErr.Cause, ErrInvalidExitCode)
	}

	for _, raw := range []int{0, 7, 255} {
		code, err := childExitCode("app.py", raw)
		require.NoError(t, err)
		require.Equal(t, ExitCode(raw), code)
	}
}

func TestRunSignaledChildIsLaunchError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("interpreter stubs use /bin/sh")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "python")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nkill -KILL $$\n"), 0o755))

	l := NewLauncher(path, "app.py")
	l.Stdout = &bytes.Buffer{}
	l.Stderr = &bytes.Buffer{}

	code, err := l.Run(context.Background())
	require.ErrorIs(t, err, ErrLaunch)
	require.Equal(t, ExitCode(1), code)
}

func TestExitCodeValidation(t *testing.T) {
	tests := []struct {
		code  ExitCode
		valid bool
	}{
		{0, true},
		{1, true},
		{255, true},
		{-1, false},
		{256, false},
	}

	for _, tt := range tests {
		valid, errs := tt.code.IsValid()
		require.Equal(t, tt.valid, valid, "code %d", tt.code)
		if !tt.valid {
			require.Len(t, errs, 1)
			require.True(t, errors.Is(errs[0], ErrInvalidExitCode))
		}
	}

	require.True(t, ExitCode(0).IsSuccess())
	require.False(t, ExitCode(3).IsSuccess())
	require.Equal(t, "42", ExitCode(42).String())
}
