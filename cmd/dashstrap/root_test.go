// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dashstrap/internal/config"
	"dashstrap/internal/issue"
	"dashstrap/internal/launch"

	"github.com/stretchr/testify/require"
)

// withToolRoot points the environment at a temp tool root and restores
// the package-level flag state afterwards.
func withToolRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	toolRootFlag = root
	t.Cleanup(func() {
		toolRootFlag = ""
		cfgFile = ""
		verbose = false
		config.Reset()
	})
	return root
}

func TestGetVersionString(t *testing.T) {
	require.Equal(t, "dev (built from source)", getVersionString())

	Version, Commit, BuildDate = "1.2.3", "abc1234", "2026-08-28"
	t.Cleanup(func() { Version, Commit, BuildDate = "dev", "unknown", "unknown" })
	require.Equal(t, "1.2.3 (commit: abc1234, built: 2026-08-28)", getVersionString())
}

func TestLoadEnvironmentDefaults(t *testing.T) {
	root := withToolRoot(t)

	env, err := loadEnvironment()

	require.NoError(t, err)
	require.Equal(t, root, env.root)
	require.Equal(t, "3.11.9", env.cfg.Runtime.Version)
	require.Equal(t, config.DefaultPackages(), env.cfg.Install.Packages)
	require.Equal(t, filepath.Join(root, "python-runtime"), env.layout.RuntimeDir())
	require.NotNil(t, env.logger)
}

func TestLoadEnvironmentConfigFile(t *testing.T) {
	root := withToolRoot(t)
	content := `runtime: version: "3.12.4"
install: packages: ["dash"]
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.cue"), []byte(content), 0o644))

	env, err := loadEnvironment()

	require.NoError(t, err)
	require.Equal(t, "3.12.4", env.cfg.Runtime.Version)
	require.Equal(t, []string{"dash"}, env.cfg.Install.Packages)
	// Untouched keys keep their defaults.
	require.Equal(t, 5*time.Minute, env.cfg.Pip.InstallTimeout)
}

func TestLoadEnvironmentManifestOverlay(t *testing.T) {
	root := withToolRoot(t)
	manifest := `packages = ["dash", "numpy"]
entry = "main_dashboard.py"
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "dashboard.toml"), []byte(manifest), 0o644))

	env, err := loadEnvironment()

	require.NoError(t, err)
	require.Equal(t, []string{"dash", "numpy"}, env.cfg.Install.Packages)
	require.Equal(t, "main_dashboard.py", env.cfg.App.Entry)
}

func TestLoadEnvironmentRejectsBadManifest(t *testing.T) {
	root := withToolRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "dashboard.toml"),
		[]byte("packages = [\"--find-links\"]\n"), 0o644))

	_, err := loadEnvironment()

	require.ErrorIs(t, err, config.ErrInvalidPackageName)
}

func TestLoadEnvironmentMissingExplicitConfig(t *testing.T) {
	root := withToolRoot(t)
	cfgFile = filepath.Join(root, "nope.cue")

	_, err := loadEnvironment()

	require.Error(t, err)
}

func TestBuildBootstrapperStageSets(t *testing.T) {
	withToolRoot(t)
	env, err := loadEnvironment()
	require.NoError(t, err)

	provision := buildBootstrapper(env, stageProvision)
	require.NotNil(t, provision.Runtime)
	require.NotNil(t, provision.Activator)
	require.Nil(t, provision.Installer)
	require.Nil(t, provision.Launcher)

	install := buildBootstrapper(env, stageInstall)
	require.NotNil(t, install.Installer)
	require.Nil(t, install.Launcher)

	full := buildBootstrapper(env, stageAll)
	require.NotNil(t, full.Installer)
	require.NotNil(t, full.Launcher)
}

func TestBuildBootstrapperResolvesEntryAgainstToolRoot(t *testing.T) {
	root := withToolRoot(t)
	env, err := loadEnvironment()
	require.NoError(t, err)

	full := buildBootstrapper(env, stageAll)

	launcher, ok := full.Launcher.(*launch.Launcher)
	require.True(t, ok)
	require.Equal(t, filepath.Join(root, "sync_measurement_analyzer.py"), launcher.Script)
	require.Equal(t, root, launcher.Dir)
}

func TestBuildBootstrapperKeepsAbsoluteEntry(t *testing.T) {
	withToolRoot(t)
	env, err := loadEnvironment()
	require.NoError(t, err)
	env.cfg.App.Entry = filepath.Join(string(filepath.Separator), "opt", "app", "dash.py")

	full := buildBootstrapper(env, stageAll)

	launcher, ok := full.Launcher.(*launch.Launcher)
	require.True(t, ok)
	require.Equal(t, env.cfg.App.Entry, launcher.Script)
}

func TestRenderActionable(t *testing.T) {
	ae := issue.NewErrorContext().
		WithOperation("provision runtime").
		WithResource("https://example.com/python.tar.gz").
		WithSuggestion("Check the network connection").
		Wrap(errors.New("unexpected status 503")).
		Build()
	require.NotNil(t, ae)

	t.Cleanup(func() { verbose = false })

	verbose = false
	require.Equal(t, ae.Format(false), renderActionable(ae))

	verbose = true
	card := renderActionable(ae)
	require.Contains(t, card, "provision runtime")
	require.Contains(t, card, "unexpected status 503")
	require.Contains(t, card, "Check the network connection")
	// The card is a distinct presentation, not the plain format.
	require.NotEqual(t, ae.Format(false), card)
}

func TestExitError(t *testing.T) {
	cause := errors.New("boom")
	withCause := &ExitError{Code: 1, Err: cause}
	require.Equal(t, "boom", withCause.Error())
	require.ErrorIs(t, withCause, cause)

	bare := &ExitError{Code: launch.ExitCode(7)}
	require.Equal(t, "exit status 7", bare.Error())
	require.NoError(t, bare.Unwrap())
}
