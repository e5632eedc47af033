// SPDX-License-Identifier: MPL-2.0

package pip

import (
	"os"
	"path/filepath"
	"testing"

	"dashstrap/internal/config"

	"github.com/stretchr/testify/require"
)

func TestLoadManifestMissingFile(t *testing.T) {
	m, err := LoadManifest(t.TempDir())
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestLoadManifestOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	manifest := `
packages = ["dash", "polars"]
entry = "custom_dashboard.py"
args = ["--port", "8051"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFileName), []byte(manifest), 0o644))

	m, err := LoadManifest(dir)
	require.NoError(t, err)
	require.NotNil(t, m)

	cfg := config.DefaultConfig()
	m.ApplyTo(cfg)

	require.Equal(t, []string{"dash", "polars"}, cfg.Install.Packages)
	require.Equal(t, "custom_dashboard.py", cfg.App.Entry)
	require.Equal(t, []string{"--port", "8051"}, cfg.App.Args)
}

func TestLoadManifestPartialOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, ManifestFileName),
		[]byte("entry = \"other.py\"\n"), 0o644))

	m, err := LoadManifest(dir)
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	m.ApplyTo(cfg)

	require.Equal(t, "other.py", cfg.App.Entry)
	require.Equal(t, config.DefaultPackages(), cfg.Install.Packages,
		"unset manifest fields leave defaults untouched")
}

func TestLoadManifestParseError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, ManifestFileName),
		[]byte("packages = [unclosed\n"), 0o644))

	_, err := LoadManifest(dir)
	require.ErrorContains(t, err, "parsing manifest")
}

func TestNilManifestApplyIsNoOp(t *testing.T) {
	cfg := config.DefaultConfig()
	var m *Manifest
	m.ApplyTo(cfg)
	require.Equal(t, config.DefaultPackages(), cfg.Install.Packages)
}
