// SPDX-License-Identifier: MPL-2.0

package pip

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dashstrap/internal/config"

	"github.com/pelletier/go-toml/v2"
)

// ManifestFileName is the optional per-dashboard manifest that overrides
// the built-in dependency list and entry script. It lives next to the
// dashboard in the tool root.
const ManifestFileName = "dashboard.toml"

type (
	// Manifest is the dashboard.toml wire format. Zero-valued fields
	// leave the corresponding configuration untouched.
	Manifest struct {
		// Packages replaces the dependency list when non-empty.
		Packages []string `toml:"packages"`

		// Entry replaces the entry script when non-empty.
		Entry string `toml:"entry"`

		// Args replaces the extra launch arguments when non-empty.
		Args []string `toml:"args"`
	}
)

// LoadManifest reads dashboard.toml from dir. A missing file is not an
// error; it returns (nil, nil) and the built-in defaults stand.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFileName)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	return &m, nil
}

// ApplyTo overlays the manifest's set fields onto the configuration.
func (m *Manifest) ApplyTo(cfg *config.Config) {
	if m == nil {
		return
	}
	if len(m.Packages) > 0 {
		cfg.Install.Packages = m.Packages
	}
	if m.Entry != "" {
		cfg.App.Entry = m.Entry
	}
	if len(m.Args) > 0 {
		cfg.App.Args = m.Args
	}
}
