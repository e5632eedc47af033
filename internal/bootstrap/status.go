// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"errors"
	"fmt"
	"os"

	"dashstrap/internal/pip"
	"dashstrap/internal/pyruntime"
)

const (
	// PathConfigEnabled means site-packages discovery is on.
	PathConfigEnabled PathConfigState = "enabled"
	// PathConfigDisabled means the disabling marker is still present.
	PathConfigDisabled PathConfigState = "disabled"
	// PathConfigMissing means the expected file does not exist.
	PathConfigMissing PathConfigState = "missing"
	// PathConfigNotApplicable means the platform's distribution has no
	// path-configuration file.
	PathConfigNotApplicable PathConfigState = "not applicable"
)

type (
	// PathConfigState describes the library-discovery configuration.
	PathConfigState string

	// Status is a read-only snapshot of the tool root's provisioning
	// state. Inspect never mutates anything.
	Status struct {
		Interpreter    string
		RuntimePresent bool
		PipPresent     bool
		PathConfig     PathConfigState
	}
)

// Inspect reports the provisioning state for the given layout using the
// same existence signals the stages themselves use.
func Inspect(layout pyruntime.Layout) (*Status, error) {
	s := &Status{
		Interpreter:    layout.Interpreter(),
		RuntimePresent: fileExists(layout.Interpreter()),
		PipPresent:     fileExists(layout.Pip()),
	}

	pthPath := layout.PathConfigFile()
	switch {
	case pthPath == "":
		s.PathConfig = PathConfigNotApplicable
	default:
		data, err := os.ReadFile(pthPath)
		if errors.Is(err, os.ErrNotExist) {
			s.PathConfig = PathConfigMissing
		} else if err != nil {
			return nil, fmt.Errorf("reading path configuration %s: %w", pthPath, err)
		} else if pip.SiteEnabled(string(data)) {
			s.PathConfig = PathConfigEnabled
		} else {
			s.PathConfig = PathConfigDisabled
		}
	}

	return s, nil
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
