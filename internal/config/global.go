// SPDX-License-Identifier: MPL-2.0

package config

// toolRootOverride allows the --tool-root flag and tests to override the
// executable-derived tool root. Tests would otherwise provision into the
// directory the test binary runs from.
var toolRootOverride string

// SetToolRootOverride sets a custom tool root path.
func SetToolRootOverride(dir string) {
	toolRootOverride = dir
}

// Reset clears overrides. Call from test cleanup to restore defaults.
func Reset() {
	toolRootOverride = ""
}
