// SPDX-License-Identifier: MPL-2.0

package pip

import "strings"

// disabledSiteMarker is the line the embeddable distribution ships with;
// enabledSiteMarker is what it must become for site-packages discovery.
const (
	disabledSiteMarker = "#import site"
	enabledSiteMarker  = "import site"
)

// PatchPathConfig flips the commented "#import site" entry of a path
// configuration file to "import site", leaving every other line intact.
// The transform is idempotent: an already-enabled file comes back
// byte-identical with changed == false. Windows line endings are
// preserved.
func PatchPathConfig(text string) (patched string, changed bool) {
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		body, hadCR := strings.CutSuffix(line, "\r")
		if strings.TrimSpace(body) != disabledSiteMarker {
			continue
		}
		lines[i] = enabledSiteMarker
		if hadCR {
			lines[i] += "\r"
		}
		changed = true
	}

	return strings.Join(lines, "\n"), changed
}

// SiteEnabled reports whether the path configuration text already carries
// an uncommented "import site" entry.
func SiteEnabled(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		body, _ := strings.CutSuffix(line, "\r")
		if strings.TrimSpace(body) == enabledSiteMarker {
			return true
		}
	}
	return false
}
