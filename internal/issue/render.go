// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// render is a test seam over glamour.Render.
var render = glamour.Render

// RenderCard renders the error as a styled markdown card for verbose
// diagnostics. Falls back to the plain Format output when the terminal
// renderer cannot be constructed.
func RenderCard(e *ActionableError, style string) string {
	if e == nil {
		return ""
	}
	if style == "" {
		style = "auto"
	}

	var md strings.Builder
	fmt.Fprintf(&md, "# Bootstrap failed: %s\n\n", e.Operation)
	if e.Resource != "" {
		fmt.Fprintf(&md, "While working on `%s`.\n\n", e.Resource)
	}
	if e.Cause != nil {
		fmt.Fprintf(&md, "```\n%s\n```\n\n", e.Cause.Error())
	}
	if len(e.Suggestions) > 0 {
		md.WriteString("## Things to try\n")
		for _, s := range e.Suggestions {
			fmt.Fprintf(&md, "- %s\n", s)
		}
	}

	out, err := render(md.String(), style)
	if err != nil {
		return e.Format(true)
	}
	return out
}
