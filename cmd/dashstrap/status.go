// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"dashstrap/internal/bootstrap"

	"github.com/spf13/cobra"
)

// statusCmd inspects the tool root without provisioning anything.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is already provisioned in the tool root",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}

		status, err := bootstrap.Inspect(env.layout)
		if err != nil {
			return err
		}

		cmd.Println(TitleStyle.Render("dashstrap status"))
		cmd.Println()
		cmd.Println(statusLine("Tool root", env.root, true))
		cmd.Println(statusLine("Runtime", runtimeSummary(status), status.RuntimePresent))
		cmd.Println(statusLine("Pip", presentLabel(status.PipPresent), status.PipPresent))
		cmd.Println(statusLine("Path config", string(status.PathConfig),
			status.PathConfig == bootstrap.PathConfigEnabled || status.PathConfig == bootstrap.PathConfigNotApplicable))
		cmd.Println(statusLine("Packages", fmt.Sprintf("%d configured", len(env.cfg.Install.Packages)), true))
		cmd.Println(statusLine("Entry", env.cfg.App.Entry, true))
		return nil
	},
}

// statusLine renders one aligned "key: value" row, coloring the value by
// whether the state is considered healthy.
func statusLine(key, value string, ok bool) string {
	style := SuccessStyle
	if !ok {
		style = WarningStyle
	}
	padded := key + ":" + strings.Repeat(" ", 13-len(key))
	return SubtitleStyle.Render(padded) + style.Render(value)
}

func runtimeSummary(s *bootstrap.Status) string {
	if s.RuntimePresent {
		return "provisioned (" + s.Interpreter + ")"
	}
	return "not provisioned"
}

func presentLabel(present bool) string {
	if present {
		return "present"
	}
	return "absent"
}
