// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

// provisionCmd runs only the runtime and package-manager stages: it
// downloads the runtime if absent, enables site-packages discovery, and
// bootstraps pip. No packages are installed and nothing is launched.
var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision the runtime and pip without installing or launching",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		if err := runBootstrap(cmd.Context(), buildBootstrapper(env, stageProvision)); err != nil {
			return err
		}
		cmd.Println(SuccessStyle.Render("Runtime provisioned: ") + ValueStyle.Render(env.layout.Interpreter()))
		return nil
	},
}

// installCmd runs everything except the launch: provision, activate, and
// upgrade the configured packages in order.
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Provision and install dependencies without launching",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		return runBootstrap(cmd.Context(), buildBootstrapper(env, stageInstall))
	},
}
