// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"dashstrap/internal/config"

	"github.com/spf13/cobra"
)

// configCmd is the `dashstrap config` command tree.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage dashstrap configuration",
	Long: `Manage dashstrap configuration.

Configuration is resolved from built-in defaults, an optional config.cue
next to the executable (or the --config file), DASHSTRAP_* environment
variables, and an optional dashboard.toml manifest in the tool root.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			showConfig(cmd, env)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfgFile != "" {
				cmd.Println(cfgFile)
				return nil
			}
			if toolRootFlag != "" {
				config.SetToolRootOverride(toolRootFlag)
			}
			root, err := config.ToolRoot()
			if err != nil {
				return err
			}
			cmd.Println(filepath.Join(root, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})
}

// showConfig prints the effective configuration after every layer has
// been applied, so it reflects exactly what a bootstrap run would use.
func showConfig(cmd *cobra.Command, env *environment) {
	cfg := env.cfg

	cmd.Println(TitleStyle.Render("Effective Configuration"))
	cmd.Println()

	rows := []struct{ key, value string }{
		{"tool root", env.root},
		{"runtime.version", cfg.Runtime.Version},
		{"runtime.archive_url", valueOrDefault(cfg.Runtime.ArchiveURL, "(derived from version and platform)")},
		{"runtime.dir_name", cfg.Runtime.DirName},
		{"runtime.sha256", valueOrDefault(cfg.Runtime.SHA256, "(not verified)")},
		{"runtime.strict_path_config", fmt.Sprintf("%t", cfg.Runtime.StrictPathConfig)},
		{"pip.get_pip_url", cfg.Pip.GetPipURL},
		{"pip.install_timeout", cfg.Pip.InstallTimeout.String()},
		{"install.packages", strings.Join(cfg.Install.Packages, ", ")},
		{"install.fail_fast", fmt.Sprintf("%t", cfg.Install.FailFast)},
		{"app.entry", cfg.App.Entry},
		{"app.args", valueOrDefault(strings.Join(cfg.App.Args, " "), "(none)")},
		{"ui.verbose", fmt.Sprintf("%t", cfg.UI.Verbose)},
	}

	for _, row := range rows {
		cmd.Printf("  %s %s\n", SubtitleStyle.Render(row.key+":"), ValueStyle.Render(row.value))
	}
}

func valueOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
