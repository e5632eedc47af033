// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for dashstrap.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dashstrap/internal/bootstrap"
	"dashstrap/internal/config"
	"dashstrap/internal/issue"
	"dashstrap/internal/launch"
	"dashstrap/internal/pip"
	"dashstrap/internal/pyruntime"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug-level progress output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// toolRootFlag overrides the executable-derived tool root
	toolRootFlag string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "dashstrap [-- app args...]",
		Short: "Self-contained runtime bootstrapper for the measurement dashboard",
		Long: TitleStyle.Render("dashstrap") + SubtitleStyle.Render(" - portable dashboard bootstrapper") + `

dashstrap turns a bare directory into a running dashboard: it provisions
a private Python runtime next to its own executable, enables the
runtime's site-packages discovery, bootstraps pip, upgrades the
dashboard's dependencies, and finally launches the application with the
terminal attached. Every step is skipped when its artifact is already in
place, so repeat runs go straight to launch.

` + SubtitleStyle.Render("Examples:") + `
  dashstrap                 Provision, install, and launch the dashboard
  dashstrap provision       Provision the runtime and pip, nothing else
  dashstrap install         Provision and install dependencies, no launch
  dashstrap status          Inspect what is already provisioned
  dashstrap config show     Show the effective configuration

Arguments after ` + "`--`" + ` are passed through to the dashboard script.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			b := buildBootstrapper(env, stageAll)
			if launcher, ok := b.Launcher.(*launch.Launcher); ok {
				launcher.Args = append(launcher.Args, args...)
			}
			return runBootstrap(cmd.Context(), b)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.cue next to the executable)")
	rootCmd.PersistentFlags().StringVar(&toolRootFlag, "tool-root", "", "directory for the runtime and its artifacts (default is the executable's directory)")

	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// environment bundles the resolved configuration with the paths and
// logger every command needs.
type environment struct {
	cfg    *config.Config
	root   string
	layout pyruntime.Layout
	logger *log.Logger
}

// loadEnvironment resolves the tool root, loads the configuration (file,
// environment, then an optional dashboard.toml manifest overlay), and
// prepares the logger and layout.
func loadEnvironment() (*environment, error) {
	if toolRootFlag != "" {
		config.SetToolRootOverride(toolRootFlag)
	}
	root, err := config.ToolRoot()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(config.LoadOptions{ConfigFilePath: cfgFile, ToolRoot: root})
	if err != nil {
		return nil, err
	}

	manifest, err := pip.LoadManifest(root)
	if err != nil {
		return nil, err
	}
	if manifest != nil {
		manifest.ApplyTo(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("validate configuration").
				WithResource(filepath.Join(root, pip.ManifestFileName)).
				WithSuggestion("Fix the offending value in the manifest or remove it to use the default").
				Wrap(err).
				BuildError()
		}
	}

	if cfg.UI.Verbose {
		verbose = true
	}

	return &environment{
		cfg:    cfg,
		root:   root,
		layout: pyruntime.NewLayout(root, cfg.Runtime.DirName, cfg.Runtime.Version),
		logger: newLogger(verbose),
	}, nil
}

// newLogger builds the stderr progress logger. Stdout stays reserved for
// the launched application and for command output like `status`.
func newLogger(debug bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "dashstrap",
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// stageSet selects which optional stages a command wires up. Provisioning
// and activation always run.
type stageSet int

const (
	stageProvision stageSet = iota // runtime + path config + pip only
	stageInstall                   // plus the dependency install loop
	stageAll                       // plus the application launch
)

// buildBootstrapper assembles the stage pipeline from the environment.
func buildBootstrapper(env *environment, stages stageSet) *bootstrap.Bootstrapper {
	cfg := env.cfg

	var provOpts []pyruntime.ProvisionerOption
	if cfg.Runtime.SHA256 != "" {
		provOpts = append(provOpts, pyruntime.WithArchiveSHA256(cfg.Runtime.SHA256))
	}

	b := &bootstrap.Bootstrapper{
		Runtime: pyruntime.NewProvisioner(env.layout, cfg.Runtime.ArchiveURL, env.logger, provOpts...),
		Activator: &pip.Activator{
			PathConfig:  env.layout.PathConfigFile(),
			Interpreter: env.layout.Interpreter(),
			PipPath:     env.layout.Pip(),
			GetPipURL:   cfg.Pip.GetPipURL,
			ToolRoot:    env.root,
			Strict:      cfg.Runtime.StrictPathConfig,
			Logger:      env.logger,
		},
		Logger: env.logger,
	}

	if stages >= stageInstall {
		b.Installer = &pip.Installer{
			Interpreter: env.layout.Interpreter(),
			Packages:    cfg.Install.Packages,
			Timeout:     cfg.Pip.InstallTimeout,
			FailFast:    cfg.Install.FailFast,
			Logger:      env.logger,
		}
	}

	if stages >= stageAll {
		entry := cfg.App.Entry
		if !filepath.IsAbs(entry) {
			entry = filepath.Join(env.root, entry)
		}
		launcher := launch.NewLauncher(env.layout.Interpreter(), entry)
		launcher.Args = append(launcher.Args, cfg.App.Args...)
		launcher.Dir = env.root
		b.Launcher = launcher
	}

	return b
}

// runBootstrap drives the pipeline and maps its outcome onto the
// process exit code. A clean child exit with a non-zero status becomes
// an ExitError carrying that status verbatim.
func runBootstrap(ctx context.Context, b *bootstrap.Bootstrapper) error {
	code, err := b.Run(ctx)
	if err != nil {
		// Actionable errors carry suggestions; print the full diagnostic
		// here since the outer handler only shows the one-line message.
		var ae *issue.ActionableError
		if errors.As(err, &ae) {
			fmt.Fprintln(os.Stderr, renderActionable(ae))
		}
		return &ExitError{Code: code, Err: err}
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// renderActionable picks the diagnostic presentation: the rendered
// markdown card in verbose mode, the plain message with suggestions
// otherwise. The card renderer falls back to the plain form itself when
// no terminal renderer can be constructed.
func renderActionable(ae *issue.ActionableError) string {
	if verbose {
		return issue.RenderCard(ae, "auto")
	}
	return ae.Format(false)
}
