// SPDX-License-Identifier: MPL-2.0

package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dashstrap/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

// maxConfigFileSize bounds the config file read (1 MB). A bootstrapper
// config larger than this is certainly a mistake.
const maxConfigFileSize = 1 << 20

//go:embed config_schema.cue
var configSchema string

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// ToolRoot overrides the executable-derived tool root when set.
	ToolRoot string
}

// ToolRoot returns the directory all provisioned artifacts live under.
// It is derived from the bootstrapper's own (symlink-resolved) location,
// so the runtime cache travels with the tool.
func ToolRoot() (string, error) {
	if toolRootOverride != "" {
		return toolRootOverride, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("determining executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", exe, err)
	}
	return filepath.Dir(resolved), nil
}

// Load resolves the configuration: defaults, then an optional config.cue
// in the tool root, then DASHSTRAP_* environment variables. The resolved
// Config is validated before it is returned.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("runtime.version", defaults.Runtime.Version)
	v.SetDefault("runtime.archive_url", defaults.Runtime.ArchiveURL)
	v.SetDefault("runtime.dir_name", defaults.Runtime.DirName)
	v.SetDefault("runtime.sha256", defaults.Runtime.SHA256)
	v.SetDefault("runtime.strict_path_config", defaults.Runtime.StrictPathConfig)
	v.SetDefault("pip.get_pip_url", defaults.Pip.GetPipURL)
	v.SetDefault("pip.install_timeout", defaults.Pip.InstallTimeout)
	v.SetDefault("install.packages", defaults.Install.Packages)
	v.SetDefault("install.fail_fast", defaults.Install.FailFast)
	v.SetDefault("app.entry", defaults.App.Entry)
	v.SetDefault("app.args", defaults.App.Args)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := resolveConfigPath(opts)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := loadCUEIntoViper(v, configPath); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(configPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Run 'dashstrap config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(configPath).
			WithSuggestion("Fix the offending value or remove it to use the default").
			Wrap(err).
			BuildError()
	}

	return &cfg, nil
}

// resolveConfigPath picks the config file to load: an explicit --config
// path (which must exist), otherwise config.cue in the tool root
// (optional), otherwise none.
func resolveConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	root := opts.ToolRoot
	if root == "" {
		var err error
		root, err = ToolRoot()
		if err != nil {
			return "", err
		}
	}

	path := filepath.Join(root, ConfigFileName+"."+ConfigFileExt)
	if fileExists(path) {
		return path, nil
	}
	return "", nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config
// schema, and merges its contents into Viper. Concrete(false) is used
// because every config field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return fmt.Errorf("invalid CUE in %s: %w", path, userValue.Err())
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return fmt.Errorf("config %s does not match schema: %w", path, err)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return fmt.Errorf("decoding config %s: %w", path, err)
	}

	return v.MergeConfigMap(configMap)
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
