// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/reqdoc/reqdoc/internal/classify"
	"github.com/reqdoc/reqdoc/internal/issue"
	"github.com/reqdoc/reqdoc/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "reqdoc"
	// ConfigFileName is the name of the user config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// ProjectFileName is the project config file in the project root. The
	// leading dot keeps it out of the document tree.
	ProjectFileName = ".reqdoc.cue"
	// EnvPrefix prefixes environment overrides (REQDOC_LOG_LEVEL).
	EnvPrefix = "REQDOC"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the reqdoc configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	v := newViper()

	var sources []string
	if opts.ConfigFilePath.IsSet() {
		// an explicit --config file replaces the user and project files
		path := opts.ConfigFilePath.String()
		if !fileExists(fsys, path) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithIssue(issue.ConfigLoadFailedId).
				WithResource(path).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'reqdoc config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", path)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, fsys, path); err != nil {
			return nil, loadError(path, err)
		}
		sources = append(sources, path)
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath.String())
		if err != nil {
			return nil, err
		}
		candidates := []string{filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)}
		if opts.ProjectDir.IsSet() {
			candidates = append(candidates, filepath.Join(opts.ProjectDir.String(), ProjectFileName))
		}
		for _, path := range candidates {
			if !fileExists(fsys, path) {
				continue
			}
			if err := loadCUEIntoViper(v, fsys, path); err != nil {
				return nil, loadError(path, err)
			}
			sources = append(sources, path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Sources = sources

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithResource(strings.Join(sources, ", ")).
			WithSuggestion("Give every form a distinct extension").
			WithSuggestion("Use distinct file names for the order record, markers and singleton folders").
			Wrap(err).
			BuildError()
	}
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("log_level", string(defaults.LogLevel))
	for _, f := range NameFields(defaults.Names) {
		v.SetDefault("names."+f.Key, f.Value)
	}
	v.SetDefault("forms", []map[string]any{})
	v.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMS)
	v.SetDefault("watch.ignore", []string{})
	return v
}

func loadError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithIssue(issue.ConfigLoadFailedId).
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("See 'reqdoc config show' for a complete, valid configuration").
		Wrap(err).
		BuildError()
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper validates a CUE file against #Config and merges its
// contents into Viper. Fields stay optional (Concrete(false)) so unset values
// fall through to the defaults.
func loadCUEIntoViper(v *viper.Viper, fsys afero.Fs, path string) error {
	res, err := cueutil.ParseFile[map[string]any](fsys, path, configSchema, "#Config", cueutil.WithConcrete(false))
	if err != nil {
		return err
	}
	if err := v.MergeConfigMap(*res.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(fsys afero.Fs, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && !info.IsDir()
}

// NameField is one marker name with its configuration key.
type NameField struct {
	Key, Value string
}

// NameFields lists the marker names in schema order.
func NameFields(n classify.Names) []NameField {
	return []NameField{
		{"order_file", n.OrderFile},
		{"reserved_marker", n.ReservedMarker},
		{"appendix_marker", n.AppendixMarker},
		{"folder_comment", n.FolderComment},
		{"comment_suffix", n.CommentSuffix},
		{"description_suffix", n.DescriptionSuffix},
		{"export_suffix", n.ExportSuffix},
		{"reserved_unit_ext", n.ReservedUnitExt},
		{"variables_folder", n.VariablesFolder},
		{"reports_folder", n.ReportsFolder},
		{"glossary_folder", n.GlossaryFolder},
		{"schema_folder", n.SchemaFolder},
		{"glossary_file", n.GlossaryFile},
		{"variables_file", n.VariablesFile},
		{"toc_ref_file", n.TocRefFile},
		{"changelog_ref_file", n.ChangelogRefFile},
		{"glossary_ref_file", n.GlossaryRefFile},
	}
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// reqdoc configuration\n")
	for _, src := range cfg.Sources {
		fmt.Fprintf(&sb, "// merged from %s\n", src)
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "log_level: %q\n", cfg.LogLevel)

	sb.WriteString("\nnames: {\n")
	for _, f := range NameFields(cfg.Names) {
		fmt.Fprintf(&sb, "\t%s: %q\n", f.Key, f.Value)
	}
	sb.WriteString("}\n")

	if len(cfg.Forms) > 0 {
		sb.WriteString("\nforms: [\n")
		for _, f := range cfg.Forms {
			if f.Title != "" {
				fmt.Fprintf(&sb, "\t{extension: %q, kind: %q, title: %q},\n", f.Extension, f.Kind, f.Title)
			} else {
				fmt.Fprintf(&sb, "\t{extension: %q, kind: %q},\n", f.Extension, f.Kind)
			}
		}
		sb.WriteString("]\n")
	}

	sb.WriteString("\nwatch: {\n")
	fmt.Fprintf(&sb, "\tdebounce_ms: %d\n", cfg.Watch.DebounceMS)
	if len(cfg.Watch.Ignore) > 0 {
		quoted := make([]string, len(cfg.Watch.Ignore))
		for i, p := range cfg.Watch.Ignore {
			quoted[i] = fmt.Sprintf("%q", p)
		}
		fmt.Fprintf(&sb, "\tignore: [%s]\n", strings.Join(quoted, ", "))
	}
	sb.WriteString("}\n")

	return sb.String()
}
