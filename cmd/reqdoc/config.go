// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reqdoc/reqdoc/internal/config"
	"github.com/reqdoc/reqdoc/internal/schema"
)

// newConfigCommand creates the `reqdoc config` command tree.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the reqdoc configuration",
		Long: `Inspect the reqdoc configuration.

Configuration is merged from the user file and the project file:
  - Linux: ~/.config/reqdoc/config.cue
  - macOS: ~/Library/Application Support/reqdoc/config.cue
  - Windows: %APPDATA%\reqdoc\config.cue
  - project: ` + config.ProjectFileName + ` in the project directory`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := flags.dir()
			if err != nil {
				return err
			}
			cfg, _, err := app.loadConfig(cmd.Context(), flags, dir)
			if err != nil {
				return err
			}
			showConfig(app.stdout, cfg)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := flags.dir()
			if err != nil {
				return err
			}
			cfg, _, err := app.loadConfig(cmd.Context(), flags, dir)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "forms",
		Short: "List the registered form types and check the schema files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := flags.dir()
			if err != nil {
				return err
			}
			cfg, logger, err := app.loadConfig(cmd.Context(), flags, dir)
			if err != nil {
				return err
			}
			reg, err := newSchemaRegistry(app.Fs, dir, cfg, logger)
			if reg != nil {
				showForms(app.stdout, dir, reg.Forms())
			}
			return err
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	if len(cfg.Sources) == 0 {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config files"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(w, "%s:\n", keyStyle.Render("Config files"))
		for _, src := range cfg.Sources {
			fmt.Fprintf(w, "  - %s\n", src)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("log_level"), valueStyle.Render(string(cfg.LogLevel)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("names"))
	for _, f := range config.NameFields(cfg.Names.WithDefaults()) {
		fmt.Fprintf(w, "  %s: %s\n", f.Key, valueStyle.Render(f.Value))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("forms"))
	if len(cfg.Forms) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(none configured)"))
	}
	for _, f := range cfg.Forms {
		line := fmt.Sprintf("  - %s -> %s", valueStyle.Render(f.Extension), valueStyle.Render(f.Kind))
		if f.Title != "" {
			line += " " + SubtitleStyle.Render("("+f.Title+")")
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("watch"))
	fmt.Fprintf(w, "  debounce_ms: %s\n", valueStyle.Render(fmt.Sprint(cfg.Watch.DebounceMS)))
	if len(cfg.Watch.Ignore) > 0 {
		fmt.Fprintf(w, "  ignore: %s\n", valueStyle.Render(strings.Join(cfg.Watch.Ignore, ", ")))
	}
}

func showForms(w io.Writer, dir string, forms []schema.Form) {
	if len(forms) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("(no form types registered)"))
		return
	}
	for _, f := range forms {
		src := f.Source
		if rel, err := filepath.Rel(dir, src); err == nil && !strings.HasPrefix(rel, "..") {
			src = rel
		}
		line := fmt.Sprintf("%-10s %s", numberStyle.Render(f.Extension), f.Kind)
		if f.Title != "" {
			line += " " + SubtitleStyle.Render("\""+f.Title+"\"")
		}
		fmt.Fprintln(w, line+" "+SubtitleStyle.Render("["+src+"]"))
	}
}
