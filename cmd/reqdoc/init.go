// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/reqdoc/reqdoc/internal/config"
	"github.com/reqdoc/reqdoc/internal/tree"
)

func newInitCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var noConfig bool

	c := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a document project",
		Long: `Create a document project in dir (default: the project directory).

The root order record is created when missing, together with a project
config file (` + config.ProjectFileName + `) holding the effective configuration.
Existing files are left alone.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				flags.projectDir = args[0]
			}
			return runInit(cmd, app, flags, noConfig)
		},
	}
	c.Flags().BoolVar(&noConfig, "no-config", false, "do not write the project config file")
	return c
}

func runInit(cmd *cobra.Command, app *App, flags *rootFlagValues, noConfig bool) error {
	dir, err := flags.dir()
	if err != nil {
		return err
	}
	cfg, logger, err := app.loadConfig(cmd.Context(), flags, dir)
	if err != nil {
		return err
	}

	project, err := tree.Init(dir, tree.Options{Fs: app.Fs, Names: cfg.Names, Logger: logger})
	if err != nil {
		return err
	}
	defer project.Close()
	done(app, "Project ready at %s", dir)

	if noConfig {
		return nil
	}
	path := filepath.Join(dir, config.ProjectFileName)
	exists, err := afero.Exists(app.Fs, path)
	if err != nil || exists {
		logger.Debug("project config left alone", "path", path, "err", err)
		return nil
	}
	if err := afero.WriteFile(app.Fs, path, []byte(config.GenerateCUE(cfg)), 0o644); err != nil {
		return &tree.IOError{Op: "write project config", Path: path, Err: err}
	}
	done(app, "Wrote %s", path)
	return nil
}
