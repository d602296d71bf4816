// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/reqdoc/reqdoc/internal/config"
	"github.com/reqdoc/reqdoc/internal/issue"
	"github.com/reqdoc/reqdoc/internal/schema"
	"github.com/reqdoc/reqdoc/internal/tree"
	"github.com/reqdoc/reqdoc/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives an App and opens the project through it.
	App struct {
		Config config.Provider
		Fs     afero.Fs
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Fs     afero.Fs
		Stdout io.Writer
		Stderr io.Writer
	}

	// rootFlagValues holds the persistent flags shared by every command.
	rootFlagValues struct {
		verbose    bool
		configPath string
		projectDir string
	}

	// session is an open project with the configuration it was opened with.
	session struct {
		dir     string
		cfg     *config.Config
		schema  *schema.Registry
		project *tree.Project
		logger  *log.Logger
	}
)

// NewApp builds an App, filling unset dependencies with defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		Fs:     deps.Fs,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Fs == nil {
		app.Fs = afero.NewOsFs()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// dir resolves the --project flag against the working directory.
func (f *rootFlagValues) dir() (string, error) {
	dir := f.projectDir
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve project directory: %w", err)
	}
	return abs, nil
}

// loadConfig loads the configuration that applies to dir and builds the
// logger it asks for.
func (app *App) loadConfig(ctx context.Context, flags *rootFlagValues, dir string) (*config.Config, *log.Logger, error) {
	cfg, err := app.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: types.FilesystemPath(flags.configPath),
		ProjectDir:     types.FilesystemPath(dir),
		Fs:             app.Fs,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, newLogger(app.stderr, cfg.LogLevel, flags.verbose), nil
}

func newLogger(w io.Writer, level config.LogLevel, verbose bool) *log.Logger {
	lvl := level.Level()
	if verbose {
		lvl = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "reqdoc",
		Level:  lvl,
	})
}

// newSchemaRegistry combines the configured forms with the project's form
// schema files. Invalid schema files are skipped; the error reports them.
func newSchemaRegistry(fsys afero.Fs, dir string, cfg *config.Config, logger *log.Logger) (*schema.Registry, error) {
	base := make([]schema.Form, 0, len(cfg.Forms))
	for _, f := range cfg.Forms {
		base = append(base, schema.Form{Extension: f.Extension, Kind: f.Kind, Title: f.Title, Source: "config"})
	}
	reg, err := schema.NewRegistry(base, schema.WithLogger(logger))
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load form schema").
			WithIssue(issue.SchemaLoadFailedId).
			WithResource("forms").
			Wrap(err).
			BuildError()
	}
	names := cfg.Names.WithDefaults()
	schemaDir := filepath.Join(dir, names.SchemaFolder)
	if err := reg.Load(fsys, schemaDir); err != nil {
		return reg, issue.NewErrorContext().
			WithOperation("load form schema").
			WithIssue(issue.SchemaLoadFailedId).
			WithResource(schemaDir).
			WithSuggestion("Fix or remove the reported schema files").
			Wrap(err).
			BuildError()
	}
	return reg, nil
}

// open loads configuration and schema for the project directory and opens
// it. A directory without a root order record is not a project.
func (app *App) open(ctx context.Context, flags *rootFlagValues) (*session, error) {
	dir, err := flags.dir()
	if err != nil {
		return nil, err
	}
	cfg, logger, err := app.loadConfig(ctx, flags, dir)
	if err != nil {
		return nil, err
	}

	names := cfg.Names.WithDefaults()
	record := filepath.Join(dir, names.OrderFile)
	if ok, statErr := afero.Exists(app.Fs, record); statErr != nil || !ok {
		return nil, issue.NewErrorContext().
			WithOperation("open project").
			WithIssue(issue.ProjectNotFoundId).
			WithResource(dir).
			WithSuggestion("Run 'reqdoc init' to create a project here").
			WithSuggestion("Pass --project to point at an existing project").
			Wrap(errors.Join(tree.ErrNotFound, statErr)).
			BuildError()
	}

	reg, err := newSchemaRegistry(app.Fs, dir, cfg, logger)
	if err != nil {
		if reg == nil {
			return nil, err
		}
		logger.Warn("some form schema files were skipped", "err", err)
	}

	project, err := tree.Open(dir, tree.Options{
		Fs:     app.Fs,
		Names:  cfg.Names,
		Schema: reg,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	return &session{dir: dir, cfg: cfg, schema: reg, project: project, logger: logger}, nil
}

// Close releases the project.
func (s *session) Close() error {
	return s.project.Close()
}

// find resolves a document path, wrapping lookup failures with guidance.
// numberLabel loads the whole tree, runs a numbering pass and returns the
// number of n followed by a space, or "" when n carries none. A tree that
// fails to load is logged; the mutation before it already succeeded.
func (s *session) numberLabel(n *tree.Node) string {
	if err := s.project.LoadTree(); err != nil {
		s.logger.Warn("tree not renumbered", "err", err)
		return ""
	}
	s.project.Renumber()
	if num := n.Number(); num != "" {
		return numberStyle.Render(num) + " "
	}
	return ""
}

func (s *session) find(path string) (*tree.Node, error) {
	n, err := s.project.Find(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("find").
			WithResource(path).
			WithSuggestion("Run 'reqdoc tree' to list the document paths").
			Wrap(err).
			BuildError()
	}
	return n, nil
}

// container resolves path and loads it as a container.
func (s *session) container(path string) (*tree.Node, error) {
	n, err := s.find(path)
	if err != nil {
		return nil, err
	}
	if err := n.Load(); err != nil {
		return nil, err
	}
	return n, nil
}
