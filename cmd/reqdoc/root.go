// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/reqdoc/reqdoc/internal/tree"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// NewRootCommand builds the reqdoc command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	root := &cobra.Command{
		Use:   "reqdoc",
		Short: "Manage structured requirement documents on disk",
		Long: TitleStyle.Render("reqdoc") + SubtitleStyle.Render(" - structured documents as plain folders") + `

reqdoc keeps a document tree of folders, appendices, include overlays and
units in ordinary directories. Each container records the order of its
children in an order record; numbers for chapters, tables, images and forms
are derived from that order.

` + SubtitleStyle.Render("Examples:") + `
  reqdoc init                         Create a project in the current directory
  reqdoc new folder / chapter-1       Add a chapter at the end of the root
  reqdoc new unit chapter-1 intro.req Add a unit to the chapter
  reqdoc tree                         Show the numbered document tree
  reqdoc watch                        Renumber whenever files change`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (replaces the user and project config files)")
	root.PersistentFlags().StringVarP(&flags.projectDir, "project", "C", "", "project directory (default is the working directory)")

	root.AddCommand(
		newInitCommand(app, flags),
		newTreeCommand(app, flags),
		newNumberCommand(app, flags),
		newNewCommand(app, flags),
		newRmCommand(app, flags),
		newMvCommand(app, flags),
		newReorderCommand(app, flags),
		newRenameCommand(app, flags),
		newSetCommand(app, flags),
		newCommentCommand(app, flags),
		newDescribeCommand(app, flags),
		newWatchCommand(app, flags),
		newConfigCommand(app, flags),
	)
	return root
}

// Execute runs the CLI and exits with the code matching the failure.
func Execute() {
	app := NewApp(Dependencies{})
	root := NewRootCommand(app)
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(int(renderGuidance(app.stderr, err)))
	}
}

// indexFlag registers the --at flag used by commands that place a child.
func indexFlag(c *cobra.Command, at *int) {
	c.Flags().IntVar(at, "at", tree.End, "position among the document children (default: end)")
}

// withSession opens the project for the duration of fn.
func withSession(cmd *cobra.Command, app *App, flags *rootFlagValues, fn func(*session) error) error {
	s, err := app.open(cmd.Context(), flags)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			s.logger.Warn("close project", "err", closeErr)
		}
	}()
	return fn(s)
}

func done(app *App, format string, args ...any) {
	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓"), fmt.Sprintf(format, args...))
}
