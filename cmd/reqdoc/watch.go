// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reqdoc/reqdoc/internal/kind"
	"github.com/reqdoc/reqdoc/internal/numbering"
	"github.com/reqdoc/reqdoc/internal/tree"
	"github.com/reqdoc/reqdoc/internal/watch"
)

func newWatchCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rescan and renumber the project whenever files change",
		Long: `Watch the project directory and the targets of its include overlays.
After the files have been quiet for the configured debounce interval the
tree is reloaded and renumbered; changes to form schema files reload the
schema first. Targets of overlays created or relinked while watching are
added after the rescan that finds them. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, app, flags, func(s *session) error {
				return runWatch(cmd.Context(), app, s)
			})
		},
	}
}

func runWatch(ctx context.Context, app *App, s *session) error {
	if err := s.project.LoadTree(); err != nil {
		return err
	}
	remove := s.project.Numbering().OnNumbered(func(st numbering.Stats) {
		fmt.Fprintf(app.stdout, "%s numbered %d tables, %d images, %d forms\n",
			CmdStyle.Render("→"), st.Tables, st.Images, st.Forms)
	})
	defer remove()
	s.project.Renumber()

	var (
		w   *watch.Watcher
		err error
	)
	w, err = watch.New(watch.Config{
		Root:     s.dir,
		Extra:    includeTargets(s.project),
		Ignore:   s.cfg.Watch.Ignore,
		Debounce: s.cfg.Watch.Debounce(),
		Logger:   s.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			if err := s.rescan(ctx, changed); err != nil {
				return err
			}
			s.trackIncludes(w)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	fmt.Fprintf(app.stdout, "%s Watching %s (Ctrl+C to stop)\n", CmdStyle.Render("→"), s.dir)
	return w.Run(ctx)
}

// rescan reloads what changed and renumbers. Schema file changes reload the
// form registry before the tree so that reclassified files pick up their
// new form kinds.
func (s *session) rescan(ctx context.Context, changed []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Debug("files changed", "count", len(changed), "paths", changed)

	names := s.project.Names()
	if s.schema != nil && touchesSchema(changed, names.SchemaFolder) {
		if err := s.schema.Load(s.project.Fs(), filepath.Join(s.dir, names.SchemaFolder)); err != nil {
			s.logger.Warn("some form schema files were skipped", "err", err)
		}
	}
	if err := s.project.Refresh(); err != nil {
		return err
	}
	s.project.Renumber()
	return nil
}

// rootAdder is the part of watch.Watcher that trackIncludes needs.
type rootAdder interface {
	AddRoot(dir string) error
}

// trackIncludes watches the targets of include overlays created or relinked
// since the watcher started. Targets already watched are skipped by AddRoot.
func (s *session) trackIncludes(w rootAdder) {
	for _, target := range includeTargets(s.project) {
		if err := w.AddRoot(target); err != nil {
			s.logger.Warn("not watching include target", "target", target, "err", err)
		}
	}
}

func touchesSchema(changed []string, folder string) bool {
	for _, p := range changed {
		if strings.HasSuffix(p, ".cue") || p == folder || strings.HasPrefix(p, folder+"/") || strings.Contains(p, "/"+folder+"/") {
			return true
		}
	}
	return false
}

// includeTargets lists the existing target folders of loaded include
// overlays.
func includeTargets(p *tree.Project) []string {
	var out []string
	_ = p.Walk(func(n *tree.Node, _ int) error {
		if n.Kind() == kind.Include && !n.IsBroken() && n.Target() != "" {
			out = append(out, n.Target())
		}
		return nil
	})
	return out
}
