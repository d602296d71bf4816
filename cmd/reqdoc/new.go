// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/reqdoc/reqdoc/internal/kind"
	"github.com/reqdoc/reqdoc/internal/tree"
)

func newNewCommand(app *App, flags *rootFlagValues) *cobra.Command {
	c := &cobra.Command{
		Use:   "new",
		Short: "Create units, folders, appendices and include overlays",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	c.AddCommand(
		newUnitCommand(app, flags),
		newContainerCommand(app, flags, "folder", (*tree.Node).CreateFolder),
		newContainerCommand(app, flags, "appendix", (*tree.Node).CreateAppendix),
		newIncludeCommand(app, flags),
	)
	return c
}

func newUnitCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		at       int
		content  string
		fromFile string
	)
	c := &cobra.Command{
		Use:   "unit <container> <name>",
		Short: "Create a unit file",
		Long: `Create a unit file in container. The extension decides the unit kind:
.tbl tables, image extensions, .txt/.md texts, registered form extensions,
anything else a generic unit. Use "/" for the project root.`,
		Example: `  reqdoc new unit chapter-1 overview.tbl --at 0
  reqdoc new unit / scope.txt --from draft/scope.txt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data := []byte(content)
			if fromFile != "" {
				var err error
				if data, err = readInput(cmd.InOrStdin(), fromFile); err != nil {
					return err
				}
			}
			return withSession(cmd, app, flags, func(s *session) error {
				parent, err := s.container(args[0])
				if err != nil {
					return err
				}
				u, err := parent.CreateUnit(args[1], at, data)
				if err != nil {
					return err
				}
				done(app, "Created %s %s%s", u.Kind(), s.numberLabel(u), u.ID())
				return nil
			})
		},
	}
	indexFlag(c, &at)
	c.Flags().StringVar(&content, "content", "", "initial file content")
	c.Flags().StringVar(&fromFile, "from", "", `read the initial content from a file ("-" for stdin)`)
	c.MarkFlagsMutuallyExclusive("content", "from")
	return c
}

func newContainerCommand(app *App, flags *rootFlagValues, what string, create func(*tree.Node, string, int) (*tree.Node, error)) *cobra.Command {
	var at int
	c := &cobra.Command{
		Use:   what + " <container> <name>",
		Short: "Create " + article(what) + " " + what,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, flags, func(s *session) error {
				parent, err := s.container(args[0])
				if err != nil {
					return err
				}
				n, err := create(parent, args[1], at)
				if err != nil {
					return err
				}
				done(app, "Created %s %s%s", what, s.numberLabel(n), n.ID())
				return nil
			})
		},
	}
	indexFlag(c, &at)
	return c
}

func newIncludeCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		at       int
		readOnly bool
		relink   bool
	)
	c := &cobra.Command{
		Use:   "include <container> <name> <target>",
		Short: "Link an external folder into the document",
		Long: `Create an include overlay: a link named name inside container that shows
the folder at target as part of the document. With --relink an existing
overlay, broken or not, is pointed at the new target instead.`,
		Example: `  reqdoc new include / shared ../library --read-only
  reqdoc new include / shared ../library-v2 --relink`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := filepath.Abs(args[2])
			if err != nil {
				return fmt.Errorf("resolve target: %w", err)
			}
			return withSession(cmd, app, flags, func(s *session) error {
				parent, err := s.container(args[0])
				if err != nil {
					return err
				}
				if relink {
					n, ok := parent.Child(args[1])
					if !ok || n.Kind() != kind.Include {
						return fmt.Errorf("%w: no include overlay %s in %s", tree.ErrNotFound, args[1], parent.ID())
					}
					if err := n.SetLink(target, readOnly); err != nil {
						return err
					}
					done(app, "Relinked %s%s -> %s", s.numberLabel(n), n.ID(), target)
					return nil
				}
				n, err := parent.CreateInclude(args[1], at, target, readOnly)
				if err != nil {
					return err
				}
				done(app, "Included %s%s -> %s", s.numberLabel(n), n.ID(), target)
				return nil
			})
		},
	}
	indexFlag(c, &at)
	c.Flags().BoolVar(&readOnly, "read-only", false, "refuse structural changes inside the overlay")
	c.Flags().BoolVar(&relink, "relink", false, "re-point an existing overlay")
	return c
}

// readInput reads path, or in when path is "-".
func readInput(in io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(in)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func article(word string) string {
	if word != "" && (word[0] == 'a' || word[0] == 'e' || word[0] == 'i' || word[0] == 'o' || word[0] == 'u') {
		return "an"
	}
	return "a"
}
