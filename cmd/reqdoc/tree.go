// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reqdoc/reqdoc/internal/kind"
	"github.com/reqdoc/reqdoc/internal/tree"
)

type treeOptions struct {
	all   bool
	depth int
}

func newTreeCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var opts treeOptions

	c := &cobra.Command{
		Use:   "tree [path]",
		Short: "Show the numbered document tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return withSession(cmd, app, flags, func(s *session) error {
				if err := s.project.LoadTree(); err != nil {
					return err
				}
				s.project.Renumber()
				start, err := s.find(path)
				if err != nil {
					return err
				}
				printTree(app.stdout, start, opts)
				return nil
			})
		},
	}
	c.Flags().BoolVarP(&opts.all, "all", "a", false, "include variables, reports, glossary and schema folders")
	c.Flags().IntVarP(&opts.depth, "depth", "d", 0, "limit the printed depth (0: unlimited)")
	return c
}

// printTree writes start and its document children, one node per line.
func printTree(w io.Writer, start *tree.Node, opts treeOptions) {
	fmt.Fprintln(w, TitleStyle.Render(start.DisplayName()))
	printChildren(w, start, 1, opts)
}

func printChildren(w io.Writer, n *tree.Node, depth int, opts treeOptions) {
	if opts.depth > 0 && depth > opts.depth {
		return
	}
	children := n.DocumentChildren()
	if opts.all {
		children = append(children, n.Auxiliary()...)
	}
	for _, c := range children {
		fmt.Fprintln(w, strings.Repeat("  ", depth)+describeNode(c))
		if c.Kind().IsContainer() {
			printChildren(w, c, depth+1, opts)
		}
	}
}

// describeNode renders one tree line: number, name, kind and flags.
func describeNode(n *tree.Node) string {
	var b strings.Builder
	if num := n.Number(); num != "" {
		b.WriteString(numberStyle.Render(num))
		b.WriteByte(' ')
	}

	name := n.DisplayName()
	switch {
	case n.IsBroken() || n.Kind() == kind.Broken:
		b.WriteString(brokenStyle.Render(name))
	case n.Kind().IsContainer():
		b.WriteString(TitleStyle.Render(name))
	default:
		b.WriteString(name)
	}

	label := n.Kind().String()
	if fk := n.FormKind(); fk != "" {
		label += ":" + fk
	}
	b.WriteString(" " + SubtitleStyle.Render("("+label+")"))

	var marks []string
	if n.Kind() == kind.Include {
		marks = append(marks, "-> "+n.Target())
	}
	if n.IsDisabled() {
		marks = append(marks, "disabled")
	}
	if n.IsUnnumbered() {
		marks = append(marks, "unnumbered")
	}
	if n.IsHorizontal() {
		marks = append(marks, "horizontal")
	}
	if n.Kind() == kind.Include && n.IsReadOnly() {
		marks = append(marks, "read-only")
	}
	if n.IsBroken() {
		marks = append(marks, "broken")
	}
	if len(marks) > 0 {
		b.WriteString(" " + WarningStyle.Render("["+strings.Join(marks, ", ")+"]"))
	}
	return b.String()
}
