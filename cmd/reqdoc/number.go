// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reqdoc/reqdoc/internal/tree"
)

func newNumberCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var list bool

	c := &cobra.Command{
		Use:   "number",
		Short: "Run a numbering pass and print the counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, app, flags, func(s *session) error {
				if err := s.project.LoadTree(); err != nil {
					return err
				}
				s.project.Renumber()
				st, _ := s.project.Numbering().Last()
				fmt.Fprintf(app.stdout, "%s tables, %s images, %s forms, %s disabled, %s appendices\n",
					numberStyle.Render(fmt.Sprint(st.Tables)),
					numberStyle.Render(fmt.Sprint(st.Images)),
					numberStyle.Render(fmt.Sprint(st.Forms)),
					numberStyle.Render(fmt.Sprint(st.Disabled)),
					numberStyle.Render(fmt.Sprint(st.Appendices)))
				if !list {
					return nil
				}
				return s.project.Walk(func(n *tree.Node, _ int) error {
					if n.Kind().IsNumberable() && n.Number() != "" {
						fmt.Fprintf(app.stdout, "%-8s %s\n", n.Number(), n.ID())
					}
					return nil
				})
			})
		},
	}
	c.Flags().BoolVarP(&list, "list", "l", false, "list every numbered unit")
	return c
}
