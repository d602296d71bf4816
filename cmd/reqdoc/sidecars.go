// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reqdoc/reqdoc/internal/sidecar"
)

func newCommentCommand(app *App, flags *rootFlagValues) *cobra.Command {
	c := &cobra.Command{
		Use:   "comment",
		Short: "Read or write the comment attached to a node",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	c.AddCommand(&cobra.Command{
		Use:   "get <path>",
		Short: "Print the comment in comment file format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, flags, func(s *session) error {
				n, err := s.find(args[0])
				if err != nil {
					return err
				}
				cm, err := n.Comment()
				if err != nil {
					return err
				}
				fmt.Fprint(app.stdout, cm.Format())
				return nil
			})
		},
	})

	var (
		fromFile string
		remove   bool
	)
	set := &cobra.Command{
		Use:   "set <path> [text]",
		Short: "Replace the comment",
		Long: `Replace the comment of the node at path.

With text, the main comment text is replaced and range comments are kept.
With --from, the whole comment is read in comment file format, where lines
starting with "[offset,length]" open a range comment. An empty comment
removes the comment file.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, flags, func(s *session) error {
				n, err := s.find(args[0])
				if err != nil {
					return err
				}
				var cm sidecar.Comment
				switch {
				case remove:
				case fromFile != "":
					data, err := readInput(cmd.InOrStdin(), fromFile)
					if err != nil {
						return err
					}
					var warnings []sidecar.ParseWarning
					cm, warnings = sidecar.Parse(string(data))
					for _, w := range warnings {
						s.logger.Warn("comment input kept as text", "line", w.Line, "marker", w.Marker, "reason", w.Reason)
					}
				case len(args) == 2:
					if cm, err = n.Comment(); err != nil {
						return err
					}
					cm.Main = args[1]
				default:
					return fmt.Errorf("comment set needs text, --from or --clear")
				}
				if err := n.UpdateComment(cm); err != nil {
					return err
				}
				done(app, "Comment of %s updated", n.ID())
				return nil
			})
		},
	}
	set.Flags().StringVar(&fromFile, "from", "", `read the comment from a file ("-" for stdin)`)
	set.Flags().BoolVar(&remove, "clear", false, "remove the comment")
	set.MarkFlagsMutuallyExclusive("from", "clear")
	c.AddCommand(set)
	return c
}

func newDescribeCommand(app *App, flags *rootFlagValues) *cobra.Command {
	c := &cobra.Command{
		Use:   "describe",
		Short: "Read or write the description of a node",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	c.AddCommand(&cobra.Command{
		Use:   "get <path>",
		Short: "Print the description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, flags, func(s *session) error {
				n, err := s.find(args[0])
				if err != nil {
					return err
				}
				text, err := n.Description()
				if err != nil {
					return err
				}
				if text != "" && !strings.HasSuffix(text, "\n") {
					text += "\n"
				}
				fmt.Fprint(app.stdout, text)
				return nil
			})
		},
	})

	var fromFile string
	set := &cobra.Command{
		Use:   "set <path> [text]",
		Short: "Replace the description; empty text removes it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := ""
			if len(args) == 2 {
				text = args[1]
			}
			if fromFile != "" {
				data, err := readInput(cmd.InOrStdin(), fromFile)
				if err != nil {
					return err
				}
				text = string(data)
			}
			return withSession(cmd, app, flags, func(s *session) error {
				n, err := s.find(args[0])
				if err != nil {
					return err
				}
				if err := n.UpdateDescription(text); err != nil {
					return err
				}
				done(app, "Description of %s updated", n.ID())
				return nil
			})
		},
	}
	set.Flags().StringVar(&fromFile, "from", "", `read the description from a file ("-" for stdin)`)
	c.AddCommand(set)
	return c
}
