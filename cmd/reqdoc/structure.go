// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/reqdoc/reqdoc/internal/tree"
)

func newRmCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var reserve bool
	c := &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a unit or container",
		Long: `Delete the node at path together with its comment and description files.
With --reserve the slot keeps its number: a unit is replaced by a reserved
unit and a container is emptied and marked reserved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, flags, func(s *session) error {
				n, err := s.find(args[0])
				if err != nil {
					return err
				}
				id := n.ID()
				if err := n.Delete(reserve); err != nil {
					return err
				}
				if reserve {
					done(app, "Reserved %s", id)
				} else {
					done(app, "Deleted %s", id)
				}
				return nil
			})
		},
	}
	c.Flags().BoolVar(&reserve, "reserve", false, "keep the slot as a reserved placeholder")
	return c
}

func newMvCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var at int
	c := &cobra.Command{
		Use:   "mv <path> <container>",
		Short: "Move a node into another container",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, flags, func(s *session) error {
				n, err := s.find(args[0])
				if err != nil {
					return err
				}
				target, err := s.container(args[1])
				if err != nil {
					return err
				}
				if err := n.Move(target, at); err != nil {
					return err
				}
				done(app, "Moved to %s%s", s.numberLabel(n), n.ID())
				return nil
			})
		},
	}
	indexFlag(c, &at)
	return c
}

func newReorderCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <path> <index>",
		Short: "Move a node to another position in its container",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: %q", tree.ErrInvalidIndex, args[1])
			}
			return withSession(cmd, app, flags, func(s *session) error {
				n, err := s.find(args[0])
				if err != nil {
					return err
				}
				parent := n.Parent()
				if parent == nil {
					return fmt.Errorf("%w: the project root has no position", tree.ErrUnsupported)
				}
				if err := parent.Reorder(n, index); err != nil {
					return err
				}
				done(app, "%s%s is now at position %d", s.numberLabel(n), n.ID(), n.Index())
				return nil
			})
		},
	}
}

func newRenameCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "Rename a node and its comment and description files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, flags, func(s *session) error {
				n, err := s.find(args[0])
				if err != nil {
					return err
				}
				if err := n.Rename(args[1]); err != nil {
					return err
				}
				done(app, "Renamed to %s%s", s.numberLabel(n), n.ID())
				return nil
			})
		},
	}
}

// setOptions holds the flags of "reqdoc set". Pointers are nil when the
// flag was not given.
type setOptions struct {
	disabled, horizontal, unnumbered *bool
	title, description               *string
}

func newSetCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		disabled, horizontal, unnumbered bool
		title, description               string
	)
	c := &cobra.Command{
		Use:   "set <path>",
		Short: "Change the flags stored in the order record",
		Example: `  reqdoc set chapter-2 --disabled
  reqdoc set chapter-1/layout.tbl --horizontal
  reqdoc set shared --title "Shared specifications"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts setOptions
			fl := cmd.Flags()
			if fl.Changed("disabled") {
				opts.disabled = &disabled
			}
			if fl.Changed("horizontal") {
				opts.horizontal = &horizontal
			}
			if fl.Changed("unnumbered") {
				opts.unnumbered = &unnumbered
			}
			if fl.Changed("title") {
				opts.title = &title
			}
			if fl.Changed("description") {
				opts.description = &description
			}
			return withSession(cmd, app, flags, func(s *session) error {
				n, err := s.find(args[0])
				if err != nil {
					return err
				}
				if err := applySet(n, opts); err != nil {
					return err
				}
				done(app, "Updated %s%s", s.numberLabel(n), n.ID())
				return nil
			})
		},
	}
	c.Flags().BoolVar(&disabled, "disabled", false, "exclude the node from the document")
	c.Flags().BoolVar(&horizontal, "horizontal", false, "lay the unit out horizontally")
	c.Flags().BoolVar(&unnumbered, "unnumbered", false, "leave the container out of section numbering")
	c.Flags().StringVar(&title, "title", "", "display name of an include overlay")
	c.Flags().StringVar(&description, "description", "", "description of an include overlay")
	return c
}

func applySet(n *tree.Node, opts setOptions) error {
	if opts.disabled != nil {
		if err := n.SetDisabled(*opts.disabled); err != nil {
			return err
		}
	}
	if opts.horizontal != nil {
		if err := n.SetHorizontal(*opts.horizontal); err != nil {
			return err
		}
	}
	if opts.unnumbered != nil {
		if err := n.SetUnnumbered(*opts.unnumbered); err != nil {
			return err
		}
	}
	if opts.title != nil || opts.description != nil {
		meta := n.Meta()
		title, desc := meta.Title, meta.Description
		if opts.title != nil {
			title = *opts.title
		}
		if opts.description != nil {
			desc = *opts.description
		}
		if err := n.SetIncludeMeta(title, desc); err != nil {
			return err
		}
	}
	return nil
}
