package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/linkdrop/internal/app"
)

func newContactCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Manage contacts of the active identity",
	}
	cmd.AddCommand(newContactAddCommand(opts))
	cmd.AddCommand(newContactUpdateCommand(opts))
	cmd.AddCommand(newContactRemoveCommand(opts))
	cmd.AddCommand(newContactListCommand(opts))
	return cmd
}

// publishSnapshot refreshes the extension's contact list. A failure is
// logged only: the contact change itself already committed.
func publishSnapshot(ctx context.Context, a *app.Context, owner string) {
	if err := a.Contacts.PublishSnapshot(ctx, owner); err != nil {
		a.Log.Warn(ctx, "contact snapshot not published", "error", err)
	}
}

func newContactAddCommand(opts *RootOptions) *cobra.Command {
	var alias string
	cmd := &cobra.Command{
		Use:   "add <npub|hex>",
		Short: "Add a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				owner, err := a.Owner()
				if err != nil {
					return err
				}
				c, err := a.Contacts.Add(ctx, owner, args[0], alias)
				if err != nil {
					return err
				}
				publishSnapshot(ctx, a, owner)
				printf(cmd, "added %s (%s)\n", c.DisplayName(), c.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&alias, "alias", "", "display name for the contact")
	return cmd
}

func newContactUpdateCommand(opts *RootOptions) *cobra.Command {
	var alias string
	cmd := &cobra.Command{
		Use:   "update <id> <npub|hex>",
		Short: "Change a contact's key or alias",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				owner, err := a.Owner()
				if err != nil {
					return err
				}
				if err := a.Contacts.Update(ctx, owner, args[0], args[1], alias); err != nil {
					return err
				}
				publishSnapshot(ctx, a, owner)
				printf(cmd, "updated %s\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&alias, "alias", "", "display name for the contact")
	return cmd
}

func newContactRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a contact",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				owner, err := a.Owner()
				if err != nil {
					return err
				}
				if err := a.Contacts.Delete(ctx, owner, args[0]); err != nil {
					return err
				}
				publishSnapshot(ctx, a, owner)
				printf(cmd, "removed %s\n", args[0])
				return nil
			})
		},
	}
}

func newContactListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List contacts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				owner, err := a.Owner()
				if err != nil {
					return err
				}
				list, err := a.Contacts.List(ctx, owner)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
				for _, c := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.NPub, c.Alias)
				}
				return tw.Flush()
			})
		},
	}
}

func newSnapshotCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Publish the contact list to the share extension",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				owner, err := a.Owner()
				if err != nil {
					return err
				}
				if err := a.Contacts.PublishSnapshot(ctx, owner); err != nil {
					return err
				}
				printf(cmd, "snapshot published\n")
				return nil
			})
		},
	}
}
