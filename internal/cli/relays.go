package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/linkdrop/internal/app"
)

func newRelayCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Manage the device-wide relay list",
	}
	cmd.AddCommand(newRelayAddCommand(opts))
	cmd.AddCommand(newRelayRemoveCommand(opts))
	cmd.AddCommand(newRelayToggleCommand(opts, "enable", true))
	cmd.AddCommand(newRelayToggleCommand(opts, "disable", false))
	cmd.AddCommand(newRelayListCommand(opts))
	cmd.AddCommand(newRelayStatusCommand(opts))
	return cmd
}

func newRelayAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <wss://url>",
		Short: "Add an enabled relay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				r, err := a.Relays.Add(ctx, args[0])
				if err != nil {
					return err
				}
				printf(cmd, "added %s\n", r.URL)
				return nil
			})
		},
	}
}

func newRelayRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <url>",
		Aliases: []string{"rm"},
		Short:   "Remove a relay",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				if err := a.Relays.Remove(ctx, args[0]); err != nil {
					return err
				}
				printf(cmd, "removed %s\n", args[0])
				return nil
			})
		},
	}
}

func newRelayToggleCommand(opts *RootOptions, verb string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <url>",
		Short: fmt.Sprintf("%s a relay", verb),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				if err := a.Relays.SetEnabled(ctx, args[0], enabled); err != nil {
					return err
				}
				printf(cmd, "%sd %s\n", verb, args[0])
				return nil
			})
		},
	}
}

func newRelayListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List relays with their last known status",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				list, err := a.Relays.List(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
				for _, r := range list {
					state := "enabled"
					if !r.IsEnabled {
						state = "disabled"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.URL, state, r.Status, r.LastError)
				}
				return tw.Flush()
			})
		},
	}
}

func newRelayStatusCommand(opts *RootOptions) *cobra.Command {
	var connect bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the aggregate relay connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				if connect {
					if _, err := a.Connect(ctx); err != nil {
						return err
					}
				}
				state, err := a.Relays.Connectivity(ctx)
				if err != nil {
					return err
				}
				printf(cmd, "%s: %s\n", state, state.Reason())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&connect, "connect", false, "dial enabled relays before reporting")
	return cmd
}
