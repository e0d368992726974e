package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/linkdrop/internal/app"
	"github.com/dmitrijs2005/linkdrop/internal/config"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
)

// RootOptions carries process-wide seams shared by every subcommand.
type RootOptions struct {
	// AppOptions are passed to app.New; tests use them to swap the key
	// store and the relay dialer.
	AppOptions []app.Option
}

// NewRootCommand creates the root command of the linkdrop binary.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	if opts == nil {
		opts = &RootOptions{}
	}

	cmd := &cobra.Command{
		Use:           "linkdrop",
		Short:         "Share links with contacts over Nostr relays",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(newLogoutCommand(opts))
	cmd.AddCommand(newWhoamiCommand(opts))
	cmd.AddCommand(newContactCommand(opts))
	cmd.AddCommand(newRelayCommand(opts))
	cmd.AddCommand(newSendCommand(opts))
	cmd.AddCommand(newReplyCommand(opts))
	cmd.AddCommand(newPostsCommand(opts))
	cmd.AddCommand(newRepliesCommand(opts))
	cmd.AddCommand(newReadCommand(opts))
	cmd.AddCommand(newArchiveCommand(opts))
	cmd.AddCommand(newDrainCommand(opts))
	cmd.AddCommand(newSnapshotCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// loadConfig reads config from the flags of the executing command. Cobra
// marks inherited persistent flags as changed on that merged set only.
func loadConfig(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(cfg.LogLevel, cmd.ErrOrStderr()), nil
}

// withApp opens an app.Context for the duration of fn.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app.Context) error) (err error) {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg, log, opts.AppOptions...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, a)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(out(cmd), format, args...)
}
