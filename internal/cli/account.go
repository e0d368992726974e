package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/linkdrop/internal/app"
	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/nostrx"
)

func newLoginCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Unlock an identity with its secret key",
		Long: `Reads an nsec or 64-char hex secret key, stores it in the key directory
and makes its public key the active identity. The key is read without echo
from a terminal, or from the first line of stdin otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if secret == "" {
				return common.ErrEmptyField
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				owner, err := a.Login(ctx, secret)
				if err != nil {
					return err
				}
				npub, err := nostrx.NPub(owner)
				if err != nil {
					return err
				}
				printf(cmd, "logged in as %s\n", npub)
				return nil
			})
		},
	}
}

func newLogoutCommand(opts *RootOptions) *cobra.Command {
	var clearData bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the active identity",
		Long: `Forgets the active identity and its secret key. With --clear every
contact, session and post stored for it is deleted as well, together with
its encryption key and cached thumbnails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				if err := a.Logout(ctx, clearData); err != nil {
					return err
				}
				if clearData {
					printf(cmd, "logged out, local data cleared\n")
				} else {
					printf(cmd, "logged out\n")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clearData, "clear", false, "also delete all local data of the identity")
	return cmd
}

func newWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the active identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				owner, err := a.Owner()
				if errors.Is(err, common.ErrNotLoggedIn) {
					printf(cmd, "not logged in\n")
					return nil
				}
				if err != nil {
					return err
				}
				npub, err := nostrx.NPub(owner)
				if err != nil {
					return err
				}
				printf(cmd, "%s\n", npub)
				return nil
			})
		},
	}
}
