package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/config"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/nostrx"
	"github.com/dmitrijs2005/linkdrop/internal/sharedstore"
)

// NewShareCommand creates the root command of linkdrop-share, the
// extension process. It reads the contact snapshot and queues shares in
// the shared container; the main process sends them on its next drain.
func NewShareCommand() *cobra.Command {
	var to, note string

	cmd := &cobra.Command{
		Use:   "linkdrop-share <url>",
		Short: "Queue a link for a contact",
		Long: `Queues url for the contact named by --to, which is matched against the
aliases and npubs published by "linkdrop snapshot". A raw npub or hex key
is accepted as well.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, s *sharedstore.Store) error {
				if err := models.ValidateHTTPURL(args[0]); err != nil {
					return err
				}
				snapshot, err := s.LoadContactsSnapshot(ctx)
				if err != nil {
					return err
				}
				npub, err := resolveRecipient(snapshot, to)
				if err != nil {
					return err
				}
				item, err := s.AppendPendingShare(ctx, models.PendingShare{
					URL:         args[0],
					ContactNPub: npub,
					Note:        strings.TrimSpace(note),
				})
				if err != nil {
					return err
				}
				printf(cmd, "queued %s\n", item.ID)
				return nil
			})
		},
	}
	config.BindFlags(cmd.PersistentFlags())
	cmd.Flags().StringVar(&to, "to", "", "recipient alias, npub or hex key")
	cmd.Flags().StringVar(&note, "note", "", "optional note sent as a reply")
	_ = cmd.MarkFlagRequired("to")

	cmd.AddCommand(newShareContactsCommand())
	return cmd
}

func newShareContactsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "contacts",
		Short: "List contacts available as recipients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, s *sharedstore.Store) error {
				list, err := s.LoadContactsSnapshot(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
				for _, c := range list {
					fmt.Fprintf(tw, "%s\t%s\n", c.NPub, c.Alias)
				}
				return tw.Flush()
			})
		},
	}
}

// resolveRecipient matches to against snapshot aliases (case-insensitive)
// and npubs, falling back to parsing it as a key.
func resolveRecipient(snapshot []models.ContactSnapshot, to string) (string, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return "", fmt.Errorf("recipient: %w", common.ErrEmptyField)
	}
	for _, c := range snapshot {
		if c.NPub == to || (c.Alias != "" && strings.EqualFold(c.Alias, to)) {
			return c.NPub, nil
		}
	}
	hex, err := nostrx.NormalizePubkey(to)
	if err != nil {
		return "", fmt.Errorf("unknown recipient %q: %w", to, err)
	}
	return nostrx.NPub(hex)
}

func withStore(cmd *cobra.Command, fn func(ctx context.Context, s *sharedstore.Store) error) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := sharedstore.Open(cfg.ContainerDir, log)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, s)
}
