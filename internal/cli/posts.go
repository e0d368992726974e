package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/linkdrop/internal/app"
	"github.com/dmitrijs2005/linkdrop/internal/conversation"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/nostrx"
)

// conversationWith resolves the active owner and the one-to-one
// conversation id with contact.
func conversationWith(a *app.Context, contact string) (owner, convID string, err error) {
	owner, err = a.Owner()
	if err != nil {
		return "", "", err
	}
	peer, err := nostrx.NormalizePubkey(contact)
	if err != nil {
		return "", "", err
	}
	return owner, conversation.ID(owner, peer), nil
}

func reportSent(cmd *cobra.Command, v *models.MessageView, err error) error {
	if v != nil && err != nil {
		printf(cmd, "saved %s locally, publish failed\n", v.EventID)
		return err
	}
	if err != nil {
		return err
	}
	printf(cmd, "sent %s\n", v.EventID)
	return nil
}

func newSendCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send <contact> <url>",
		Short: "Share a link with a contact",
		Long: `Shares an http(s) link as a new post in the conversation with contact
(npub or hex key). By default the post is stored only after a relay accepted
it; see --send-mode.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				owner, err := a.Owner()
				if err != nil {
					return err
				}
				s, err := a.Sender(ctx)
				if err != nil {
					return err
				}
				v, err := s.SendRoot(ctx, owner, args[0], args[1])
				return reportSent(cmd, v, err)
			})
		},
	}
}

func newReplyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reply <contact> <post-id> <note>",
		Short: "Reply to a post",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				owner, err := a.Owner()
				if err != nil {
					return err
				}
				s, err := a.Sender(ctx)
				if err != nil {
					return err
				}
				v, err := s.SendReply(ctx, owner, args[0], args[1], args[2])
				return reportSent(cmd, v, err)
			})
		},
	}
}

func writeMessages(cmd *cobra.Command, list []models.MessageView) error {
	tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
	for _, m := range list {
		dir := "<"
		if m.Outbound {
			dir = ">"
		}
		flag := ""
		switch {
		case !m.Outbound && m.ReadAt == nil:
			flag = "*"
		case m.IsArchived:
			flag = "a"
		}
		body := m.URL
		if m.Kind == models.KindReply {
			body = m.Note
		} else if m.Title != "" {
			body = m.Title + " " + m.URL
		}
		fmt.Fprintf(tw, "%s\t%s\t%s%s\t%s\t%s\n",
			m.EventID, m.Timestamp.Local().Format(time.DateTime), dir, flag, m.LinkType, body)
	}
	return tw.Flush()
}

func newPostsCommand(opts *RootOptions) *cobra.Command {
	var archived bool
	cmd := &cobra.Command{
		Use:   "posts <contact>",
		Short: "List posts of the conversation with a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				owner, convID, err := conversationWith(a, args[0])
				if err != nil {
					return err
				}
				list, err := a.Messages.ListConversation(ctx, owner, convID, archived)
				if err != nil {
					return err
				}
				unread, err := a.Messages.UnreadCount(ctx, owner, convID)
				if err != nil {
					return err
				}
				printf(cmd, "%d posts, %d unread\n", len(list), unread)
				return writeMessages(cmd, list)
			})
		},
	}
	cmd.Flags().BoolVar(&archived, "archived", false, "include archived posts")
	return cmd
}

func newRepliesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replies <post-id>",
		Short: "List replies to a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				owner, err := a.Owner()
				if err != nil {
					return err
				}
				list, err := a.Messages.ListReplies(ctx, owner, args[0])
				if err != nil {
					return err
				}
				return writeMessages(cmd, list)
			})
		},
	}
}

func newReadCommand(opts *RootOptions) *cobra.Command {
	var post bool
	cmd := &cobra.Command{
		Use:   "read <contact | post-id>",
		Short: "Mark inbound posts as read",
		Long: `Marks every inbound post of the conversation with contact as read.
With --post the argument is a post id: the post and its inbound replies are
marked instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				if post {
					owner, err := a.Owner()
					if err != nil {
						return err
					}
					roots, err := a.Messages.MarkRootPostRead(ctx, owner, args[0])
					if err != nil {
						return err
					}
					replies, err := a.Messages.MarkPostRepliesRead(ctx, owner, args[0])
					if err != nil {
						return err
					}
					printf(cmd, "marked %d posts and %d replies read\n", roots, replies)
					return nil
				}

				owner, convID, err := conversationWith(a, args[0])
				if err != nil {
					return err
				}
				n, err := a.Messages.MarkConversationPostsRead(ctx, owner, convID)
				if err != nil {
					return err
				}
				printf(cmd, "marked %d posts read\n", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&post, "post", false, "argument is a post id")
	return cmd
}

func newArchiveCommand(opts *RootOptions) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "archive <contact>",
		Short: "Archive every post of the conversation with a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				owner, convID, err := conversationWith(a, args[0])
				if err != nil {
					return err
				}
				n, err := a.Messages.SetConversationArchived(ctx, owner, convID, !undo)
				if err != nil {
					return err
				}
				verb := "archived"
				if undo {
					verb = "unarchived"
				}
				printf(cmd, "%s %d posts\n", verb, n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "unarchive instead")
	return cmd
}

func newDrainCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Send links queued by the share extension",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Context) error {
				owner, err := a.Owner()
				if err != nil {
					return err
				}
				in, err := a.Inbox(ctx)
				if err != nil {
					return err
				}
				report, err := in.Drain(ctx, owner)
				printf(cmd, "sent %d, dropped %d, pending %d\n", report.Sent, report.Dropped, report.Pending)
				if report.Unpublished > 0 {
					printf(cmd, "%d stored locally but not published\n", report.Unpublished)
				}
				return err
			})
		},
	}
}
