package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/models"
)

// ShareQueue is the main-process side of the shared container queue.
type ShareQueue interface {
	LoadPendingShares(ctx context.Context) ([]models.PendingShare, error)
	RemovePendingShares(ctx context.Context, ids []string) error
}

type DrainReport struct {
	Sent int
	// Unpublished counts shares stored locally whose publish failed. They
	// leave the queue like sent ones.
	Unpublished int
	Dropped     int
	Pending     int
}

// ShareInbox ingests shares queued by the extension process.
type ShareInbox struct {
	queue  ShareQueue
	sender *Sender
	log    logging.Logger
}

func NewShareInbox(queue ShareQueue, sender *Sender, log logging.Logger) *ShareInbox {
	return &ShareInbox{queue: queue, sender: sender, log: log}
}

// Drain sends every pending share as owner and removes the ones that were
// ingested. A share with a note becomes a root post followed by a reply.
// Shares that can never be sent (bad url or key) are dropped; on any other
// failure draining stops and the rest stay queued for the next run. In
// local-first mode a share whose post was stored is never queued again,
// even when the publish failed, so a retry cannot store it twice.
func (in *ShareInbox) Drain(ctx context.Context, owner string) (DrainReport, error) {
	var report DrainReport

	items, err := in.queue.LoadPendingShares(ctx)
	if err != nil {
		return report, err
	}

	var done []string
	var sendErr error
	for i, it := range items {
		root, err := in.sender.SendRoot(ctx, owner, it.ContactNPub, it.URL)
		if errors.Is(err, common.ErrValidation) {
			in.log.Warn(ctx, "dropping invalid pending share", "id", it.ID, "error", err)
			done = append(done, it.ID)
			report.Dropped++
			continue
		}
		if err != nil && root == nil {
			sendErr = err
			report.Pending = len(items) - i
			break
		}

		if it.Note != "" {
			if _, rerr := in.sender.SendReply(ctx, owner, it.ContactNPub, root.EventID, it.Note); rerr != nil {
				in.log.Warn(ctx, "shared link sent without its note", "id", it.ID, "error", rerr)
			}
		}
		done = append(done, it.ID)
		if err != nil {
			sendErr = err
			report.Unpublished++
			report.Pending = len(items) - i - 1
			break
		}
		report.Sent++
	}

	if err := in.queue.RemovePendingShares(context.WithoutCancel(ctx), done); err != nil {
		return report, err
	}
	if len(items) > 0 {
		in.log.Info(ctx, "pending shares drained", "sent", report.Sent, "unpublished", report.Unpublished, "dropped", report.Dropped, "pending", report.Pending)
	}
	return report, sendErr
}
