package sharedstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/models"
)

// AppendPendingShare adds item to the queue. A missing id or timestamp is
// filled in. The stored item is returned.
func (s *Store) AppendPendingShare(ctx context.Context, item models.PendingShare) (models.PendingShare, error) {
	if item.URL == "" || item.ContactNPub == "" {
		return models.PendingShare{}, common.ErrEmptyField
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	key, err := s.sharedKey(ctx)
	if err != nil {
		return models.PendingShare{}, err
	}
	err = s.withLock(ctx, func() error {
		var queue []models.PendingShare
		if err := s.readSealed(QueueFile, key, &queue); err != nil {
			return err
		}
		queue = append(queue, item)
		return s.writeSealed(QueueFile, key, queue)
	})
	if err != nil {
		return models.PendingShare{}, err
	}
	s.log.Info(ctx, "pending share queued", "id", item.ID)
	return item, nil
}

func (s *Store) LoadPendingShares(ctx context.Context) ([]models.PendingShare, error) {
	key, err := s.sharedKey(ctx)
	if err != nil {
		return nil, err
	}
	var queue []models.PendingShare
	err = s.withLock(ctx, func() error {
		return s.readSealed(QueueFile, key, &queue)
	})
	if err != nil {
		return nil, err
	}
	return queue, nil
}

// RemovePendingShares drops the items with the given ids. Empty or unknown
// ids are a successful no-op.
func (s *Store) RemovePendingShares(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	key, err := s.sharedKey(ctx)
	if err != nil {
		return err
	}
	return s.withLock(ctx, func() error {
		var queue []models.PendingShare
		if err := s.readSealed(QueueFile, key, &queue); err != nil {
			return err
		}
		kept := queue[:0]
		for _, it := range queue {
			if _, ok := drop[it.ID]; !ok {
				kept = append(kept, it)
			}
		}
		if len(kept) == len(queue) {
			return nil
		}
		s.log.Debug(ctx, "pending shares removed", "count", len(queue)-len(kept))
		return s.writeSealed(QueueFile, key, kept)
	})
}
