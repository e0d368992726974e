package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) GetWatermark(ctx context.Context, owner string) (*models.AccountWatermark, error) {
	var w models.AccountWatermark
	var updated int64
	err := r.db.QueryRowContext(ctx,
		`SELECT owner_pubkey, follow_list_updated_at, follow_list_event_id FROM account_watermarks WHERE owner_pubkey = ?`,
		owner).Scan(&w.OwnerPubkey, &updated, &w.FollowListEventID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get watermark: %w", err)
	}
	w.FollowListUpdatedAt = dbx.FromMillis(updated)
	return &w, nil
}

func (r *SQLiteRepository) UpsertWatermark(ctx context.Context, w *models.AccountWatermark) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO account_watermarks (owner_pubkey, follow_list_updated_at, follow_list_event_id)
		VALUES (?, ?, ?)
		ON CONFLICT(owner_pubkey) DO UPDATE SET
			follow_list_updated_at = excluded.follow_list_updated_at,
			follow_list_event_id = excluded.follow_list_event_id`,
		w.OwnerPubkey, dbx.Millis(w.FollowListUpdatedAt), w.FollowListEventID)
	if err != nil {
		return fmt.Errorf("failed to upsert watermark: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteWatermark(ctx context.Context, owner string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM account_watermarks WHERE owner_pubkey = ?`, owner); err != nil {
		return fmt.Errorf("failed to delete watermark: %w", err)
	}
	return nil
}
