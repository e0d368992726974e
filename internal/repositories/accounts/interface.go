// Package accounts stores per-identity watermarks used to skip stale
// upstream state.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/linkdrop/internal/models"
)

type Repository interface {
	GetWatermark(ctx context.Context, owner string) (*models.AccountWatermark, error)
	UpsertWatermark(ctx context.Context, w *models.AccountWatermark) error
	DeleteWatermark(ctx context.Context, owner string) error
}
