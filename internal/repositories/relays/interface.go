// Package relays persists the device-wide relay list and each relay's last
// known connection status.
package relays

import (
	"context"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, r *models.Relay) error
	Get(ctx context.Context, url string) (*models.Relay, error)
	List(ctx context.Context) ([]models.Relay, error)
	ListEnabled(ctx context.Context) ([]models.Relay, error)
	SetEnabled(ctx context.Context, url string, enabled bool, at time.Time) error
	// UpdateStatus touches a single row; updates to different relays are
	// independent of each other.
	UpdateStatus(ctx context.Context, url string, status models.RelayStatus, lastError string, at time.Time) error
	Delete(ctx context.Context, url string) error
}
