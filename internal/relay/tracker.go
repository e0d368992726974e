package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/transport"
)

// StatusStore is the write side of the relay repository.
type StatusStore interface {
	Get(ctx context.Context, url string) (*models.Relay, error)
	UpdateStatus(ctx context.Context, url string, status models.RelayStatus, lastError string, at time.Time) error
}

// Tracker applies transport status updates to persisted relay rows. Each
// update touches only its own relay; the last applied update wins.
type Tracker struct {
	store StatusStore
	log   logging.Logger
	now   func() time.Time
}

func NewTracker(store StatusStore, log logging.Logger) *Tracker {
	return &Tracker{store: store, log: log, now: time.Now}
}

func (t *Tracker) Apply(ctx context.Context, u transport.StatusUpdate) error {
	if !u.Status.Valid() {
		return fmt.Errorf("unknown relay status %q", u.Status)
	}

	prev, err := t.store.Get(ctx, u.URL)
	if errors.Is(err, common.ErrorNotFound) {
		t.log.Debug(ctx, "status for unknown relay dropped", "url", u.URL, "status", string(u.Status))
		return nil
	}
	if err != nil {
		return err
	}
	if !CanTransition(prev.Status, u.Status) {
		t.log.Debug(ctx, "unexpected relay transition", "url", u.URL, "from", string(prev.Status), "to", string(u.Status))
	}

	if err := t.store.UpdateStatus(ctx, u.URL, u.Status, u.Err, t.now()); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// Run consumes updates until ctx is done or the channel is closed.
func (t *Tracker) Run(ctx context.Context, updates <-chan transport.StatusUpdate) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := t.Apply(ctx, u); err != nil {
				t.log.Warn(ctx, "relay status update failed", "url", u.URL, "error", err)
			}
		}
	}
}
