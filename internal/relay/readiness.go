package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/models"
)

var (
	ErrNotReady         = errors.New("relays not ready")
	ErrNoEnabledRelays  = fmt.Errorf("%w: no relays enabled", ErrNotReady)
	ErrRelaysReadOnly   = fmt.Errorf("%w: relays are read-only for this account", ErrNotReady)
	ErrReadinessTimeout = fmt.Errorf("%w: timed out waiting for a relay connection", ErrNotReady)
)

// Lister is the read side of the relay repository.
type Lister interface {
	List(ctx context.Context) ([]models.Relay, error)
}

type Readiness struct {
	relays Lister
	live   func() bool
	log    logging.Logger
}

// NewReadiness builds a checker over the persisted relay list. live may be
// nil, in which case persisted statuses are trusted.
func NewReadiness(relays Lister, live func() bool, log logging.Logger) *Readiness {
	return &Readiness{relays: relays, live: live, log: log}
}

func (r *Readiness) Check(ctx context.Context) (Connectivity, error) {
	list, err := r.relays.List(ctx)
	if err != nil {
		return Offline, fmt.Errorf("failed to list relays: %w", err)
	}
	return Classify(list, r.live), nil
}

// Await blocks until a live connection exists, the verdict is definitively
// readOnly or noEnabledRelays, timeout elapses, or ctx is done. Connectivity
// is re-checked every poll interval.
func (r *Readiness) Await(ctx context.Context, timeout, poll time.Duration) error {
	if poll <= 0 {
		poll = timeout
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		state, err := r.Check(ctx)
		if err != nil {
			return err
		}
		switch state {
		case Online:
			return nil
		case NoEnabledRelays:
			return ErrNoEnabledRelays
		case ReadOnly:
			return ErrRelaysReadOnly
		}
		r.log.Debug(ctx, "waiting for relays", "state", string(state))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w (last state: %s)", ErrReadinessTimeout, state)
		case <-ticker.C:
		}
	}
}
