// Package transport defines the contract between the store and the relay
// network. The store never speaks the wire protocol itself; it hands an
// opaque payload to a Publisher and consumes asynchronous status updates.
package transport

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/linkdrop/internal/models"
)

// Envelope is a signed event ready to be sent. ID is final once Prepare
// returns, so callers may persist it before the relays accept the event.
type Envelope struct {
	ID     string
	Target string
	// Event is the wire encoding of the signed event.
	Event []byte
}

// Publisher sends payloads to a target identity in two steps.
type Publisher interface {
	// Prepare encrypts payload to targetPubkey and signs the event.
	Prepare(payload []byte, targetPubkey string) (Envelope, error)
	// Send hands env to the relays. A relay-side refusal is reported as
	// *RejectedError.
	Send(ctx context.Context, env Envelope) error
	// HasLiveConnection reports whether at least one relay socket is open
	// and usable for writing right now.
	HasLiveConnection() bool
}

// StatusUpdate is a push notification about a single relay.
type StatusUpdate struct {
	URL    string
	Status models.RelayStatus
	Err    string
}

// RejectedError carries the relay's own reason for refusing an event.
type RejectedError struct {
	Relay  string
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Relay == "" {
		return fmt.Sprintf("publish rejected: %s", e.Reason)
	}
	return fmt.Sprintf("publish rejected by %s: %s", e.Relay, e.Reason)
}
