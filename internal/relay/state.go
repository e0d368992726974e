// Package relay aggregates per-relay health into a single connectivity
// verdict and implements the bounded wait that gates outbound sends.
package relay

import "github.com/dmitrijs2005/linkdrop/internal/models"

var transitions = map[models.RelayStatus][]models.RelayStatus{
	models.RelayDisconnected: {models.RelayConnecting, models.RelayReconnecting},
	models.RelayConnecting:   {models.RelayConnected, models.RelayReadOnly, models.RelayFailed, models.RelayDisconnected},
	models.RelayReconnecting: {models.RelayConnected, models.RelayReadOnly, models.RelayFailed, models.RelayDisconnected},
	models.RelayConnected:    {models.RelayDisconnected, models.RelayReconnecting, models.RelayReadOnly, models.RelayFailed},
	models.RelayReadOnly:     {models.RelayDisconnected, models.RelayReconnecting, models.RelayConnected, models.RelayFailed},
	models.RelayFailed:       {models.RelayConnecting, models.RelayReconnecting, models.RelayDisconnected},
}

// CanTransition reports whether a relay may move from one status to
// another. Repeating the current status is always allowed. No status is
// terminal: failed and disconnected relays can always be retried.
func CanTransition(from, to models.RelayStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
