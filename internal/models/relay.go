package models

import "time"

// RelayStatus is the last known state of a single relay connection.
type RelayStatus string

const (
	RelayDisconnected RelayStatus = "disconnected"
	RelayConnecting   RelayStatus = "connecting"
	RelayReconnecting RelayStatus = "reconnecting"
	RelayConnected    RelayStatus = "connected"
	RelayReadOnly     RelayStatus = "read_only"
	RelayFailed       RelayStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s RelayStatus) Valid() bool {
	switch s {
	case RelayDisconnected, RelayConnecting, RelayReconnecting, RelayConnected, RelayReadOnly, RelayFailed:
		return true
	}
	return false
}

// Relay is device-wide configuration, not scoped to an identity.
type Relay struct {
	URL       string
	IsEnabled bool
	Status    RelayStatus
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}
