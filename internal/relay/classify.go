package relay

import "github.com/dmitrijs2005/linkdrop/internal/models"

// Connectivity is the aggregate verdict over the enabled relay set.
type Connectivity string

const (
	NoEnabledRelays Connectivity = "noEnabledRelays"
	Online          Connectivity = "online"
	ReadOnly        Connectivity = "readOnly"
	Connecting      Connectivity = "connecting"
	Reconnecting    Connectivity = "reconnecting"
	Offline         Connectivity = "offline"
)

// Reason is the user-facing description of the verdict.
func (c Connectivity) Reason() string {
	switch c {
	case NoEnabledRelays:
		return "no relays enabled"
	case Online:
		return "online"
	case ReadOnly:
		return "relays are read-only for this account"
	case Connecting:
		return "connecting to relays"
	case Reconnecting:
		return "reconnecting to relays"
	default:
		return "offline"
	}
}

// Classify evaluates relays in precedence order: noEnabledRelays, online,
// readOnly, connecting, reconnecting, offline. Disabled relays are ignored.
//
// live is the transport's socket check. When it is nil the persisted
// connected status is trusted; otherwise only live() decides online, and a
// persisted connected relay without a live socket counts as reconnecting.
func Classify(relays []models.Relay, live func() bool) Connectivity {
	var enabled, readOnly, connecting, reconnecting, connected int
	for _, r := range relays {
		if !r.IsEnabled {
			continue
		}
		enabled++
		switch r.Status {
		case models.RelayConnected:
			connected++
		case models.RelayReadOnly:
			readOnly++
		case models.RelayConnecting:
			connecting++
		case models.RelayReconnecting:
			reconnecting++
		}
	}

	if enabled == 0 {
		return NoEnabledRelays
	}
	if live == nil {
		if connected > 0 {
			return Online
		}
	} else {
		if live() {
			return Online
		}
		reconnecting += connected
	}

	switch {
	case readOnly > 0:
		return ReadOnly
	case connecting > 0:
		return Connecting
	case reconnecting > 0:
		return Reconnecting
	default:
		return Offline
	}
}
