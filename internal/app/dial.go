package app

import (
	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/nostrx"
)

// DialNostr is the production Dialer.
func DialNostr(secretHex string, log logging.Logger) (Connection, error) {
	t, err := nostrx.NewTransport(secretHex, log)
	if err != nil {
		return nil, err
	}
	return t, nil
}
