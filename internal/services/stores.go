package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/cryptox"
	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/accounts"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/contacts"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/messages"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/settings"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/relays"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/sessions"
)

// Storage id domains.
const (
	domainMessage  = "session-message"
	domainSession  = "session"
	domainMember   = "session-member"
	domainInterval = "session-member-interval"
	domainReaction = "session-reaction"
)

// stores bundles every repository bound to the same handle.
type stores struct {
	contacts contacts.Repository
	sessions sessions.Repository
	messages messages.Repository
	accounts accounts.Repository
	relays   relays.Repository
	settings settings.Repository
}

func newStores(db dbx.DBTX) stores {
	return stores{
		contacts: contacts.NewSQLiteRepository(db),
		sessions: sessions.NewSQLiteRepository(db),
		messages: messages.NewSQLiteRepository(db),
		accounts: accounts.NewSQLiteRepository(db),
		relays:   relays.NewSQLiteRepository(db),
		settings: settings.NewSQLiteRepository(db),
	}
}

func normalizeOwner(owner string) (string, error) {
	owner = strings.ToLower(strings.TrimSpace(owner))
	if owner == "" {
		return "", common.ErrNotLoggedIn
	}
	return owner, nil
}

// open decrypts v for owner and returns "" when it cannot.
func open(ctx context.Context, c *cryptox.AccountCipher, v, owner string) string {
	p, _ := c.Open(ctx, v, owner)
	return p
}
