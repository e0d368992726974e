package models

import "time"

// ContactView is a decrypted contact. Fields that failed to decrypt are empty.
type ContactView struct {
	ID        string
	Pubkey    string
	NPub      string
	Alias     string
	CreatedAt time.Time
}

// DisplayName prefers the alias and falls back to the npub.
func (c ContactView) DisplayName() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.NPub
}

type SessionView struct {
	SessionID string
	Name      string
	CreatedBy string
	UpdatedAt time.Time
}

type MemberView struct {
	Pubkey    string
	IsActive  bool
	UpdatedAt time.Time
}

type ReactionView struct {
	PostID   string
	Emoji    string
	Sender   string
	IsActive bool
}

type MessageView struct {
	StorageID      string
	EventID        string
	Kind           MessageKind
	ConversationID string
	SessionID      string
	RootID         string
	Sender         string
	Receiver       string
	URL            string
	Note           string
	Timestamp      time.Time
	IsArchived     bool
	ReadAt         *time.Time
	LinkType       LinkType
	ThumbnailPath  string
	Title          string
	// Outbound is true when the owner sent the message.
	Outbound bool
}
