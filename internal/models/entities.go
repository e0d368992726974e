package models

import "time"

// MessageKind distinguishes a shared link (root) from a comment on it (reply).
type MessageKind string

const (
	KindRoot  MessageKind = "root"
	KindReply MessageKind = "reply"
)

// Contact is a peer saved by a local identity.
type Contact struct {
	ID           string
	OwnerPubkey  string
	TargetEnc    string
	TargetDigest string
	AliasEnc     string
	CreatedAt    time.Time
}

// Session is a group conversation.
type Session struct {
	StorageID       string
	OwnerPubkey     string
	SessionID       string
	NameEnc         string
	CreatedByEnc    string
	CreatedByDigest string
	// UpdatedAt is a watermark and never moves backward.
	UpdatedAt time.Time
}

type SessionMember struct {
	StorageID    string
	OwnerPubkey  string
	SessionID    string
	MemberEnc    string
	MemberDigest string
	IsActive     bool
	UpdatedAt    time.Time
}

// SessionMemberInterval records a span during which a member was active.
// EndAt is nil while the span is open.
type SessionMemberInterval struct {
	StorageID    string
	OwnerPubkey  string
	SessionID    string
	MemberDigest string
	StartAt      time.Time
	EndAt        *time.Time
}

type SessionReaction struct {
	StorageID    string
	OwnerPubkey  string
	SessionID    string
	PostID       string
	Emoji        string
	SenderEnc    string
	SenderDigest string
	IsActive     bool
	UpdatedAt    time.Time
}

// SessionMessage is a root post or a reply, either in a one-to-one
// conversation (ConversationID) or in a session (SessionID).
type SessionMessage struct {
	StorageID      string
	OwnerPubkey    string
	EventID        string
	Kind           MessageKind
	ConversationID string
	SessionID      string
	// RootID is EventID for a root and the parent's EventID for a reply.
	RootID         string
	SenderEnc      string
	SenderDigest   string
	ReceiverEnc    string
	ReceiverDigest string
	// URLEnc is set on roots only, NoteEnc on replies only.
	URLEnc           string
	NoteEnc          string
	Timestamp        time.Time
	IsArchived       bool
	ReadAt           *time.Time
	LinkType         LinkType
	ThumbnailPathEnc string
	TitleEnc         string
}

// AccountWatermark tracks the newest follow list seen for an owner.
type AccountWatermark struct {
	OwnerPubkey         string
	FollowListUpdatedAt time.Time
	FollowListEventID   string
}
