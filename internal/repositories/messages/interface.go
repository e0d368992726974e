// Package messages stores root posts and replies for both one-to-one
// conversations and group sessions.
package messages

import (
	"context"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/models"
)

type Repository interface {
	Get(ctx context.Context, storageID string) (*models.SessionMessage, error)
	// Upsert inserts a message or refreshes its content fields. Local state
	// (read marker, archive flag, cached media) survives a re-upsert.
	Upsert(ctx context.Context, m *models.SessionMessage) error

	ListByConversation(ctx context.Context, owner, conversationID string, includeArchived bool) ([]models.SessionMessage, error)
	ListBySession(ctx context.Context, owner, sessionID string, includeArchived bool) ([]models.SessionMessage, error)
	ListReplies(ctx context.Context, owner, rootID string) ([]models.SessionMessage, error)

	SetArchivedByConversation(ctx context.Context, owner, conversationID string, archived bool) (int64, error)
	SetArchivedBySession(ctx context.Context, owner, sessionID string, archived bool) (int64, error)

	// The Mark* methods only touch unread rows whose sender digest differs
	// from ownerDigest.
	MarkRootRead(ctx context.Context, owner, ownerDigest, postID string, at time.Time) (int64, error)
	MarkConversationRootsRead(ctx context.Context, owner, ownerDigest, conversationID string, at time.Time) (int64, error)
	MarkRepliesRead(ctx context.Context, owner, ownerDigest, rootID string, at time.Time) (int64, error)
	CountUnread(ctx context.Context, owner, ownerDigest, conversationID string) (int, error)

	SetCachedMedia(ctx context.Context, storageID, thumbnailPathEnc, titleEnc string) error
	ListThumbnailRefs(ctx context.Context, owner string) ([]string, error)

	DeleteByOwner(ctx context.Context, owner string) (int64, error)
}
