package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/models"
)

type Repository interface {
	GetSession(ctx context.Context, storageID string) (*models.Session, error)
	UpsertSession(ctx context.Context, s *models.Session) error
	ListSessions(ctx context.Context, owner string) ([]models.Session, error)

	GetMember(ctx context.Context, storageID string) (*models.SessionMember, error)
	UpsertMember(ctx context.Context, m *models.SessionMember) error
	ListMembers(ctx context.Context, owner, sessionID string) ([]models.SessionMember, error)

	InsertInterval(ctx context.Context, iv *models.SessionMemberInterval) error
	// CloseOpenIntervals sets end_at on every open interval of the member.
	CloseOpenIntervals(ctx context.Context, owner, sessionID, memberDigest string, endAt time.Time) error
	ListIntervals(ctx context.Context, owner, sessionID, memberDigest string) ([]models.SessionMemberInterval, error)

	GetReaction(ctx context.Context, storageID string) (*models.SessionReaction, error)
	UpsertReaction(ctx context.Context, r *models.SessionReaction) error
	ListReactions(ctx context.Context, owner, postID string) ([]models.SessionReaction, error)

	// DeleteByOwner removes sessions, members, intervals and reactions.
	DeleteByOwner(ctx context.Context, owner string) error
}
