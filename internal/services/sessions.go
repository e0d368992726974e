package services

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/cryptox"
	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/models"
)

type SessionUpsert struct {
	Owner     string
	SessionID string
	Name      string
	CreatedBy string
	UpdatedAt time.Time
}

type MemberUpsert struct {
	Owner     string
	SessionID string
	Member    string
	IsActive  bool
	UpdatedAt time.Time
}

type ReactionUpsert struct {
	Owner     string
	SessionID string
	PostID    string
	Emoji     string
	Sender    string
	IsActive  bool
	UpdatedAt time.Time
}

// SessionService stores group sessions and their members and reactions.
//
// Upsert is idempotent per (owner, session id). A non-empty incoming name
// always replaces the stored one, even from an older event, while the
// updatedAt watermark only moves forward. Members and reactions are
// last-writer-wins by updatedAt; older updates are ignored and reported
// as not applied.
type SessionService interface {
	Upsert(ctx context.Context, in SessionUpsert) error
	Get(ctx context.Context, owner, sessionID string) (*models.SessionView, error)
	List(ctx context.Context, owner string) ([]models.SessionView, error)
	UpsertMember(ctx context.Context, in MemberUpsert) (bool, error)
	UpsertReaction(ctx context.Context, in ReactionUpsert) (bool, error)
	WasMemberActiveAt(ctx context.Context, owner, sessionID, member string, at time.Time) (bool, error)
	ListMembers(ctx context.Context, owner, sessionID string) ([]models.MemberView, error)
	ListReactions(ctx context.Context, owner, postID string) ([]models.ReactionView, error)
}

type sessionService struct {
	db     *sql.DB
	cipher *cryptox.AccountCipher
	log    logging.Logger
}

func NewSessionService(db *sql.DB, cipher *cryptox.AccountCipher, log logging.Logger) SessionService {
	return &sessionService{db: db, cipher: cipher, log: log}
}

func (s *sessionService) Upsert(ctx context.Context, in SessionUpsert) error {
	owner, err := normalizeOwner(in.Owner)
	if err != nil {
		return err
	}
	if in.SessionID == "" {
		return common.ErrEmptyField
	}
	storageID := cryptox.StorageID(owner, domainSession, in.SessionID)
	name := strings.TrimSpace(in.Name)
	createdBy := strings.ToLower(strings.TrimSpace(in.CreatedBy))

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		st := newStores(tx)
		cur, err := st.sessions.GetSession(ctx, storageID)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			cur = &models.Session{StorageID: storageID, OwnerPubkey: owner, SessionID: in.SessionID}
		case err != nil:
			return err
		}

		if name != "" {
			if cur.NameEnc, err = s.cipher.Seal(ctx, name, owner); err != nil {
				return err
			}
		}
		if cur.CreatedByDigest == "" && createdBy != "" {
			if cur.CreatedByEnc, err = s.cipher.Seal(ctx, createdBy, owner); err != nil {
				return err
			}
			if cur.CreatedByDigest, err = s.cipher.Digest(ctx, createdBy); err != nil {
				return err
			}
		}
		if in.UpdatedAt.After(cur.UpdatedAt) {
			cur.UpdatedAt = dbx.FromMillis(dbx.Millis(in.UpdatedAt))
		}
		return st.sessions.UpsertSession(ctx, cur)
	})
}

func (s *sessionService) Get(ctx context.Context, owner, sessionID string) (*models.SessionView, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	row, err := newStores(s.db).sessions.GetSession(ctx, cryptox.StorageID(owner, domainSession, sessionID))
	if err != nil {
		return nil, err
	}
	v := s.sessionView(ctx, row)
	return &v, nil
}

func (s *sessionService) List(ctx context.Context, owner string) ([]models.SessionView, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	rows, err := newStores(s.db).sessions.ListSessions(ctx, owner)
	if err != nil {
		return nil, err
	}
	result := make([]models.SessionView, 0, len(rows))
	for i := range rows {
		result = append(result, s.sessionView(ctx, &rows[i]))
	}
	return result, nil
}

func (s *sessionService) sessionView(ctx context.Context, row *models.Session) models.SessionView {
	return models.SessionView{
		SessionID: row.SessionID,
		Name:      open(ctx, s.cipher, row.NameEnc, row.OwnerPubkey),
		CreatedBy: open(ctx, s.cipher, row.CreatedByEnc, row.OwnerPubkey),
		UpdatedAt: row.UpdatedAt,
	}
}

// UpsertMember records a membership change. Activation opens an activity
// interval at UpdatedAt and deactivation closes the open one.
func (s *sessionService) UpsertMember(ctx context.Context, in MemberUpsert) (bool, error) {
	owner, err := normalizeOwner(in.Owner)
	if err != nil {
		return false, err
	}
	member := strings.ToLower(strings.TrimSpace(in.Member))
	if in.SessionID == "" || member == "" {
		return false, common.ErrEmptyField
	}
	storageID := cryptox.StorageID(owner, domainMember, in.SessionID, member)
	at := dbx.FromMillis(dbx.Millis(in.UpdatedAt))

	applied := false
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		st := newStores(tx)
		cur, err := st.sessions.GetMember(ctx, storageID)
		wasActive := false
		switch {
		case errors.Is(err, common.ErrorNotFound):
			cur = nil
		case err != nil:
			return err
		default:
			if at.Before(cur.UpdatedAt) {
				return nil
			}
			wasActive = cur.IsActive
		}

		m := &models.SessionMember{
			StorageID:   storageID,
			OwnerPubkey: owner,
			SessionID:   in.SessionID,
			IsActive:    in.IsActive,
			UpdatedAt:   at,
		}
		if m.MemberEnc, err = s.cipher.Seal(ctx, member, owner); err != nil {
			return err
		}
		if m.MemberDigest, err = s.cipher.Digest(ctx, member); err != nil {
			return err
		}
		if err := st.sessions.UpsertMember(ctx, m); err != nil {
			return err
		}

		switch {
		case in.IsActive && !wasActive:
			err = st.sessions.InsertInterval(ctx, &models.SessionMemberInterval{
				StorageID:    cryptox.StorageID(owner, domainInterval, in.SessionID, member, strconv.FormatInt(dbx.Millis(at), 10)),
				OwnerPubkey:  owner,
				SessionID:    in.SessionID,
				MemberDigest: m.MemberDigest,
				StartAt:      at,
			})
		case !in.IsActive && wasActive:
			err = st.sessions.CloseOpenIntervals(ctx, owner, in.SessionID, m.MemberDigest, at)
		}
		if err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// WasMemberActiveAt reports whether member had an activity interval
// covering at. Intervals are half-open: [start, end).
func (s *sessionService) WasMemberActiveAt(ctx context.Context, owner, sessionID, member string, at time.Time) (bool, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return false, err
	}
	digest, err := s.cipher.Digest(ctx, strings.ToLower(strings.TrimSpace(member)))
	if err != nil {
		return false, err
	}
	ivs, err := newStores(s.db).sessions.ListIntervals(ctx, owner, sessionID, digest)
	if err != nil {
		return false, err
	}
	for _, iv := range ivs {
		if at.Before(iv.StartAt) {
			continue
		}
		if iv.EndAt == nil || at.Before(*iv.EndAt) {
			return true, nil
		}
	}
	return false, nil
}

func (s *sessionService) ListMembers(ctx context.Context, owner, sessionID string) ([]models.MemberView, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	rows, err := newStores(s.db).sessions.ListMembers(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	result := make([]models.MemberView, 0, len(rows))
	for _, r := range rows {
		result = append(result, models.MemberView{
			Pubkey:    open(ctx, s.cipher, r.MemberEnc, owner),
			IsActive:  r.IsActive,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return result, nil
}

func (s *sessionService) UpsertReaction(ctx context.Context, in ReactionUpsert) (bool, error) {
	owner, err := normalizeOwner(in.Owner)
	if err != nil {
		return false, err
	}
	sender := strings.ToLower(strings.TrimSpace(in.Sender))
	if in.SessionID == "" || in.PostID == "" || in.Emoji == "" || sender == "" {
		return false, common.ErrEmptyField
	}
	storageID := cryptox.StorageID(owner, domainReaction, in.SessionID, in.PostID, in.Emoji, sender)
	at := dbx.FromMillis(dbx.Millis(in.UpdatedAt))

	applied := false
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		st := newStores(tx)
		cur, err := st.sessions.GetReaction(ctx, storageID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		if cur != nil && at.Before(cur.UpdatedAt) {
			return nil
		}

		r := &models.SessionReaction{
			StorageID:   storageID,
			OwnerPubkey: owner,
			SessionID:   in.SessionID,
			PostID:      in.PostID,
			Emoji:       in.Emoji,
			IsActive:    in.IsActive,
			UpdatedAt:   at,
		}
		if r.SenderEnc, err = s.cipher.Seal(ctx, sender, owner); err != nil {
			return err
		}
		if r.SenderDigest, err = s.cipher.Digest(ctx, sender); err != nil {
			return err
		}
		if err := st.sessions.UpsertReaction(ctx, r); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func (s *sessionService) ListReactions(ctx context.Context, owner, postID string) ([]models.ReactionView, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	rows, err := newStores(s.db).sessions.ListReactions(ctx, owner, postID)
	if err != nil {
		return nil, err
	}
	result := make([]models.ReactionView, 0, len(rows))
	for _, r := range rows {
		result = append(result, models.ReactionView{
			PostID:   r.PostID,
			Emoji:    r.Emoji,
			Sender:   open(ctx, s.cipher, r.SenderEnc, owner),
			IsActive: r.IsActive,
		})
	}
	return result, nil
}
