package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/models"
)

const (
	sessionColumns  = `storage_id, owner_pubkey, session_id, name_enc, created_by_enc, created_by_digest, updated_at`
	memberColumns   = `storage_id, owner_pubkey, session_id, member_enc, member_digest, is_active, updated_at`
	intervalColumns = `storage_id, owner_pubkey, session_id, member_digest, start_at, end_at`
	reactionColumns = `storage_id, owner_pubkey, session_id, post_id, emoji, sender_enc, sender_digest, is_active, updated_at`
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// sessions

func (r *SQLiteRepository) GetSession(ctx context.Context, storageID string) (*models.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE storage_id = ?`, storageID)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) UpsertSession(ctx context.Context, s *models.Session) error {
	query := `INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(storage_id) DO UPDATE SET
			name_enc = excluded.name_enc,
			created_by_enc = excluded.created_by_enc,
			created_by_digest = excluded.created_by_digest,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query, s.StorageID, s.OwnerPubkey, s.SessionID, s.NameEnc,
		s.CreatedByEnc, s.CreatedByDigest, dbx.Millis(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListSessions(ctx context.Context, owner string) ([]models.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE owner_pubkey = ? ORDER BY updated_at DESC, storage_id`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to select sessions: %w", err)
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func scanSession(s scanner) (*models.Session, error) {
	var out models.Session
	var updated int64
	if err := s.Scan(&out.StorageID, &out.OwnerPubkey, &out.SessionID, &out.NameEnc,
		&out.CreatedByEnc, &out.CreatedByDigest, &updated); err != nil {
		return nil, err
	}
	out.UpdatedAt = dbx.FromMillis(updated)
	return &out, nil
}

// members

func (r *SQLiteRepository) GetMember(ctx context.Context, storageID string) (*models.SessionMember, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM session_members WHERE storage_id = ?`, storageID)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session member: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) UpsertMember(ctx context.Context, m *models.SessionMember) error {
	query := `INSERT INTO session_members (` + memberColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(storage_id) DO UPDATE SET
			member_enc = excluded.member_enc,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query, m.StorageID, m.OwnerPubkey, m.SessionID, m.MemberEnc,
		m.MemberDigest, m.IsActive, dbx.Millis(m.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert session member: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListMembers(ctx context.Context, owner, sessionID string) ([]models.SessionMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM session_members WHERE owner_pubkey = ? AND session_id = ? ORDER BY updated_at, storage_id`,
		owner, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to select session members: %w", err)
	}
	defer rows.Close()

	var result []models.SessionMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

func scanMember(s scanner) (*models.SessionMember, error) {
	var m models.SessionMember
	var updated int64
	if err := s.Scan(&m.StorageID, &m.OwnerPubkey, &m.SessionID, &m.MemberEnc, &m.MemberDigest,
		&m.IsActive, &updated); err != nil {
		return nil, err
	}
	m.UpdatedAt = dbx.FromMillis(updated)
	return &m, nil
}

// intervals

func (r *SQLiteRepository) InsertInterval(ctx context.Context, iv *models.SessionMemberInterval) error {
	query := `INSERT INTO session_member_intervals (` + intervalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(storage_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, iv.StorageID, iv.OwnerPubkey, iv.SessionID, iv.MemberDigest,
		dbx.Millis(iv.StartAt), dbx.NullMillis(iv.EndAt))
	if err != nil {
		return fmt.Errorf("failed to insert member interval: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CloseOpenIntervals(ctx context.Context, owner, sessionID, memberDigest string, endAt time.Time) error {
	query := `UPDATE session_member_intervals SET end_at = ?
		WHERE owner_pubkey = ? AND session_id = ? AND member_digest = ? AND end_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, dbx.Millis(endAt), owner, sessionID, memberDigest); err != nil {
		return fmt.Errorf("failed to close member intervals: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListIntervals(ctx context.Context, owner, sessionID, memberDigest string) ([]models.SessionMemberInterval, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+intervalColumns+` FROM session_member_intervals
		WHERE owner_pubkey = ? AND session_id = ? AND member_digest = ? ORDER BY start_at`,
		owner, sessionID, memberDigest)
	if err != nil {
		return nil, fmt.Errorf("failed to select member intervals: %w", err)
	}
	defer rows.Close()

	var result []models.SessionMemberInterval
	for rows.Next() {
		var iv models.SessionMemberInterval
		var start int64
		var end sql.NullInt64
		if err := rows.Scan(&iv.StorageID, &iv.OwnerPubkey, &iv.SessionID, &iv.MemberDigest, &start, &end); err != nil {
			return nil, err
		}
		iv.StartAt = dbx.FromMillis(start)
		iv.EndAt = dbx.TimePtr(end)
		result = append(result, iv)
	}
	return result, rows.Err()
}

// reactions

func (r *SQLiteRepository) GetReaction(ctx context.Context, storageID string) (*models.SessionReaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reactionColumns+` FROM session_reactions WHERE storage_id = ?`, storageID)
	out, err := scanReaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reaction: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpsertReaction(ctx context.Context, re *models.SessionReaction) error {
	query := `INSERT INTO session_reactions (` + reactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(storage_id) DO UPDATE SET
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query, re.StorageID, re.OwnerPubkey, re.SessionID, re.PostID, re.Emoji,
		re.SenderEnc, re.SenderDigest, re.IsActive, dbx.Millis(re.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert reaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListReactions(ctx context.Context, owner, postID string) ([]models.SessionReaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reactionColumns+` FROM session_reactions WHERE owner_pubkey = ? AND post_id = ? ORDER BY updated_at, storage_id`,
		owner, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to select reactions: %w", err)
	}
	defer rows.Close()

	var result []models.SessionReaction
	for rows.Next() {
		re, err := scanReaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *re)
	}
	return result, rows.Err()
}

func scanReaction(s scanner) (*models.SessionReaction, error) {
	var re models.SessionReaction
	var updated int64
	if err := s.Scan(&re.StorageID, &re.OwnerPubkey, &re.SessionID, &re.PostID, &re.Emoji,
		&re.SenderEnc, &re.SenderDigest, &re.IsActive, &updated); err != nil {
		return nil, err
	}
	re.UpdatedAt = dbx.FromMillis(updated)
	return &re, nil
}

func (r *SQLiteRepository) DeleteByOwner(ctx context.Context, owner string) error {
	for _, table := range []string{"session_reactions", "session_member_intervals", "session_members", "sessions"} {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE owner_pubkey = ?`, owner); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}
	return nil
}
