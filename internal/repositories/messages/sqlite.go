package messages

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

const columns = `storage_id, owner_pubkey, event_id, kind, conversation_id, session_id, root_id,
	sender_enc, sender_digest, receiver_enc, receiver_digest, url_enc, note_enc, timestamp,
	is_archived, read_at, link_type, thumbnail_path_enc, title_enc`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(s scanner) (*models.SessionMessage, error) {
	var m models.SessionMessage
	var kind, linkType string
	var ts int64
	var readAt sql.NullInt64
	err := s.Scan(&m.StorageID, &m.OwnerPubkey, &m.EventID, &kind, &m.ConversationID, &m.SessionID, &m.RootID,
		&m.SenderEnc, &m.SenderDigest, &m.ReceiverEnc, &m.ReceiverDigest, &m.URLEnc, &m.NoteEnc, &ts,
		&m.IsArchived, &readAt, &linkType, &m.ThumbnailPathEnc, &m.TitleEnc)
	if err != nil {
		return nil, err
	}
	m.Kind = models.MessageKind(kind)
	m.LinkType = models.LinkType(linkType)
	m.Timestamp = dbx.FromMillis(ts)
	m.ReadAt = dbx.TimePtr(readAt)
	return &m, nil
}

func (r *SQLiteRepository) query(ctx context.Context, q string, args ...any) ([]models.SessionMessage, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()

	var result []models.SessionMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) exec(ctx context.Context, op, q string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to %s: %w", op, err)
	}
	return n, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, storageID string) (*models.SessionMessage, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM session_messages WHERE storage_id = ?`, storageID)
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, m *models.SessionMessage) error {
	q := `INSERT INTO session_messages (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(storage_id) DO UPDATE SET
			sender_enc = excluded.sender_enc,
			sender_digest = excluded.sender_digest,
			receiver_enc = excluded.receiver_enc,
			receiver_digest = excluded.receiver_digest,
			url_enc = excluded.url_enc,
			note_enc = excluded.note_enc,
			link_type = excluded.link_type,
			timestamp = excluded.timestamp`

	linkType := m.LinkType
	if linkType == "" {
		linkType = models.LinkGeneric
	}
	_, err := r.db.ExecContext(ctx, q, m.StorageID, m.OwnerPubkey, m.EventID, string(m.Kind), m.ConversationID,
		m.SessionID, m.RootID, m.SenderEnc, m.SenderDigest, m.ReceiverEnc, m.ReceiverDigest, m.URLEnc, m.NoteEnc,
		dbx.Millis(m.Timestamp), m.IsArchived, dbx.NullMillis(m.ReadAt), string(linkType), m.ThumbnailPathEnc, m.TitleEnc)
	if err != nil {
		return fmt.Errorf("failed to upsert message: %w", err)
	}
	return nil
}

func archivedFilter(include bool) string {
	if include {
		return ""
	}
	return ` AND is_archived = 0`
}

func (r *SQLiteRepository) ListByConversation(ctx context.Context, owner, conversationID string, includeArchived bool) ([]models.SessionMessage, error) {
	return r.query(ctx, `SELECT `+columns+` FROM session_messages
		WHERE owner_pubkey = ? AND conversation_id = ? AND kind = 'root'`+archivedFilter(includeArchived)+`
		ORDER BY timestamp, storage_id`, owner, conversationID)
}

func (r *SQLiteRepository) ListBySession(ctx context.Context, owner, sessionID string, includeArchived bool) ([]models.SessionMessage, error) {
	return r.query(ctx, `SELECT `+columns+` FROM session_messages
		WHERE owner_pubkey = ? AND session_id = ? AND kind = 'root'`+archivedFilter(includeArchived)+`
		ORDER BY timestamp, storage_id`, owner, sessionID)
}

func (r *SQLiteRepository) ListReplies(ctx context.Context, owner, rootID string) ([]models.SessionMessage, error) {
	return r.query(ctx, `SELECT `+columns+` FROM session_messages
		WHERE owner_pubkey = ? AND root_id = ? AND kind = 'reply'
		ORDER BY timestamp, storage_id`, owner, rootID)
}

func (r *SQLiteRepository) SetArchivedByConversation(ctx context.Context, owner, conversationID string, archived bool) (int64, error) {
	return r.exec(ctx, "archive conversation",
		`UPDATE session_messages SET is_archived = ? WHERE owner_pubkey = ? AND conversation_id = ? AND kind = 'root'`,
		archived, owner, conversationID)
}

func (r *SQLiteRepository) SetArchivedBySession(ctx context.Context, owner, sessionID string, archived bool) (int64, error) {
	return r.exec(ctx, "archive session",
		`UPDATE session_messages SET is_archived = ? WHERE owner_pubkey = ? AND session_id = ? AND kind = 'root'`,
		archived, owner, sessionID)
}

const unreadInbound = ` AND sender_digest <> ? AND read_at IS NULL`

func (r *SQLiteRepository) MarkRootRead(ctx context.Context, owner, ownerDigest, postID string, at time.Time) (int64, error) {
	return r.exec(ctx, "mark post read",
		`UPDATE session_messages SET read_at = ?
		WHERE owner_pubkey = ? AND kind = 'root' AND event_id = ?`+unreadInbound,
		dbx.Millis(at), owner, postID, ownerDigest)
}

func (r *SQLiteRepository) MarkConversationRootsRead(ctx context.Context, owner, ownerDigest, conversationID string, at time.Time) (int64, error) {
	return r.exec(ctx, "mark conversation read",
		`UPDATE session_messages SET read_at = ?
		WHERE owner_pubkey = ? AND kind = 'root' AND conversation_id = ?`+unreadInbound,
		dbx.Millis(at), owner, conversationID, ownerDigest)
}

func (r *SQLiteRepository) MarkRepliesRead(ctx context.Context, owner, ownerDigest, rootID string, at time.Time) (int64, error) {
	return r.exec(ctx, "mark replies read",
		`UPDATE session_messages SET read_at = ?
		WHERE owner_pubkey = ? AND kind = 'reply' AND root_id = ?`+unreadInbound,
		dbx.Millis(at), owner, rootID, ownerDigest)
}

func (r *SQLiteRepository) CountUnread(ctx context.Context, owner, ownerDigest, conversationID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM session_messages
		WHERE owner_pubkey = ? AND kind = 'root' AND conversation_id = ? AND is_archived = 0`+unreadInbound,
		owner, conversationID, ownerDigest).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) SetCachedMedia(ctx context.Context, storageID, thumbnailPathEnc, titleEnc string) error {
	n, err := r.exec(ctx, "set cached media",
		`UPDATE session_messages SET thumbnail_path_enc = ?, title_enc = ? WHERE storage_id = ?`,
		thumbnailPathEnc, titleEnc, storageID)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// ListThumbnailRefs returns the encrypted thumbnail paths of the owner.
func (r *SQLiteRepository) ListThumbnailRefs(ctx context.Context, owner string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT thumbnail_path_enc FROM session_messages WHERE owner_pubkey = ? AND thumbnail_path_enc <> ''`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to select thumbnails: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	return r.exec(ctx, "delete messages", `DELETE FROM session_messages WHERE owner_pubkey = ?`, owner)
}
