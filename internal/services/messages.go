package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/conversation"
	"github.com/dmitrijs2005/linkdrop/internal/cryptox"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/nostrx"
)

// MessageRecord is a root post or reply as observed or sent by owner.
type MessageRecord struct {
	Owner          string
	EventID        string
	Kind           models.MessageKind
	ConversationID string
	SessionID      string
	// RootID is ignored for roots.
	RootID    string
	Sender    string
	Receiver  string
	URL       string
	Note      string
	Timestamp time.Time
}

// MessageService stores and queries posts.
//
// Read markers only ever touch inbound rows, i.e. rows whose sender digest
// differs from the owner's. Archiving applies to root rows only.
type MessageService interface {
	Record(ctx context.Context, in MessageRecord) (*models.MessageView, error)
	Get(ctx context.Context, owner, eventID string) (*models.MessageView, error)
	SetSessionArchived(ctx context.Context, owner, sessionID string, archived bool) (int64, error)
	SetConversationArchived(ctx context.Context, owner, conversationID string, archived bool) (int64, error)
	MarkRootPostRead(ctx context.Context, owner, postID string) (int64, error)
	MarkConversationPostsRead(ctx context.Context, owner, conversationID string) (int64, error)
	MarkPostRepliesRead(ctx context.Context, owner, postID string) (int64, error)
	ListConversation(ctx context.Context, owner, conversationID string, includeArchived bool) ([]models.MessageView, error)
	ListSession(ctx context.Context, owner, sessionID string, includeArchived bool) ([]models.MessageView, error)
	ListReplies(ctx context.Context, owner, postID string) ([]models.MessageView, error)
	UnreadCount(ctx context.Context, owner, conversationID string) (int, error)
	SetCachedMedia(ctx context.Context, owner, eventID, thumbnailPath, title string) error
}

type messageService struct {
	db     *sql.DB
	cipher *cryptox.AccountCipher
	log    logging.Logger
	now    func() time.Time
}

func NewMessageService(db *sql.DB, cipher *cryptox.AccountCipher, log logging.Logger) MessageService {
	return &messageService{db: db, cipher: cipher, log: log, now: time.Now}
}

func normalizeParty(v string) (string, error) {
	if strings.TrimSpace(v) == "" {
		return "", nil
	}
	return nostrx.NormalizePubkey(v)
}

func (s *messageService) Record(ctx context.Context, in MessageRecord) (*models.MessageView, error) {
	owner, err := normalizeOwner(in.Owner)
	if err != nil {
		return nil, err
	}
	if in.EventID == "" {
		return nil, fmt.Errorf("%w: event id", common.ErrEmptyField)
	}
	sender, err := normalizeParty(in.Sender)
	if err != nil {
		return nil, err
	}
	if sender == "" {
		return nil, fmt.Errorf("%w: sender", common.ErrEmptyField)
	}
	receiver, err := normalizeParty(in.Receiver)
	if err != nil {
		return nil, err
	}

	m := &models.SessionMessage{
		StorageID:      cryptox.StorageID(owner, domainMessage, in.EventID),
		OwnerPubkey:    owner,
		EventID:        in.EventID,
		Kind:           in.Kind,
		ConversationID: in.ConversationID,
		SessionID:      in.SessionID,
		RootID:         in.RootID,
		Timestamp:      in.Timestamp.UTC(),
		LinkType:       models.LinkGeneric,
	}
	if m.ConversationID == "" && m.SessionID == "" {
		if receiver == "" {
			return nil, fmt.Errorf("%w: conversation or session id", common.ErrEmptyField)
		}
		m.ConversationID = conversation.ID(sender, receiver)
	}

	var url, note string
	switch in.Kind {
	case models.KindRoot:
		if err := models.ValidateHTTPURL(in.URL); err != nil {
			return nil, err
		}
		if strings.TrimSpace(in.Note) != "" {
			return nil, fmt.Errorf("%w: root post must not carry a note", common.ErrValidation)
		}
		m.RootID = in.EventID
		m.LinkType = models.ClassifyLink(in.URL)
		url = in.URL
	case models.KindReply:
		if in.RootID == "" {
			return nil, fmt.Errorf("%w: root id", common.ErrEmptyField)
		}
		if strings.TrimSpace(in.Note) == "" {
			return nil, fmt.Errorf("%w: note", common.ErrEmptyField)
		}
		if in.URL != "" {
			return nil, fmt.Errorf("%w: reply must not carry a url", common.ErrValidation)
		}
		note = in.Note
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", common.ErrValidation, in.Kind)
	}

	if m.SenderEnc, err = s.cipher.Seal(ctx, sender, owner); err != nil {
		return nil, err
	}
	if m.SenderDigest, err = s.cipher.Digest(ctx, sender); err != nil {
		return nil, err
	}
	if m.ReceiverEnc, err = s.cipher.Seal(ctx, receiver, owner); err != nil {
		return nil, err
	}
	if receiver != "" {
		if m.ReceiverDigest, err = s.cipher.Digest(ctx, receiver); err != nil {
			return nil, err
		}
	}
	if m.URLEnc, err = s.cipher.Seal(ctx, url, owner); err != nil {
		return nil, err
	}
	if m.NoteEnc, err = s.cipher.Seal(ctx, note, owner); err != nil {
		return nil, err
	}

	repo := newStores(s.db).messages
	if err := repo.Upsert(ctx, m); err != nil {
		return nil, err
	}
	stored, err := repo.Get(ctx, m.StorageID)
	if err != nil {
		return nil, err
	}
	ownerDigest, err := s.cipher.Digest(ctx, owner)
	if err != nil {
		return nil, err
	}
	v := s.view(ctx, stored, ownerDigest)
	return &v, nil
}

func (s *messageService) Get(ctx context.Context, owner, eventID string) (*models.MessageView, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	row, err := newStores(s.db).messages.Get(ctx, cryptox.StorageID(owner, domainMessage, eventID))
	if err != nil {
		return nil, err
	}
	ownerDigest, err := s.cipher.Digest(ctx, owner)
	if err != nil {
		return nil, err
	}
	v := s.view(ctx, row, ownerDigest)
	return &v, nil
}

func (s *messageService) view(ctx context.Context, m *models.SessionMessage, ownerDigest string) models.MessageView {
	owner := m.OwnerPubkey
	return models.MessageView{
		StorageID:      m.StorageID,
		EventID:        m.EventID,
		Kind:           m.Kind,
		ConversationID: m.ConversationID,
		SessionID:      m.SessionID,
		RootID:         m.RootID,
		Sender:         open(ctx, s.cipher, m.SenderEnc, owner),
		Receiver:       open(ctx, s.cipher, m.ReceiverEnc, owner),
		URL:            open(ctx, s.cipher, m.URLEnc, owner),
		Note:           open(ctx, s.cipher, m.NoteEnc, owner),
		Timestamp:      m.Timestamp,
		IsArchived:     m.IsArchived,
		ReadAt:         m.ReadAt,
		LinkType:       m.LinkType,
		ThumbnailPath:  open(ctx, s.cipher, m.ThumbnailPathEnc, owner),
		Title:          open(ctx, s.cipher, m.TitleEnc, owner),
		Outbound:       m.SenderDigest == ownerDigest,
	}
}

func (s *messageService) views(ctx context.Context, owner string, rows []models.SessionMessage) ([]models.MessageView, error) {
	ownerDigest, err := s.cipher.Digest(ctx, owner)
	if err != nil {
		return nil, err
	}
	result := make([]models.MessageView, 0, len(rows))
	for i := range rows {
		result = append(result, s.view(ctx, &rows[i], ownerDigest))
	}
	return result, nil
}

func (s *messageService) SetSessionArchived(ctx context.Context, owner, sessionID string, archived bool) (int64, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return 0, err
	}
	return newStores(s.db).messages.SetArchivedBySession(ctx, owner, sessionID, archived)
}

func (s *messageService) SetConversationArchived(ctx context.Context, owner, conversationID string, archived bool) (int64, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return 0, err
	}
	return newStores(s.db).messages.SetArchivedByConversation(ctx, owner, conversationID, archived)
}

type markFunc func(ctx context.Context, owner, ownerDigest, scope string, at time.Time) (int64, error)

func (s *messageService) mark(ctx context.Context, owner, scope string, fn func(st stores) markFunc) (int64, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return 0, err
	}
	ownerDigest, err := s.cipher.Digest(ctx, owner)
	if err != nil {
		return 0, err
	}
	return fn(newStores(s.db))(ctx, owner, ownerDigest, scope, s.now().UTC())
}

func (s *messageService) MarkRootPostRead(ctx context.Context, owner, postID string) (int64, error) {
	return s.mark(ctx, owner, postID, func(st stores) markFunc { return st.messages.MarkRootRead })
}

func (s *messageService) MarkConversationPostsRead(ctx context.Context, owner, conversationID string) (int64, error) {
	return s.mark(ctx, owner, conversationID, func(st stores) markFunc { return st.messages.MarkConversationRootsRead })
}

func (s *messageService) MarkPostRepliesRead(ctx context.Context, owner, postID string) (int64, error) {
	return s.mark(ctx, owner, postID, func(st stores) markFunc { return st.messages.MarkRepliesRead })
}

func (s *messageService) ListConversation(ctx context.Context, owner, conversationID string, includeArchived bool) ([]models.MessageView, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	rows, err := newStores(s.db).messages.ListByConversation(ctx, owner, conversationID, includeArchived)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, owner, rows)
}

func (s *messageService) ListSession(ctx context.Context, owner, sessionID string, includeArchived bool) ([]models.MessageView, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	rows, err := newStores(s.db).messages.ListBySession(ctx, owner, sessionID, includeArchived)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, owner, rows)
}

func (s *messageService) ListReplies(ctx context.Context, owner, postID string) ([]models.MessageView, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	rows, err := newStores(s.db).messages.ListReplies(ctx, owner, postID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, owner, rows)
}

func (s *messageService) UnreadCount(ctx context.Context, owner, conversationID string) (int, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return 0, err
	}
	ownerDigest, err := s.cipher.Digest(ctx, owner)
	if err != nil {
		return 0, err
	}
	return newStores(s.db).messages.CountUnread(ctx, owner, ownerDigest, conversationID)
}

// SetCachedMedia records where a thumbnail for the post was cached and the
// page title. Both are encrypted; the file is removed on account purge.
func (s *messageService) SetCachedMedia(ctx context.Context, owner, eventID, thumbnailPath, title string) error {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return err
	}
	thumbEnc, err := s.cipher.Seal(ctx, thumbnailPath, owner)
	if err != nil {
		return err
	}
	titleEnc, err := s.cipher.Seal(ctx, title, owner)
	if err != nil {
		return err
	}
	return newStores(s.db).messages.SetCachedMedia(ctx, cryptox.StorageID(owner, domainMessage, eventID), thumbEnc, titleEnc)
}
