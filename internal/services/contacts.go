package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/cryptox"
	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/nostrx"
)

// SnapshotWriter receives the contact list published for the extension.
type SnapshotWriter interface {
	SaveContactsSnapshot(ctx context.Context, list []models.ContactSnapshot) error
}

// ContactService manages the contacts of each local identity.
//
// Contract:
//   - Add/Update accept an npub (optionally "nostr:" prefixed) or 64-char
//     hex key and fail with common.ErrInvalidKey otherwise.
//   - A second contact with the same decrypted target for the same owner
//     fails with common.ErrDuplicateContact. Other owners are unaffected.
//   - PublishSnapshot writes the owner's contacts for the share extension.
type ContactService interface {
	Add(ctx context.Context, owner, pubkey, alias string) (*models.ContactView, error)
	Update(ctx context.Context, owner, id, pubkey, alias string) error
	Delete(ctx context.Context, owner, id string) error
	List(ctx context.Context, owner string) ([]models.ContactView, error)
	PublishSnapshot(ctx context.Context, owner string) error
}

type contactService struct {
	db        *sql.DB
	cipher    *cryptox.AccountCipher
	snapshots SnapshotWriter
	log       logging.Logger
	now       func() time.Time
}

func NewContactService(db *sql.DB, cipher *cryptox.AccountCipher, snapshots SnapshotWriter, log logging.Logger) ContactService {
	return &contactService{db: db, cipher: cipher, snapshots: snapshots, log: log, now: time.Now}
}

func (s *contactService) Add(ctx context.Context, owner, pubkey, alias string) (*models.ContactView, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	target, err := nostrx.NormalizePubkey(pubkey)
	if err != nil {
		return nil, err
	}
	alias = strings.TrimSpace(alias)

	c := &models.Contact{
		ID:          uuid.NewString(),
		OwnerPubkey: owner,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.seal(ctx, c, target, alias); err != nil {
		return nil, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		st := newStores(tx)
		if err := s.checkDuplicate(ctx, st, owner, c.TargetDigest, target, ""); err != nil {
			return err
		}
		return st.contacts.Insert(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "contact added", "owner", owner, "id", c.ID)
	return s.view(ctx, c), nil
}

func (s *contactService) Update(ctx context.Context, owner, id, pubkey, alias string) error {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return err
	}
	target, err := nostrx.NormalizePubkey(pubkey)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		st := newStores(tx)
		c, err := st.contacts.GetByID(ctx, owner, id)
		if err != nil {
			return err
		}
		if err := s.seal(ctx, c, target, strings.TrimSpace(alias)); err != nil {
			return err
		}
		if err := s.checkDuplicate(ctx, st, owner, c.TargetDigest, target, id); err != nil {
			return err
		}
		return st.contacts.Update(ctx, c)
	})
}

func (s *contactService) seal(ctx context.Context, c *models.Contact, target, alias string) error {
	var err error
	if c.TargetDigest, err = s.cipher.Digest(ctx, target); err != nil {
		return err
	}
	if c.TargetEnc, err = s.cipher.Seal(ctx, target, c.OwnerPubkey); err != nil {
		return err
	}
	if c.AliasEnc, err = s.cipher.Seal(ctx, alias, c.OwnerPubkey); err != nil {
		return err
	}
	return nil
}

// checkDuplicate finds candidates by digest and confirms by comparing the
// decrypted target, so rows whose key was lost never block a new contact.
func (s *contactService) checkDuplicate(ctx context.Context, st stores, owner, digest, target, exceptID string) error {
	candidates, err := st.contacts.FindByTargetDigest(ctx, owner, digest)
	if err != nil {
		return err
	}
	for _, c := range candidates {
		if c.ID == exceptID {
			continue
		}
		if existing, ok := s.cipher.Open(ctx, c.TargetEnc, owner); ok && existing == target {
			return common.ErrDuplicateContact
		}
	}
	return nil
}

func (s *contactService) Delete(ctx context.Context, owner, id string) error {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return err
	}
	if err := newStores(s.db).contacts.Delete(ctx, owner, id); err != nil {
		return fmt.Errorf("error deleting contact: %w", err)
	}
	return nil
}

func (s *contactService) List(ctx context.Context, owner string) ([]models.ContactView, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	rows, err := newStores(s.db).contacts.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	result := make([]models.ContactView, 0, len(rows))
	for i := range rows {
		result = append(result, *s.view(ctx, &rows[i]))
	}
	return result, nil
}

func (s *contactService) view(ctx context.Context, c *models.Contact) *models.ContactView {
	v := &models.ContactView{
		ID:        c.ID,
		Pubkey:    open(ctx, s.cipher, c.TargetEnc, c.OwnerPubkey),
		Alias:     open(ctx, s.cipher, c.AliasEnc, c.OwnerPubkey),
		CreatedAt: c.CreatedAt,
	}
	if v.Pubkey == "" {
		s.log.Warn(ctx, "contact target cannot be decrypted", "id", c.ID)
		return v
	}
	if npub, err := nostrx.NPub(v.Pubkey); err == nil {
		v.NPub = npub
	}
	return v
}

func (s *contactService) PublishSnapshot(ctx context.Context, owner string) error {
	if s.snapshots == nil {
		return errors.New("no snapshot writer configured")
	}
	list, err := s.List(ctx, owner)
	if err != nil {
		return err
	}
	snap := make([]models.ContactSnapshot, 0, len(list))
	for _, c := range list {
		if c.NPub == "" {
			continue
		}
		snap = append(snap, models.ContactSnapshot{NPub: c.NPub, Alias: c.Alias})
	}
	if err := s.snapshots.SaveContactsSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("error publishing contact snapshot: %w", err)
	}
	return nil
}
