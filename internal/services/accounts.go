package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/cryptox"
	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/filex"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/nostrx"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/settings"
)

// AccountService tracks the active identity and purges local data.
//
// Contract:
//   - Login normalizes the key, makes it active and remembers it across
//     restarts; Restore brings it back.
//   - Logout always forgets the active identity. With clearLocalData it
//     also deletes every row owned by that identity in one transaction,
//     drops the identity's field key and removes cached thumbnail files.
//     File removal is best-effort and only logged.
//   - ApplyFollowListWatermark never moves the watermark backward.
type AccountService interface {
	Login(ctx context.Context, pubkey string) (string, error)
	Restore(ctx context.Context) (string, bool, error)
	Logout(ctx context.Context, clearLocalData bool) error
	Active() (string, bool)
	ApplyFollowListWatermark(ctx context.Context, owner string, updatedAt time.Time, eventID string) (bool, error)
}

type accountService struct {
	db     *sql.DB
	cipher *cryptox.AccountCipher
	log    logging.Logger

	mu     sync.RWMutex
	active string
}

func NewAccountService(db *sql.DB, cipher *cryptox.AccountCipher, log logging.Logger) AccountService {
	return &accountService{db: db, cipher: cipher, log: log}
}

func (s *accountService) Login(ctx context.Context, pubkey string) (string, error) {
	owner, err := nostrx.NormalizePubkey(pubkey)
	if err != nil {
		return "", err
	}
	if err := newStores(s.db).settings.Set(ctx, settings.KeyActiveOwner, owner); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.active = owner
	s.mu.Unlock()

	s.log.Info(ctx, "logged in", "owner", owner)
	return owner, nil
}

func (s *accountService) Restore(ctx context.Context) (string, bool, error) {
	v, ok, err := newStores(s.db).settings.Get(ctx, settings.KeyActiveOwner)
	if err != nil || !ok {
		return "", false, err
	}
	owner, err := nostrx.NormalizePubkey(v)
	if err != nil {
		return "", false, err
	}

	s.mu.Lock()
	s.active = owner
	s.mu.Unlock()
	return owner, true, nil
}

func (s *accountService) Active() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, s.active != ""
}

func (s *accountService) Logout(ctx context.Context, clearLocalData bool) error {
	s.mu.Lock()
	owner := s.active
	s.active = ""
	s.mu.Unlock()

	if owner == "" {
		return common.ErrNotLoggedIn
	}
	if err := newStores(s.db).settings.Delete(ctx, settings.KeyActiveOwner); err != nil {
		return err
	}
	s.log.Info(ctx, "logged out", "owner", owner, "clear", clearLocalData)

	if !clearLocalData {
		return nil
	}
	return s.purge(ctx, owner)
}

func (s *accountService) purge(ctx context.Context, owner string) error {
	// Thumbnail paths must be decrypted before the key is forgotten.
	refs, err := newStores(s.db).messages.ListThumbnailRefs(ctx, owner)
	if err != nil {
		return err
	}
	paths := make([]string, 0, len(refs))
	for _, ref := range refs {
		if p, ok := s.cipher.Open(ctx, ref, owner); ok {
			paths = append(paths, p)
		}
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		st := newStores(tx)
		if _, err := st.contacts.DeleteByOwner(ctx, owner); err != nil {
			return err
		}
		if err := st.sessions.DeleteByOwner(ctx, owner); err != nil {
			return err
		}
		if _, err := st.messages.DeleteByOwner(ctx, owner); err != nil {
			return err
		}
		return st.accounts.DeleteWatermark(ctx, owner)
	})
	if err != nil {
		return err
	}

	if err := s.cipher.Forget(ctx, owner); err != nil {
		return err
	}

	for path, ferr := range filex.RemoveFiles(paths) {
		s.log.Warn(ctx, "failed to remove cached file", "path", path, "error", ferr)
	}
	s.log.Info(ctx, "local data cleared", "owner", owner, "files", len(paths))
	return nil
}

func (s *accountService) ApplyFollowListWatermark(ctx context.Context, owner string, updatedAt time.Time, eventID string) (bool, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return false, err
	}
	at := dbx.FromMillis(dbx.Millis(updatedAt))

	applied := false
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		st := newStores(tx)
		cur, err := st.accounts.GetWatermark(ctx, owner)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		if cur != nil && at.Before(cur.FollowListUpdatedAt) {
			return nil
		}
		applied = true
		return st.accounts.UpsertWatermark(ctx, &models.AccountWatermark{
			OwnerPubkey:         owner,
			FollowListUpdatedAt: at,
			FollowListEventID:   eventID,
		})
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}
