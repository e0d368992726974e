package sharedstore

import (
	"context"

	"github.com/dmitrijs2005/linkdrop/internal/models"
)

// SaveContactsSnapshot replaces the snapshot. Last writer wins.
func (s *Store) SaveContactsSnapshot(ctx context.Context, list []models.ContactSnapshot) error {
	if list == nil {
		list = []models.ContactSnapshot{}
	}
	key, err := s.sharedKey(ctx)
	if err != nil {
		return err
	}
	if err := s.writeSealed(SnapshotFile, key, list); err != nil {
		return err
	}
	s.log.Debug(ctx, "contact snapshot saved", "count", len(list))
	return nil
}

// LoadContactsSnapshot returns the last saved snapshot, or an empty list
// if none was written yet.
func (s *Store) LoadContactsSnapshot(ctx context.Context) ([]models.ContactSnapshot, error) {
	key, err := s.sharedKey(ctx)
	if err != nil {
		return nil, err
	}
	var list []models.ContactSnapshot
	if err := s.readSealed(SnapshotFile, key, &list); err != nil {
		return nil, err
	}
	return list, nil
}
