// Package contacts persists the contacts of every local identity.
//
// Target keys and aliases are stored encrypted; TargetDigest is the lookup
// digest of the normalized hex target and is the only indexable column.
// Uniqueness per (owner, target) is enforced by the service layer.
package contacts

import (
	"context"

	"github.com/dmitrijs2005/linkdrop/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, c *models.Contact) error
	// Update rewrites target and alias of an existing contact.
	// It returns common.ErrorNotFound when no row matches (owner, id).
	Update(ctx context.Context, c *models.Contact) error
	GetByID(ctx context.Context, owner, id string) (*models.Contact, error)
	ListByOwner(ctx context.Context, owner string) ([]models.Contact, error)
	FindByTargetDigest(ctx context.Context, owner, digest string) ([]models.Contact, error)
	Delete(ctx context.Context, owner, id string) error
	DeleteByOwner(ctx context.Context, owner string) (int64, error)
}
