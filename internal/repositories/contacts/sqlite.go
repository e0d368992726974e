package contacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/models"
)

const selectColumns = `id, owner_pubkey, target_enc, target_digest, alias_enc, created_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, c *models.Contact) error {
	query := `INSERT INTO contacts (id, owner_pubkey, target_enc, target_digest, alias_enc, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.OwnerPubkey, c.TargetEnc, c.TargetDigest, c.AliasEnc, dbx.Millis(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert contact: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, c *models.Contact) error {
	query := `UPDATE contacts SET target_enc = ?, target_digest = ?, alias_enc = ?
		WHERE owner_pubkey = ? AND id = ?`
	res, err := r.db.ExecContext(ctx, query, c.TargetEnc, c.TargetDigest, c.AliasEnc, c.OwnerPubkey, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, owner, id string) (*models.Contact, error) {
	query := `SELECT ` + selectColumns + ` FROM contacts WHERE owner_pubkey = ? AND id = ?`
	c, err := scanContact(r.db.QueryRowContext(ctx, query, owner, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, owner string) ([]models.Contact, error) {
	query := `SELECT ` + selectColumns + ` FROM contacts WHERE owner_pubkey = ? ORDER BY created_at, id`
	return r.list(ctx, query, owner)
}

func (r *SQLiteRepository) FindByTargetDigest(ctx context.Context, owner, digest string) ([]models.Contact, error) {
	query := `SELECT ` + selectColumns + ` FROM contacts WHERE owner_pubkey = ? AND target_digest = ?`
	return r.list(ctx, query, owner, digest)
}

func (r *SQLiteRepository) Delete(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE owner_pubkey = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE owner_pubkey = ?`, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to delete contacts: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Contact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select contacts: %w", err)
	}
	defer rows.Close()

	var result []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContact(s scanner) (*models.Contact, error) {
	var c models.Contact
	var created int64
	if err := s.Scan(&c.ID, &c.OwnerPubkey, &c.TargetEnc, &c.TargetDigest, &c.AliasEnc, &created); err != nil {
		return nil, err
	}
	c.CreatedAt = dbx.FromMillis(created)
	return &c, nil
}
