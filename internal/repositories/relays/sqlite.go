package relays

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

const selectColumns = `url, is_enabled, status, last_error, created_at, updated_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, rl *models.Relay) error {
	query := `INSERT INTO relays (url, is_enabled, status, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, rl.URL, rl.IsEnabled, string(rl.Status), rl.LastError,
		dbx.Millis(rl.CreatedAt), dbx.Millis(rl.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert relay: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, url string) (*models.Relay, error) {
	rl, err := scanRelay(r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM relays WHERE url = ?`, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get relay: %w", err)
	}
	return rl, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Relay, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM relays ORDER BY created_at, url`)
}

func (r *SQLiteRepository) ListEnabled(ctx context.Context) ([]models.Relay, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM relays WHERE is_enabled = 1 ORDER BY created_at, url`)
}

func (r *SQLiteRepository) SetEnabled(ctx context.Context, url string, enabled bool, at time.Time) error {
	return r.exec(ctx, "failed to set relay enabled",
		`UPDATE relays SET is_enabled = ?, updated_at = ? WHERE url = ?`, enabled, dbx.Millis(at), url)
}

func (r *SQLiteRepository) UpdateStatus(ctx context.Context, url string, status models.RelayStatus, lastError string, at time.Time) error {
	return r.exec(ctx, "failed to update relay status",
		`UPDATE relays SET status = ?, last_error = ?, updated_at = ? WHERE url = ?`,
		string(status), lastError, dbx.Millis(at), url)
}

func (r *SQLiteRepository) Delete(ctx context.Context, url string) error {
	return r.exec(ctx, "failed to delete relay", `DELETE FROM relays WHERE url = ?`, url)
}

// exec runs a single-row statement and maps zero affected rows to
// common.ErrorNotFound.
func (r *SQLiteRepository) exec(ctx context.Context, msg, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", msg, err)
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

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Relay, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select relays: %w", err)
	}
	defer rows.Close()

	var result []models.Relay
	for rows.Next() {
		rl, err := scanRelay(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRelay(s scanner) (*models.Relay, error) {
	var rl models.Relay
	var status string
	var created, updated int64
	if err := s.Scan(&rl.URL, &rl.IsEnabled, &status, &rl.LastError, &created, &updated); err != nil {
		return nil, err
	}
	rl.Status = models.RelayStatus(status)
	rl.CreatedAt = dbx.FromMillis(created)
	rl.UpdatedAt = dbx.FromMillis(updated)
	return &rl, nil
}
