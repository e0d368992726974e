package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/linkdrop/internal/dbx"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := dbx.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteRepository(db)
}

func TestSettings_Lifecycle(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	_, ok, err := r.Get(ctx, KeyActiveOwner)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, KeyActiveOwner, "aa"))
	require.NoError(t, r.Set(ctx, KeyActiveOwner, "bb"))

	v, ok, err := r.Get(ctx, KeyActiveOwner)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bb", v)

	require.NoError(t, r.Delete(ctx, KeyActiveOwner))
	require.NoError(t, r.Delete(ctx, KeyActiveOwner))
	_, ok, err = r.Get(ctx, KeyActiveOwner)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSettings_EmptyValueIsPresent(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", ""))
	v, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestSettings_StampsUpdatedAt(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	at := time.UnixMilli(1_700_000_000_123)
	r.now = func() time.Time { return at }

	require.NoError(t, r.Set(ctx, "k", "v"))

	var ms int64
	require.NoError(t, r.db.QueryRowContext(ctx, `SELECT updated_at FROM device_settings WHERE key = 'k'`).Scan(&ms))
	assert.Equal(t, at.UnixMilli(), ms)
}

func TestSettings_DriverErrorsAreWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("disk I/O error")
	mock.ExpectQuery(`SELECT value FROM device_settings`).WillReturnError(boom)
	mock.ExpectExec(`INSERT INTO device_settings`).WillReturnError(boom)
	mock.ExpectExec(`DELETE FROM device_settings`).WillReturnError(boom)

	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, _, err = r.Get(ctx, "k")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to read setting k")

	require.ErrorIs(t, r.Set(ctx, "k", "v"), boom)
	require.ErrorIs(t, r.Delete(ctx, "k"), boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
