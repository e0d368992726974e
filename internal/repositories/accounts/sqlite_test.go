package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestWatermarkLifecycle(t *testing.T) {
	ctx := context.Background()
	db, err := dbx.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	r := NewSQLiteRepository(db)

	_, err = r.GetWatermark(ctx, "alice")
	require.ErrorIs(t, err, common.ErrorNotFound)

	want := &models.AccountWatermark{
		OwnerPubkey:         "alice",
		FollowListUpdatedAt: time.UnixMilli(1000).UTC(),
		FollowListEventID:   "ev1",
	}
	require.NoError(t, r.UpsertWatermark(ctx, want))
	want.FollowListEventID = "ev2"
	require.NoError(t, r.UpsertWatermark(ctx, want))

	got, err := r.GetWatermark(ctx, "alice")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("watermark mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, r.DeleteWatermark(ctx, "alice"))
	require.NoError(t, r.DeleteWatermark(ctx, "alice"))
	_, err = r.GetWatermark(ctx, "alice")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
