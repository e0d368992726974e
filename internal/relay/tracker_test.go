package relay

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/relays"
	"github.com/dmitrijs2005/linkdrop/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRelays(t *testing.T, urls ...string) *relays.SQLiteRepository {
	t.Helper()
	ctx := context.Background()
	db, err := dbx.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := relays.NewSQLiteRepository(db)
	for _, u := range urls {
		require.NoError(t, repo.Insert(ctx, &models.Relay{
			URL: u, IsEnabled: true, Status: models.RelayDisconnected,
			CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}))
	}
	return repo
}

func TestTrackerApply(t *testing.T) {
	ctx := context.Background()
	repo := setupRelays(t, "wss://a", "wss://b")
	tr := NewTracker(repo, logging.Nop())

	require.NoError(t, tr.Apply(ctx, transport.StatusUpdate{URL: "wss://a", Status: models.RelayConnecting}))
	require.NoError(t, tr.Apply(ctx, transport.StatusUpdate{URL: "wss://b", Status: models.RelayFailed, Err: "dial timeout"}))
	require.NoError(t, tr.Apply(ctx, transport.StatusUpdate{URL: "wss://a", Status: models.RelayConnected}))
	require.NoError(t, tr.Apply(ctx, transport.StatusUpdate{URL: "wss://unknown", Status: models.RelayConnected}))
	require.Error(t, tr.Apply(ctx, transport.StatusUpdate{URL: "wss://a", Status: "weird"}))

	a, err := repo.Get(ctx, "wss://a")
	require.NoError(t, err)
	assert.Equal(t, models.RelayConnected, a.Status)
	b, err := repo.Get(ctx, "wss://b")
	require.NoError(t, err)
	assert.Equal(t, models.RelayFailed, b.Status)
	assert.Equal(t, "dial timeout", b.LastError)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, Online, Classify(list, nil))
}

func TestTrackerRunStopsWhenChannelCloses(t *testing.T) {
	repo := setupRelays(t, "wss://a")
	tr := NewTracker(repo, logging.Nop())

	updates := make(chan transport.StatusUpdate, 3)
	updates <- transport.StatusUpdate{URL: "wss://a", Status: models.RelayConnecting}
	updates <- transport.StatusUpdate{URL: "wss://a", Status: models.RelayReadOnly, Err: "restricted: paid relay"}
	close(updates)

	done := make(chan struct{})
	go func() {
		tr.Run(context.Background(), updates)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tracker did not stop")
	}

	a, err := repo.Get(context.Background(), "wss://a")
	require.NoError(t, err)
	assert.Equal(t, models.RelayReadOnly, a.Status)
}
