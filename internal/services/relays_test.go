package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/relay"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/relays"
)

func newRelayService(e *env, live func() bool) RelayService {
	r := relay.NewReadiness(relays.NewSQLiteRepository(e.db), live, e.log)
	return NewRelayService(e.db, r, e.log)
}

func TestNormalizeRelayURL(t *testing.T) {
	got, err := NormalizeRelayURL("  WSS://Relay.Example.com/ ")
	require.NoError(t, err)
	assert.Equal(t, "wss://relay.example.com", got)

	for _, bad := range []string{"", "https://relay.example.com", "wss://", "relay.example.com"} {
		_, err := NormalizeRelayURL(bad)
		require.ErrorIs(t, err, common.ErrInvalidURL, bad)
	}
}

func TestRelayLifecycle(t *testing.T) {
	e := setup(t)
	svc := newRelayService(e, nil)
	ctx := context.Background()

	state, err := svc.Connectivity(ctx)
	require.NoError(t, err)
	assert.Equal(t, relay.NoEnabledRelays, state)

	r, err := svc.Add(ctx, "wss://relay.one")
	require.NoError(t, err)
	assert.True(t, r.IsEnabled)

	_, err = svc.Add(ctx, "WSS://RELAY.ONE/")
	require.ErrorIs(t, err, common.ErrDuplicateRelay)

	state, err = svc.Connectivity(ctx)
	require.NoError(t, err)
	assert.Equal(t, relay.Offline, state)

	require.NoError(t, svc.SetEnabled(ctx, "wss://relay.one", false))
	state, err = svc.Connectivity(ctx)
	require.NoError(t, err)
	assert.Equal(t, relay.NoEnabledRelays, state)

	require.NoError(t, svc.Remove(ctx, "wss://relay.one"))
	require.ErrorIs(t, svc.Remove(ctx, "wss://relay.one"), common.ErrorNotFound)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
