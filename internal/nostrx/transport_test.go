package nostrx

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip04"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/linkdrop/internal/logging"
)

func TestBuildEventIsSignedAndDecryptable(t *testing.T) {
	tr, err := NewTransport(vecNsec, logging.Nop())
	require.NoError(t, err)
	defer tr.Close()
	require.Equal(t, vecHex, tr.Pubkey())

	peerSk := nostr.GeneratePrivateKey()
	peerPk, err := nostr.GetPublicKey(peerSk)
	require.NoError(t, err)

	ev, err := tr.buildEvent([]byte(`{"kind":"root"}`), peerPk)
	require.NoError(t, err)
	assert.Equal(t, nostr.KindEncryptedDirectMessage, ev.Kind)
	assert.Equal(t, nostr.Tags{{"p", peerPk}}, ev.Tags)

	ok, err := ev.CheckSignature()
	require.NoError(t, err)
	assert.True(t, ok)

	shared, err := nip04.ComputeSharedSecret(tr.Pubkey(), peerSk)
	require.NoError(t, err)
	plain, err := nip04.Decrypt(ev.Content, shared)
	require.NoError(t, err)
	assert.Equal(t, `{"kind":"root"}`, plain)
}

func TestPrepareFixesEventID(t *testing.T) {
	tr, err := NewTransport(vecSk, logging.Nop())
	require.NoError(t, err)
	defer tr.Close()

	env, err := tr.Prepare([]byte("x"), vecNpub)
	require.NoError(t, err)
	assert.Equal(t, vecHex, env.Target)

	var ev nostr.Event
	require.NoError(t, json.Unmarshal(env.Event, &ev))
	assert.Equal(t, env.ID, ev.ID)
	assert.Equal(t, ev.GetID(), env.ID)

	_, err = tr.Prepare([]byte("x"), "bad")
	require.Error(t, err)
}

func TestSendWithoutRelays(t *testing.T) {
	tr, err := NewTransport(vecSk, logging.Nop())
	require.NoError(t, err)
	defer tr.Close()

	env, err := tr.Prepare([]byte("x"), vecHex)
	require.NoError(t, err)

	assert.False(t, tr.HasLiveConnection())
	require.ErrorIs(t, tr.Send(context.Background(), env), ErrNoConnection)

	env.ID = "0000"
	err = tr.Send(context.Background(), env)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoConnection)
}

func TestRejectionReason(t *testing.T) {
	reason, ok := rejectionReason(errors.New("msg: blocked: you are banned"))
	require.True(t, ok)
	assert.Equal(t, "blocked: you are banned", reason)

	_, ok = rejectionReason(errors.New("failed to write to socket"))
	assert.False(t, ok)
}

func TestIsReadOnlyReason(t *testing.T) {
	assert.True(t, IsReadOnlyReason("restricted: paid relay"))
	assert.True(t, IsReadOnlyReason("auth-required: please authenticate"))
	assert.False(t, IsReadOnlyReason("rate-limited: slow down"))
	assert.False(t, IsReadOnlyReason(""))
}

func TestCloseIsIdempotent(t *testing.T) {
	tr, err := NewTransport(vecSk, logging.Nop())
	require.NoError(t, err)
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	_, open := <-tr.Updates()
	assert.False(t, open)
}
