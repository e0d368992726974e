package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/relay"
)

func TestContacts(t *testing.T) {
	d := newDevice(t)
	sk, _ := newSecret(t)

	_, err := d.run(t, "", "contact", "list")
	require.ErrorIs(t, err, common.ErrNotLoggedIn)

	d.mustRun(t, sk, "login")
	out := d.mustRun(t, "", "contact", "add", peerNpub, "--alias", "Bob")
	assert.True(t, strings.HasPrefix(out, "added Bob ("), out)
	id := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(out), "added Bob ("), ")")

	_, err = d.run(t, "", "contact", "add", "nostr:"+peerNpub)
	require.ErrorIs(t, err, common.ErrDuplicateContact)

	_, err = d.run(t, "", "contact", "add", "npub1nope")
	require.ErrorIs(t, err, common.ErrInvalidKey)

	list := d.mustRun(t, "", "contact", "list")
	assert.Contains(t, list, id)
	assert.Contains(t, list, peerNpub)
	assert.Contains(t, list, "Bob")

	d.mustRun(t, "", "contact", "update", id, peerNpub, "--alias", "Robert")
	assert.Contains(t, d.mustRun(t, "", "contact", "list"), "Robert")

	// The extension sees the latest snapshot.
	out, err = d.share(t, "contacts")
	require.NoError(t, err)
	assert.Contains(t, out, "Robert")

	d.mustRun(t, "", "contact", "rm", id)
	assert.Empty(t, strings.TrimSpace(d.mustRun(t, "", "contact", "list")))
}

func TestRelays(t *testing.T) {
	d := newDevice(t)

	assert.Equal(t, "added wss://relay.example\n", d.mustRun(t, "", "relay", "add", "WSS://Relay.Example/"))
	_, err := d.run(t, "", "relay", "add", "wss://relay.example")
	require.ErrorIs(t, err, common.ErrDuplicateRelay)
	_, err = d.run(t, "", "relay", "add", "https://relay.example")
	require.ErrorIs(t, err, common.ErrInvalidURL)

	assert.Contains(t, d.mustRun(t, "", "relay", "list"), "wss://relay.example  enabled")

	d.mustRun(t, "", "relay", "disable", "wss://relay.example")
	assert.Contains(t, d.mustRun(t, "", "relay", "list"), "disabled")
	assert.Equal(t, string(relay.NoEnabledRelays)+": no relays enabled\n", d.mustRun(t, "", "relay", "status"))

	d.mustRun(t, "", "relay", "enable", "wss://relay.example")
	assert.True(t, strings.HasPrefix(d.mustRun(t, "", "relay", "status"), string(relay.Offline)))

	sk, _ := newSecret(t)
	d.mustRun(t, sk, "login")
	assert.Equal(t, "online: online\n", d.mustRun(t, "", "relay", "status", "--connect"))

	d.mustRun(t, "", "relay", "rm", "wss://relay.example")
	_, err = d.run(t, "", "relay", "rm", "wss://relay.example")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSend_RequiresReadyRelays(t *testing.T) {
	d := newDevice(t)
	sk, _ := newSecret(t)

	_, err := d.run(t, "", "send", peerNpub, "https://example.com")
	require.ErrorIs(t, err, common.ErrNotLoggedIn)

	d.mustRun(t, sk, "login")
	_, err = d.run(t, "", "send", peerNpub, "https://example.com")
	require.ErrorIs(t, err, relay.ErrNoEnabledRelays)
	assert.Zero(t, d.published())

	d.mustRun(t, "", "relay", "add", "wss://relay.example")
	_, err = d.run(t, "", "send", peerNpub, "ftp://example.com")
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Zero(t, d.published())
}

func TestSend_LocalFirstFlag(t *testing.T) {
	d := newDevice(t)
	sk, _ := newSecret(t)
	d.mustRun(t, sk, "login")

	out, err := d.run(t, "", "send", peerNpub, "https://example.com/a", "--send-mode", "local-first")
	require.ErrorIs(t, err, relay.ErrNoEnabledRelays)
	assert.True(t, strings.HasPrefix(out, "saved "), out)
	assert.True(t, strings.HasSuffix(out, " locally, publish failed\n"), out)
	assert.Zero(t, d.published())

	assert.True(t, strings.HasPrefix(d.mustRun(t, "", "posts", peerNpub), "1 posts"))
}

func TestSendReplyAndRead(t *testing.T) {
	d := newDevice(t)
	sk, _ := newSecret(t)
	d.mustRun(t, sk, "login")
	d.mustRun(t, "", "relay", "add", "wss://relay.example")

	out := d.mustRun(t, "", "send", peerNpub, "https://www.youtube.com/watch?v=x")
	require.True(t, strings.HasPrefix(out, "sent "), out)
	postID := strings.TrimSpace(strings.TrimPrefix(out, "sent "))

	d.mustRun(t, "", "reply", peerNpub, postID, "nice one")
	assert.Equal(t, 2, d.published())

	posts := d.mustRun(t, "", "posts", peerNpub)
	assert.True(t, strings.HasPrefix(posts, "1 posts, 0 unread\n"), posts)
	assert.Contains(t, posts, postID)
	assert.Contains(t, posts, string(models.LinkYouTube))

	replies := d.mustRun(t, "", "replies", postID)
	assert.Contains(t, replies, "nice one")

	// Outbound posts are never unread.
	assert.Equal(t, "marked 0 posts read\n", d.mustRun(t, "", "read", peerNpub))
	assert.Equal(t, "marked 0 posts and 0 replies read\n", d.mustRun(t, "", "read", "--post", postID))

	assert.Equal(t, "archived 1 posts\n", d.mustRun(t, "", "archive", peerNpub))
	assert.True(t, strings.HasPrefix(d.mustRun(t, "", "posts", peerNpub), "0 posts"))
	assert.True(t, strings.HasPrefix(d.mustRun(t, "", "posts", peerNpub, "--archived"), "1 posts"))
	assert.Equal(t, "unarchived 1 posts\n", d.mustRun(t, "", "archive", peerNpub, "--undo"))
}

func TestShareAndDrain(t *testing.T) {
	d := newDevice(t)
	sk, _ := newSecret(t)
	d.mustRun(t, sk, "login")
	d.mustRun(t, "", "relay", "add", "wss://relay.example")
	d.mustRun(t, "", "contact", "add", peerNpub, "--alias", "Bob")

	out, err := d.share(t, "https://example.com/article", "--to", "bob", "--note", "read this")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "queued "), out)

	_, err = d.share(t, "https://example.com/other", "--to", "nobody")
	require.ErrorIs(t, err, common.ErrInvalidKey)

	_, err = d.share(t, "not a url", "--to", "bob")
	require.ErrorIs(t, err, common.ErrValidation)

	assert.Equal(t, "sent 1, dropped 0, pending 0\n", d.mustRun(t, "", "drain"))
	assert.Equal(t, 2, d.published())
	assert.Equal(t, "sent 0, dropped 0, pending 0\n", d.mustRun(t, "", "drain"))

	posts := d.mustRun(t, "", "posts", peerNpub)
	assert.Contains(t, posts, "https://example.com/article")
}

func Test_resolveRecipient(t *testing.T) {
	snapshot := []models.ContactSnapshot{{NPub: peerNpub, Alias: "Bob"}}

	got, err := resolveRecipient(snapshot, "BOB")
	require.NoError(t, err)
	assert.Equal(t, peerNpub, got)

	got, err = resolveRecipient(nil, "7e7e9c42a91bfef19fa929e5fda1b72e0ebc1a4c1141673e2794234d86addf4e")
	require.NoError(t, err)
	assert.Equal(t, peerNpub, got)

	_, err = resolveRecipient(snapshot, " ")
	require.ErrorIs(t, err, common.ErrEmptyField)
}
