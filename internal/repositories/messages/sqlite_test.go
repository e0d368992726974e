package messages

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := dbx.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func root(owner, eventID, conv, sender string, ts int64) *models.SessionMessage {
	return &models.SessionMessage{
		StorageID:      owner + ":" + eventID,
		OwnerPubkey:    owner,
		EventID:        eventID,
		Kind:           models.KindRoot,
		ConversationID: conv,
		RootID:         eventID,
		SenderEnc:      "enc-" + sender,
		SenderDigest:   sender,
		URLEnc:         "enc-url",
		Timestamp:      time.UnixMilli(ts).UTC(),
		LinkType:       models.LinkYouTube,
	}
}

func reply(owner, eventID, rootID, sender string, ts int64) *models.SessionMessage {
	return &models.SessionMessage{
		StorageID:      owner + ":" + eventID,
		OwnerPubkey:    owner,
		EventID:        eventID,
		Kind:           models.KindReply,
		ConversationID: "c1",
		RootID:         rootID,
		SenderEnc:      "enc-" + sender,
		SenderDigest:   sender,
		NoteEnc:        "enc-note",
		Timestamp:      time.UnixMilli(ts).UTC(),
	}
}

func TestUpsertKeepsLocalState(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	m := root("alice", "e1", "c1", "peer", 10)
	require.NoError(t, r.Upsert(ctx, m))
	require.NoError(t, r.SetCachedMedia(ctx, m.StorageID, "enc-thumb", "enc-title"))
	_, err := r.MarkRootRead(ctx, "alice", "me", "e1", time.UnixMilli(50))
	require.NoError(t, err)

	m.URLEnc = "enc-url-2"
	require.NoError(t, r.Upsert(ctx, m))

	got, err := r.Get(ctx, m.StorageID)
	require.NoError(t, err)
	assert.Equal(t, "enc-url-2", got.URLEnc)
	assert.Equal(t, "enc-thumb", got.ThumbnailPathEnc)
	assert.Equal(t, "enc-title", got.TitleEnc)
	require.NotNil(t, got.ReadAt)
	assert.Equal(t, int64(50), got.ReadAt.UnixMilli())
	assert.Equal(t, models.LinkYouTube, got.LinkType)

	_, err = r.Get(ctx, "alice:missing")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.ErrorIs(t, r.SetCachedMedia(ctx, "alice:missing", "", ""), common.ErrorNotFound)
}

func TestSameEventUnderTwoOwners(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, root("alice", "e1", "c1", "peer", 10)))
	require.NoError(t, r.Upsert(ctx, root("bob", "e1", "c1", "peer", 10)))

	a, err := r.ListByConversation(ctx, "alice", "c1", false)
	require.NoError(t, err)
	b, err := r.ListByConversation(ctx, "bob", "c1", false)
	require.NoError(t, err)
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.NotEqual(t, a[0].StorageID, b[0].StorageID)
}

func TestMarkRootReadScope(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, root("alice", "in1", "c1", "peer", 1)))
	require.NoError(t, r.Upsert(ctx, root("alice", "in2", "c1", "peer", 2)))
	out := root("alice", "out1", "c1", "me", 3)
	require.NoError(t, r.Upsert(ctx, out))

	n, err := r.MarkRootRead(ctx, "alice", "me", "in1", time.UnixMilli(100))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = r.MarkRootRead(ctx, "alice", "me", "out1", time.UnixMilli(100))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	for id, wantRead := range map[string]bool{"in1": true, "in2": false, "out1": false} {
		got, err := r.Get(ctx, "alice:"+id)
		require.NoError(t, err)
		assert.Equal(t, wantRead, got.ReadAt != nil, id)
	}

	unread, err := r.CountUnread(ctx, "alice", "me", "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	n, err = r.MarkConversationRootsRead(ctx, "alice", "me", "c1", time.UnixMilli(200))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRepliesAndArchive(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, root("alice", "r1", "c1", "peer", 1)))
	require.NoError(t, r.Upsert(ctx, reply("alice", "x1", "r1", "peer", 2)))
	require.NoError(t, r.Upsert(ctx, reply("alice", "x2", "r1", "me", 3)))

	replies, err := r.ListReplies(ctx, "alice", "r1")
	require.NoError(t, err)
	require.Len(t, replies, 2)

	n, err := r.MarkRepliesRead(ctx, "alice", "me", "r1", time.UnixMilli(9))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = r.SetArchivedByConversation(ctx, "alice", "c1", true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "only the root row is archived")

	visible, err := r.ListByConversation(ctx, "alice", "c1", false)
	require.NoError(t, err)
	assert.Empty(t, visible)
	all, err := r.ListByConversation(ctx, "alice", "c1", true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	x1, err := r.Get(ctx, "alice:x1")
	require.NoError(t, err)
	assert.False(t, x1.IsArchived)
}

func TestThumbnailRefsAndDelete(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	m := root("alice", "e1", "c1", "peer", 1)
	require.NoError(t, r.Upsert(ctx, m))
	require.NoError(t, r.Upsert(ctx, root("alice", "e2", "c1", "peer", 2)))
	require.NoError(t, r.SetCachedMedia(ctx, m.StorageID, "enc-thumb", ""))

	refs, err := r.ListThumbnailRefs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"enc-thumb"}, refs)

	n, err := r.DeleteByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestUpsertDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO session_messages").WillReturnError(errors.New("disk full"))

	r := NewSQLiteRepository(db)
	err = r.Upsert(context.Background(), root("alice", "e1", "c1", "peer", 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upsert message")
	require.NoError(t, mock.ExpectationsWereMet())
}
