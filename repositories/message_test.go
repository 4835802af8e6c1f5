package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chat-hub/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewBadgerStore(db, slog.Default())
}

func Test_AppendMessage_AssignsGapFreeSequences(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	ctx := context.Background()
	at := time.Now().UTC()

	// When three messages are appended to the same conversation
	for i, author := range []string{"Alice", "Bob", "Clara"} {
		seq, err := store.AppendMessage(ctx, DiskMessage{
			ID:      uuid.New(),
			Room:    "general",
			Author:  author,
			Content: "this message will self destruct in 5 seconds",
			At:      at.Add(time.Duration(i) * time.Minute),
		})
		req.NoError(err)

		// Then the sequence is strictly increasing with no gaps
		req.Equal(uint64(i+1), seq)
	}

	// And another conversation has its own counter
	seq, err := store.AppendMessage(ctx, DiskMessage{ID: uuid.New(), Room: "random", Author: "Alice"})
	req.NoError(err)
	req.Equal(uint64(1), seq)
}

func Test_FetchHistory_ReturnsMessagesAfterTheCursor(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three"} {
		_, err := store.AppendMessage(ctx, DiskMessage{
			ID:      uuid.New(),
			Room:    "general",
			Author:  "Alice",
			Content: content,
			At:      time.Now().UTC(),
		})
		req.NoError(err)
	}

	// When history since sequence 1 is fetched
	history, err := store.FetchHistory(ctx, "general", 1)
	req.NoError(err)

	// Then only the strictly newer messages come back, in order
	req.Len(history, 2)
	req.Equal("two", history[0].Content)
	req.Equal(uint64(2), history[0].Sequence)
	req.Equal("three", history[1].Content)
	req.Equal(uint64(3), history[1].Sequence)

	// And an empty conversation yields an empty history
	empty, err := store.FetchHistory(ctx, "nowhere", 0)
	req.NoError(err)
	req.Empty(empty)
}

func Test_Membership_RoundTrip(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	ctx := context.Background()

	// Given an unknown conversation
	// Then it has no members instead of failing
	membership, err := store.FetchMembership(ctx, "general")
	req.NoError(err)
	req.Empty(membership)

	// When the conversation-management collaborator records members
	err = store.PutMembership(ctx, "general", []domain.UserID{"alice", "bob"})
	req.NoError(err)

	membership, err = store.FetchMembership(ctx, "general")
	req.NoError(err)
	req.Len(membership, 2)
	req.Contains(membership, domain.UserID("alice"))
	req.Contains(membership, domain.UserID("bob"))

	// And a later put replaces the snapshot
	err = store.PutMembership(ctx, "general", []domain.UserID{"alice"})
	req.NoError(err)
	membership, err = store.FetchMembership(ctx, "general")
	req.NoError(err)
	req.Len(membership, 1)
}

func Test_ReadCursor_OnlyMovesForward(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	ctx := context.Background()

	// Given no cursor recorded yet
	cursor, err := store.ReadCursor(ctx, "general", "alice")
	req.NoError(err)
	req.Zero(cursor)

	// When the cursor advances to 5
	req.NoError(store.UpdateReadCursor(ctx, "general", "alice", 5))
	cursor, err = store.ReadCursor(ctx, "general", "alice")
	req.NoError(err)
	req.Equal(uint64(5), cursor)

	// Then a stale acknowledgement is dropped
	req.NoError(store.UpdateReadCursor(ctx, "general", "alice", 3))
	cursor, err = store.ReadCursor(ctx, "general", "alice")
	req.NoError(err)
	req.Equal(uint64(5), cursor)

	// And a newer one still advances
	req.NoError(store.UpdateReadCursor(ctx, "general", "alice", 8))
	cursor, err = store.ReadCursor(ctx, "general", "alice")
	req.NoError(err)
	req.Equal(uint64(8), cursor)
}
