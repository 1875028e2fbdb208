// ABOUTME: Tests for the SQLite store implementation
// ABOUTME: Covers id allocation, feed pagination, and reaction tallies

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// fixClock pins the store clock to the given epoch milliseconds.
func fixClock(s *SQLiteStore, millis int64) {
	s.now = func() time.Time {
		return time.UnixMilli(millis)
	}
}

func TestStore_CreatePost(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.CreatePost(ctx, "hello world")
	require.NoError(t, err)
	assert.Positive(t, id)

	posts, err := store.ListFeed(ctx, 0, 20)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, id, posts[0].ID)
	assert.Equal(t, "hello world", posts[0].Text)
}

func TestStore_CreatePost_EmptyText(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.CreatePost(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestStore_CreatePost_SeedsAllTallies(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.CreatePost(ctx, "fresh post")
	require.NoError(t, err)

	posts, err := store.ListFeed(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	require.Len(t, posts[0].Reactions, 3)
	for _, kind := range ReactionKinds {
		count, ok := posts[0].Reactions[kind]
		assert.True(t, ok, "missing tally for %s", kind)
		assert.Zero(t, count)
	}
}

func TestStore_CreatePost_MonotonicIDs(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// Pin the clock so every post lands in the same millisecond.
	fixClock(store, 1_700_000_000_000)

	var prev int64
	for i := 0; i < 5; i++ {
		id, err := store.CreatePost(ctx, "post")
		require.NoError(t, err)
		assert.Greater(t, id, prev, "ids must be strictly increasing")
		prev = id
	}
}

func TestStore_CreatePost_MonotonicUnderClockRollback(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	fixClock(store, 2_000_000_000_000)
	first, err := store.CreatePost(ctx, "before rollback")
	require.NoError(t, err)

	fixClock(store, 1_000_000_000_000)
	second, err := store.CreatePost(ctx, "after rollback")
	require.NoError(t, err)

	assert.Greater(t, second, first)
}

func TestStore_LastIDSurvivesReopen(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	fixClock(store, 3_000_000_000_000)
	first, err := store.CreatePost(context.Background(), "old post")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	// Clock is behind the persisted high-water mark after reopen.
	fixClock(reopened, 1_000_000_000_000)
	second, err := reopened.CreatePost(context.Background(), "new post")
	require.NoError(t, err)
	assert.Greater(t, second, first)
}

func TestStore_ListFeed_NewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"first", "second", "third"} {
		_, err := store.CreatePost(ctx, text)
		require.NoError(t, err)
	}

	posts, err := store.ListFeed(ctx, 0, 20)
	require.NoError(t, err)
	require.Len(t, posts, 3)

	assert.Equal(t, "third", posts[0].Text)
	assert.Equal(t, "second", posts[1].Text)
	assert.Equal(t, "first", posts[2].Text)
}

func TestStore_ListFeed_CursorPagination(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// Simulate posts with ids 100, 200, 300.
	for _, millis := range []int64{100, 200, 300} {
		fixClock(store, millis)
		id, err := store.CreatePost(ctx, "post")
		require.NoError(t, err)
		require.Equal(t, millis, id)
	}

	page, err := store.ListFeed(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(300), page[0].ID)
	assert.Equal(t, int64(200), page[1].ID)

	page, err = store.ListFeed(ctx, 200, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(100), page[0].ID)
}

func TestStore_ListFeed_CursorStableUnderInserts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, millis := range []int64{100, 200, 300} {
		fixClock(store, millis)
		_, err := store.CreatePost(ctx, "old")
		require.NoError(t, err)
	}

	before, err := store.ListFeed(ctx, 250, 50)
	require.NoError(t, err)

	// Newer posts arrive while a client holds cursor 250.
	for _, millis := range []int64{400, 500} {
		fixClock(store, millis)
		_, err := store.CreatePost(ctx, "new")
		require.NoError(t, err)
	}

	after, err := store.ListFeed(ctx, 250, 50)
	require.NoError(t, err)

	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
	}
}

func TestStore_ListFeed_Empty(t *testing.T) {
	store := setupTestStore(t)

	posts, err := store.ListFeed(context.Background(), 0, 20)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestStore_IncrementReaction(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.CreatePost(ctx, "react to me")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.IncrementReaction(ctx, id, "hug"))
	}

	posts, err := store.ListFeed(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.Equal(t, int64(3), posts[0].Reactions["hug"])
	assert.Equal(t, int64(0), posts[0].Reactions["support"])
	assert.Equal(t, int64(0), posts[0].Reactions["sad"])
}

func TestStore_IncrementReaction_InvalidKind(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.CreatePost(ctx, "no love kind here")
	require.NoError(t, err)

	err = store.IncrementReaction(ctx, id, "love")
	assert.ErrorIs(t, err, ErrInvalidReactionKind)

	// Nothing mutated.
	posts, err := store.ListFeed(ctx, 0, 1)
	require.NoError(t, err)
	for _, count := range posts[0].Reactions {
		assert.Zero(t, count)
	}
}

func TestStore_IncrementReaction_UnknownPostNoOp(t *testing.T) {
	store := setupTestStore(t)

	// No error, no row created.
	err := store.IncrementReaction(context.Background(), 424242, "support")
	assert.NoError(t, err)

	posts, err := store.ListFeed(context.Background(), 0, 20)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestStore_SchemaIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	first, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	id, err := first.CreatePost(context.Background(), "survives reopen")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	posts, err := second.ListFeed(context.Background(), 0, 20)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, id, posts[0].ID)
}
