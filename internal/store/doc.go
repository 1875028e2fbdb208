// Package store provides persistent storage for shutapp-server using SQLite.
//
// # Data Models
//
//   - Post: a published text post; its integer id is derived from the
//     creation time in epoch milliseconds and is strictly increasing
//   - Reaction tallies: one (post_id, type) counter row per reaction kind,
//     seeded at zero when the post is created
//
// # Pagination
//
// The feed uses keyset pagination on the post id: a page is fetched with
// "id < cursor ORDER BY id DESC LIMIT n". Because ids are assigned in
// strictly increasing order, a cursor taken from one page never drifts,
// skips or duplicates posts when new posts are inserted concurrently.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//
// SQLite's own file locking serializes concurrent writers at statement and
// transaction granularity; the store adds no application-level locking
// beyond the id allocator.
//
// # Error Handling
//
//   - ErrEmptyText: post text was empty
//   - ErrInvalidReactionKind: reaction kind outside support/hug/sad
//
// Incrementing a reaction on a nonexistent post is deliberately a silent
// no-op rather than an error; see IncrementReaction.
//
// All methods accept context.Context for cancellation support.
//
// Use NewSQLiteStore(":memory:") for integration tests with real SQLite.
package store
