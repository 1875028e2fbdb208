// ABOUTME: Store interface and data types for shutapp-server persistence
// ABOUTME: Defines Post, reaction kinds and the Store interface for database operations

package store

import (
	"context"
	"errors"
)

// ErrEmptyText is returned when creating a post with empty or whitespace-only text
var ErrEmptyText = errors.New("post text is empty")

// ErrInvalidReactionKind is returned when a reaction kind is not one of the
// defined kinds (support, hug, sad)
var ErrInvalidReactionKind = errors.New("invalid reaction kind")

// ReactionKinds is the fixed set of reaction kinds. Every post gets one
// zero-count tally row per kind at creation; no kind is added dynamically.
var ReactionKinds = []string{"support", "hug", "sad"}

// ValidReactionKind reports whether kind is one of the defined reaction kinds.
func ValidReactionKind(kind string) bool {
	for _, k := range ReactionKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Post represents a published post with its reaction tallies.
// The id doubles as the feed cursor: ids are assigned in strictly
// increasing order, so "id < cursor" pages through the feed newest-first
// without drift under concurrent inserts.
type Post struct {
	ID        int64
	Text      string
	Timestamp int64 // creation time, epoch seconds
	Reactions map[string]int64
}

// Store defines the interface for post and reaction persistence.
// Implementations must keep each call individually atomic; the only
// multi-statement transaction is post insertion plus tally seeding.
type Store interface {
	// CreatePost inserts a post and seeds a zero-count tally per reaction
	// kind, returning the new post id. Text must be pre-trimmed and
	// non-empty; ErrEmptyText otherwise.
	CreatePost(ctx context.Context, text string) (int64, error)

	// ListFeed returns up to limit posts ordered by id descending.
	// A cursor of 0 starts from the newest post; otherwise only posts
	// with id strictly less than cursor are returned.
	ListFeed(ctx context.Context, cursor int64, limit int) ([]*Post, error)

	// IncrementReaction atomically adds 1 to the tally for (postID, kind).
	// Returns ErrInvalidReactionKind for undefined kinds. Incrementing a
	// nonexistent post is a silent no-op.
	IncrementReaction(ctx context.Context, postID int64, kind string) error

	// Close releases any resources held by the store
	Close() error
}
