// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides post/reaction persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger

	// now is the clock used for id and timestamp assignment.
	// Overridable in tests to simulate specific ids.
	now func() time.Time

	// mu guards lastID so ids stay strictly increasing even when two
	// posts land in the same millisecond or the clock steps backwards.
	mu     sync.Mutex
	lastID int64
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
		now:    time.Now,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.loadLastID(); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading last post id: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
// Safe to run on every process start.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS posts (
			id   INTEGER PRIMARY KEY,
			text TEXT NOT NULL,
			ts   INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS reactions (
			post_id INTEGER NOT NULL,
			type    TEXT NOT NULL,
			count   INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (post_id, type)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// loadLastID seeds the in-memory id high-water mark from the posts table
// so ids keep increasing across process restarts.
func (s *SQLiteStore) loadLastID() error {
	var last sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(id) FROM posts`).Scan(&last); err != nil {
		return err
	}
	if last.Valid {
		s.lastID = last.Int64
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// nextID allocates a post id derived from the current epoch milliseconds.
// Ids are forced strictly increasing: a second post in the same millisecond
// (or a clock step backwards) gets lastID+1 instead of a colliding value.
func (s *SQLiteStore) nextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// CreatePost inserts a post and seeds one zero-count tally row per reaction
// kind in a single transaction. The tally insert is idempotent
// (INSERT OR IGNORE) so re-seeding an existing row is harmless.
func (s *SQLiteStore) CreatePost(ctx context.Context, text string) (int64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmptyText
	}

	id := s.nextID()
	ts := s.now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO posts (id, text, ts) VALUES (?, ?, ?)`,
		id, text, ts,
	); err != nil {
		return 0, fmt.Errorf("inserting post: %w", err)
	}

	for _, kind := range ReactionKinds {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO reactions (post_id, type, count) VALUES (?, ?, 0)`,
			id, kind,
		); err != nil {
			return 0, fmt.Errorf("seeding %s tally: %w", kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing post: %w", err)
	}

	s.logger.Debug("created post", "id", id)
	return id, nil
}

// ListFeed returns posts ordered by id descending (newest first), each with
// its full set of reaction tallies. A cursor of 0 means "from the newest";
// otherwise only posts with id < cursor are returned (keyset pagination).
// The store applies whatever limit it is given; clamping is the caller's job.
func (s *SQLiteStore) ListFeed(ctx context.Context, cursor int64, limit int) ([]*Post, error) {
	var rows *sql.Rows
	var err error

	if cursor > 0 {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, text, ts FROM posts WHERE id < ? ORDER BY id DESC LIMIT ?`,
			cursor, limit,
		)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, text, ts FROM posts ORDER BY id DESC LIMIT ?`,
			limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var posts []*Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Text, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning post row: %w", err)
		}
		posts = append(posts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating post rows: %w", err)
	}

	for _, p := range posts {
		if p.Reactions, err = s.reactionsForPost(ctx, p.ID); err != nil {
			return nil, err
		}
	}

	return posts, nil
}

// reactionsForPost loads the kind -> count tallies for one post.
// All kinds are seeded at creation, so every post gets the full set.
func (s *SQLiteStore) reactionsForPost(ctx context.Context, postID int64) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, count FROM reactions WHERE post_id = ?`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying reactions: %w", err)
	}
	defer rows.Close()

	reactions := make(map[string]int64, len(ReactionKinds))
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scanning reaction row: %w", err)
		}
		reactions[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reaction rows: %w", err)
	}

	return reactions, nil
}

// IncrementReaction atomically adds 1 to the tally for (postID, kind).
// An unknown post id leaves the table untouched and returns nil: the react
// endpoint is public, and a no-op keeps it idempotent without letting
// callers probe which ids exist.
func (s *SQLiteStore) IncrementReaction(ctx context.Context, postID int64, kind string) error {
	if !ValidReactionKind(kind) {
		return fmt.Errorf("%w: %q", ErrInvalidReactionKind, kind)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE reactions SET count = count + 1 WHERE post_id = ? AND type = ?`,
		postID, kind,
	)
	if err != nil {
		return fmt.Errorf("incrementing reaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		s.logger.Debug("reaction increment matched no row", "post_id", postID, "type", kind)
	}

	return nil
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
