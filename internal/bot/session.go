// ABOUTME: In-memory per-chat conversation state for the Telegram bot.
// ABOUTME: Tracks the Idle/AwaitingText dialogue state keyed by chat id.

package bot

import "sync"

// State is a chat's position in the posting dialogue.
type State int

const (
	// StateIdle is the initial state; commands are accepted, free text gets guidance.
	StateIdle State = iota
	// StateAwaitingText means /newpost was issued and the next non-empty
	// message becomes the post text.
	StateAwaitingText
)

// Sessions holds per-chat dialogue state. State lives only in memory for
// the lifetime of the process; a restart resets every chat to Idle.
type Sessions struct {
	mu sync.Mutex
	m  map[int64]State
}

// NewSessions creates an empty session table.
func NewSessions() *Sessions {
	return &Sessions{m: make(map[int64]State)}
}

// Get returns the state for a chat, defaulting to StateIdle.
func (s *Sessions) Get(chatID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[chatID]
}

// Set records the state for a chat.
func (s *Sessions) Set(chatID int64, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[chatID] = state
}

// Reset returns a chat to StateIdle.
func (s *Sessions) Reset(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, chatID)
}
