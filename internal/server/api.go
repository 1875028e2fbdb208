// ABOUTME: HTTP API handlers for the feed and ingest services.
// ABOUTME: Serves the paginated feed, reaction increments, and bot post ingestion.

package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shutapp/shutapp-server/internal/store"
)

// maxFeedLimit caps how many posts one feed page may return.
const maxFeedLimit = 50

// defaultFeedLimit is used when the client does not specify a limit.
const defaultFeedLimit = 20

// botSecretHeader gates the ingest endpoint.
const botSecretHeader = "X-Bot-Secret"

// FeedPost is the JSON shape of one post in GET /feed responses.
type FeedPost struct {
	ID        int64            `json:"id"`
	Text      string           `json:"text"`
	Timestamp int64            `json:"ts"`
	Reactions map[string]int64 `json:"reactions"`
}

// ReactRequest is the JSON request body for POST /posts/{id}/react.
type ReactRequest struct {
	Type string `json:"type"`
}

// BotPostRequest is the JSON request body for POST /bot/post.
type BotPostRequest struct {
	Text string `json:"text"`
}

// BotPostResponse is the JSON response for POST /bot/post.
type BotPostResponse struct {
	OK bool  `json:"ok"`
	ID int64 `json:"id"`
}

// handleHealth handles GET /health requests with a constant liveness payload.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleFeed handles GET /feed?cursor=<id>&limit=<n> requests.
// The limit is clamped to maxFeedLimit before reaching the store; the cursor
// selects posts with id strictly less than it (keyset pagination).
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var cursor int64
	if cursorStr := r.URL.Query().Get("cursor"); cursorStr != "" {
		parsed, err := strconv.ParseInt(cursorStr, 10, 64)
		if err != nil || parsed < 1 {
			s.sendJSONError(w, http.StatusBadRequest, "cursor must be a positive integer")
			return
		}
		cursor = parsed
	}

	limit := defaultFeedLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			s.sendJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
		if limit > maxFeedLimit {
			limit = maxFeedLimit
		}
	}

	posts, err := s.store.ListFeed(r.Context(), cursor, limit)
	if err != nil {
		s.logger.Error("failed to list feed", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	response := make([]FeedPost, len(posts))
	for i, p := range posts {
		response[i] = FeedPost{
			ID:        p.ID,
			Text:      p.Text,
			Timestamp: p.Timestamp,
			Reactions: p.Reactions,
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleReact handles POST /posts/{id}/react requests.
// An unknown reaction type is a client error; an unknown post id is
// acknowledged anyway because the increment is a store-level no-op.
func (s *Server) handleReact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Extract post id from path: /posts/{id}/react
	path := r.URL.Path
	prefix := "/posts/"
	suffix := "/react"

	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		s.sendJSONError(w, http.StatusBadRequest, "invalid path")
		return
	}

	idStr := strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
	postID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || postID < 1 {
		s.sendJSONError(w, http.StatusBadRequest, "post id must be a positive integer")
		return
	}

	var req ReactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.store.IncrementReaction(r.Context(), postID, req.Type); err != nil {
		if errors.Is(err, store.ErrInvalidReactionKind) {
			s.sendJSONError(w, http.StatusBadRequest, "unknown reaction type")
			return
		}
		s.logger.Error("failed to increment reaction", "error", err, "post_id", postID)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleBotPost handles POST /bot/post requests from the bot process.
// The shared secret must match exactly; the comparison is constant-time.
func (s *Server) handleBotPost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	secret := r.Header.Get(botSecretHeader)
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.config.Ingest.Secret)) != 1 {
		s.sendJSONError(w, http.StatusUnauthorized, "bad secret")
		return
	}

	var req BotPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		s.sendJSONError(w, http.StatusBadRequest, "text is required")
		return
	}

	id, err := s.store.CreatePost(r.Context(), text)
	if err != nil {
		s.logger.Error("failed to create post", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.logger.Info("post ingested", "id", id)
	s.writeJSON(w, http.StatusOK, BotPostResponse{OK: true, ID: id})
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
