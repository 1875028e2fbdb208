// Package server exposes the shutapp HTTP surface: the public feed API and
// the secret-gated ingest endpoint the bot publishes through.
//
// # Endpoints
//
//   - GET /health - liveness check, {"ok":true}
//   - GET /feed?cursor&limit - paginated feed, newest first, limit clamped to 50
//   - POST /posts/{id}/react - increment one reaction tally
//   - POST /bot/post - create a post (requires X-Bot-Secret header)
//
// All responses are JSON. CORS allows any origin without credentials so the
// static web front-end can call the API directly.
//
// # Lifecycle
//
// Start the server:
//
//	srv := server.New(cfg, store, logger)
//	err := srv.Run(ctx) // blocks until ctx is canceled
//
// Run performs a graceful shutdown with a 5 second timeout when the context
// is canceled.
package server
