// Package bot implements the Telegram side of ShutApp: a long-polling
// bot that collects post text through a small per-chat dialogue and
// publishes it to the feed.
//
// The dialogue has two states per chat. Idle chats get guidance; after
// /newpost (private chats only) the chat enters AwaitingText, and the
// next non-empty message becomes a post. /start resets any chat to Idle.
//
// Publishing goes through the Publisher interface. StorePublisher writes
// directly to the store when the bot shares a process with the API;
// IngestClient posts to a remote API's /bot/post endpoint, authenticated
// with the shared ingest secret, when the bot runs on its own.
//
// Redelivered Telegram updates are dropped through a TTL dedupe cache
// keyed by update id, so a flaky long-poll connection cannot publish a
// post twice.
package bot
