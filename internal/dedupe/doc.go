// Package dedupe provides update deduplication using a time-based cache
// so redelivered Telegram updates are processed only once per window.
package dedupe
