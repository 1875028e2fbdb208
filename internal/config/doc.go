// Package config handles configuration loading for shutapp-server.
//
// Configuration is loaded from a YAML file with ${VAR_NAME} environment
// variable expansion applied to the raw content before parsing.
//
// Sections:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
//	database:
//	  path: "/var/lib/shutapp/shutapp.db"
//
//	ingest:
//	  secret: "${SHUTAPP_BOT_SECRET}"   # required; gates POST /bot/post
//	  api_url: "http://localhost:8080"  # used by the standalone bot process
//
//	bot:
//	  enabled: true
//	  token: "${TELEGRAM_BOT_TOKEN}"
//	  webapp_url: "https://example.github.io/shutapp"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// Load() validates required fields and returns the first failure found.
package config
