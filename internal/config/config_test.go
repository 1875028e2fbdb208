// ABOUTME: Tests for configuration loading and validation
// ABOUTME: Covers YAML parsing, env var expansion, and required-field checks

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes YAML content to a temp file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "localhost:8080"
database:
  path: "/tmp/shutapp.db"
ingest:
  secret: "hunter2"
bot:
  enabled: true
  token: "123:abc"
  webapp_url: "https://example.github.io/shutapp"
logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "/tmp/shutapp.db", cfg.Database.Path)
	assert.Equal(t, "hunter2", cfg.Ingest.Secret)
	assert.True(t, cfg.Bot.Enabled)
	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, "https://example.github.io/shutapp", cfg.Bot.WebAppURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("SHUTAPP_SECRET", "from-env")
	t.Setenv("SHUTAPP_BOT_TOKEN", "456:def")

	path := writeConfig(t, `
server:
  http_addr: "localhost:8080"
database:
  path: "/tmp/shutapp.db"
ingest:
  secret: "${SHUTAPP_SECRET}"
bot:
  enabled: true
  token: "${SHUTAPP_BOT_TOKEN}"
  webapp_url: "https://example.github.io/shutapp"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Ingest.Secret)
	assert.Equal(t, "456:def", cfg.Bot.Token)
}

func TestLoad_UnsetEnvVarBecomesEmpty(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "localhost:8080"
database:
  path: "/tmp/shutapp.db"
ingest:
  secret: "${SHUTAPP_DEFINITELY_UNSET_VAR}"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest.secret is required")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not: valid: yaml")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing http addr",
			mutate:  func(c *Config) { c.Server.HTTPAddr = "" },
			wantErr: "server.http_addr is required",
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path is required",
		},
		{
			name:    "missing ingest secret",
			mutate:  func(c *Config) { c.Ingest.Secret = "" },
			wantErr: "ingest.secret is required",
		},
		{
			name:    "bot enabled without token",
			mutate:  func(c *Config) { c.Bot.Token = "" },
			wantErr: "bot.token is required",
		},
		{
			name:    "bot enabled without webapp url",
			mutate:  func(c *Config) { c.Bot.WebAppURL = "" },
			wantErr: "bot.webapp_url is required",
		},
		{
			name: "bot disabled needs no token",
			mutate: func(c *Config) {
				c.Bot = BotConfig{Enabled: false}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server:   ServerConfig{HTTPAddr: "localhost:8080"},
				Database: DatabaseConfig{Path: "/tmp/shutapp.db"},
				Ingest:   IngestConfig{Secret: "hunter2"},
				Bot: BotConfig{
					Enabled:   true,
					Token:     "123:abc",
					WebAppURL: "https://example.github.io/shutapp",
				},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
