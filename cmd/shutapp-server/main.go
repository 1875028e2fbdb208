// ABOUTME: Entry point for the shutapp-server backend.
// ABOUTME: Serves the feed API and runs the Telegram posting bot.

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/shutapp/shutapp-server/internal/bot"
	"github.com/shutapp/shutapp-server/internal/config"
	"github.com/shutapp/shutapp-server/internal/server"
	"github.com/shutapp/shutapp-server/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
     _           _
 ___| |__  _   _| |_ __ _ _ __  _ __
/ __| '_ \| | | | __/ _' | '_ \| '_ \
\__ \ | | | |_| | || (_| | |_) | |_) |
|___/_| |_|\__,_|\__\__,_| .__/| .__/
                         |_|   |_|
`

// getConfigPath returns the path to the server config file.
// Priority: SHUTAPP_CONFIG env var > XDG_CONFIG_HOME/shutapp/server.yaml > ~/.config/shutapp/server.yaml
func getConfigPath() string {
	if envPath := os.Getenv("SHUTAPP_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "server.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "shutapp", "server.yaml")
}

// getDataPath returns the path to the shutapp data directory.
// Priority: XDG_DATA_HOME/shutapp > ~/.local/share/shutapp
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "shutapp")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: shutapp-server <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve   Start the API server and the Telegram bot")
		fmt.Println("  api     Start the API server only")
		fmt.Println("  bot     Start the Telegram bot only (posts via remote API)")
		fmt.Println("  init    Create a new config file interactively")
		fmt.Println("  health  Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, true)
	case "api":
		err = runServe(ctx, false)
	case "bot":
		err = runBot(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runServe starts the API server, plus the bot when withBot is set and the
// config enables it. Bot and server share one store and one process.
func runServe(ctx context.Context, withBot bool) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	botEnabled := withBot && cfg.Bot.Enabled

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Bot:      %s\n", onOff(botEnabled))
	fmt.Println()

	logger.Info("starting shutapp-server",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"bot_enabled", botEnabled,
	)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	srv := server.New(cfg, st, logger)

	if !botEnabled {
		return srv.Run(ctx)
	}

	b, err := bot.New(cfg.Bot.Token, cfg.Bot.WebAppURL, bot.NewStorePublisher(st), logger)
	if err != nil {
		return fmt.Errorf("creating bot: %w", err)
	}

	// Run server and bot side by side; the first failure stops both.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- srv.Run(runCtx)
	}()
	go func() {
		errCh <- b.Run(runCtx)
	}()

	err = <-errCh
	cancel()
	<-errCh
	return err
}

// runBot starts the bot alone, publishing posts to a remote API process
// through the ingest endpoint.
func runBot(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if !cfg.Bot.Enabled {
		return fmt.Errorf("bot is disabled in %s", configPath)
	}
	if cfg.Ingest.APIURL == "" {
		return fmt.Errorf("ingest.api_url must be set to run the bot standalone")
	}

	logger := setupLogger(cfg.Logging)
	logger.Info("starting shutapp bot",
		"config", configPath,
		"api_url", cfg.Ingest.APIURL,
	)

	publisher := bot.NewIngestClient(cfg.Ingest.APIURL, cfg.Ingest.Secret)

	b, err := bot.New(cfg.Bot.Token, cfg.Bot.WebAppURL, publisher, logger)
	if err != nil {
		return fmt.Errorf("creating bot: %w", err)
	}

	return b.Run(ctx)
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("shutapp-server configuration setup")
	fmt.Println("==================================")
	fmt.Println()

	defaultConfigPath := getConfigPath()
	defaultDataPath := getDataPath()
	defaultDbPath := filepath.Join(defaultDataPath, "shutapp.db")

	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:8000")

	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", defaultDbPath)

	fmt.Println("\n--- Ingest Configuration ---")
	secret := prompt(reader, "Ingest secret (leave empty to generate)", "")
	if secret == "" {
		secretBytes := make([]byte, 24)
		if _, err := rand.Read(secretBytes); err != nil {
			return fmt.Errorf("generating ingest secret: %w", err)
		}
		secret = base64.StdEncoding.EncodeToString(secretBytes)
		fmt.Printf("Generated secret: %s\n", secret)
	}

	fmt.Println("\n--- Bot Configuration ---")
	enableBot := prompt(reader, "Enable Telegram bot?", "yes")
	botEnabled := strings.ToLower(enableBot) == "yes" || strings.ToLower(enableBot) == "y"

	var botToken, webAppURL string
	if botEnabled {
		botToken = prompt(reader, "Telegram bot token", "")
		webAppURL = prompt(reader, "Web app URL (open-app button target)", "")
	}

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	var cfg strings.Builder
	cfg.WriteString("# shutapp-server configuration\n")
	cfg.WriteString("# Generated by shutapp-server init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: \"%s\"\n", httpAddr))
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", dbPath))
	cfg.WriteString("\n")

	cfg.WriteString("ingest:\n")
	cfg.WriteString(fmt.Sprintf("  secret: \"%s\"\n", secret))
	cfg.WriteString("  # api_url is only needed when running the bot standalone:\n")
	cfg.WriteString(fmt.Sprintf("  # api_url: \"http://%s\"\n", httpAddr))
	cfg.WriteString("\n")

	cfg.WriteString("bot:\n")
	cfg.WriteString(fmt.Sprintf("  enabled: %t\n", botEnabled))
	if botEnabled {
		cfg.WriteString(fmt.Sprintf("  token: \"%s\"\n", botToken))
		cfg.WriteString(fmt.Sprintf("  webapp_url: \"%s\"\n", webAppURL))
	}
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Secret and bot token live in this file.
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  shutapp-server serve\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
