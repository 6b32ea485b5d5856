// ABOUTME: Entry point for the gatekeep authentication server
// ABOUTME: Wires config, storage, token services, providers, and the HTTP server

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"

	"github.com/solstice-labs/gatekeep/internal/auth"
	"github.com/solstice-labs/gatekeep/internal/config"
	"github.com/solstice-labs/gatekeep/internal/oauth"
	"github.com/solstice-labs/gatekeep/internal/store"
	"github.com/solstice-labs/gatekeep/internal/web"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
             _       _
   __ _  __ _| |_ ___| | _____  ___ _ __
  / _' |/ _' | __/ _ \ |/ / _ \/ _ \ '_ \
 | (_| | (_| | ||  __/   <  __/  __/ |_) |
  \__, |\__,_|\__\___|_|\_\___|\___| .__/
  |___/                            |_|
`

// getConfigPath returns the path to the gatekeep config file.
// Priority: GATEKEEP_CONFIG env var > XDG_CONFIG_HOME/gatekeep/config.yaml > ~/.config/gatekeep/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("GATEKEEP_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "gatekeep", "config.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: gatekeep <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the authentication server")
		fmt.Println("  init     Create a new config file with generated secrets")
		fmt.Println("  health   Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
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

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	// Startup info
	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:      %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:        %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:    %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Environment: %s\n", cfg.Environment)
	if cfg.Providers.Google.Enabled {
		green.Print("    ▶ ")
		fmt.Println("Provider:    google")
	}
	if cfg.Providers.GitHub.Enabled {
		green.Print("    ▶ ")
		fmt.Println("Provider:    github")
	}
	fmt.Println()

	logger.Info("starting gatekeep",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"environment", cfg.Environment,
	)

	// Storage
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	// Token service
	tokens, err := auth.NewTokenService(
		[]byte(cfg.Auth.AccessTokenSecret),
		[]byte(cfg.Auth.RefreshTokenSecret),
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	// Core services
	resolver := auth.NewResolver(st)
	sessions := auth.NewSessionManager(st, tokens)

	var legacy *auth.LegacySessions
	if cfg.Auth.LegacySessions {
		legacy = auth.NewLegacySessions(st, st)
	}

	guard := auth.NewGuard(st, tokens, legacy)

	// Federated providers
	providers := buildProviders(cfg)
	for name := range providers {
		logger.Info("federated provider enabled", "provider", name)
	}

	srv := web.NewServer(web.Options{
		Addr:      cfg.Server.HTTPAddr,
		Users:     st,
		Resolver:  resolver,
		Sessions:  sessions,
		Legacy:    legacy,
		Guard:     guard,
		Providers: providers,
		Cookies: auth.CookiePolicy{
			Secure:     cfg.IsProduction(),
			AccessTTL:  cfg.Auth.AccessTokenTTL,
			RefreshTTL: cfg.Auth.RefreshTokenTTL,
		},
	})

	return srv.Run(ctx)
}

// buildProviders constructs the enabled OAuth2 providers from config. A
// provider without an explicit redirect URL gets one derived from the base
// URL.
func buildProviders(cfg *config.Config) oauth.Registry {
	var providers []oauth.Provider

	if p := cfg.Providers.Google; p.Enabled {
		redirect := p.RedirectURL
		if redirect == "" {
			redirect = cfg.Server.BaseURL + "/auth/google/redirect"
		}
		providers = append(providers, oauth.NewGoogle(p.ClientID, p.ClientSecret, redirect))
	}

	if p := cfg.Providers.GitHub; p.Enabled {
		redirect := p.RedirectURL
		if redirect == "" {
			redirect = cfg.Server.BaseURL + "/auth/github/redirect"
		}
		providers = append(providers, oauth.NewGitHub(p.ClientID, p.ClientSecret, redirect))
	}

	return oauth.NewRegistry(providers...)
}

// configTemplate is written by the init command. Secrets are generated,
// provider credentials are left for the operator.
const configTemplate = `server:
  http_addr: "0.0.0.0:8080"
  # base_url: "https://auth.example.com"

database:
  path: "%s"

environment: "development"

auth:
  access_token_secret: "%s"
  refresh_token_secret: "%s"
  access_token_ttl: "15m"
  refresh_token_ttl: "168h"
  legacy_sessions: false

providers:
  google:
    enabled: false
    client_id: "${GOOGLE_CLIENT_ID}"
    client_secret: "${GOOGLE_CLIENT_SECRET}"
  github:
    enabled: false
    client_id: "${GITHUB_CLIENT_ID}"
    client_secret: "${GITHUB_CLIENT_SECRET}"

logging:
  level: "info"
  format: "text"
`

func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s", configPath)
	}

	accessSecret, err := generateSecret()
	if err != nil {
		return fmt.Errorf("generating access secret: %w", err)
	}
	refreshSecret, err := generateSecret()
	if err != nil {
		return fmt.Errorf("generating refresh secret: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	dbPath := filepath.Join(filepath.Dir(configPath), "gatekeep.db")
	content := fmt.Sprintf(configTemplate, dbPath, accessSecret, refreshSecret)

	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Print("    ✓ ")
	fmt.Printf("Config created at %s\n", configPath)
	fmt.Println("    Edit it to enable federated providers, then run: gatekeep serve")
	return nil
}

// generateSecret returns a fresh random signing secret.
func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/healthz", cfg.Server.HTTPAddr)
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

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
