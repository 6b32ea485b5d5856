// ABOUTME: Configuration loading and parsing for gatekeep
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete gatekeep configuration
type Config struct {
	Server      ServerConfig    `yaml:"server"`
	Database    DatabaseConfig  `yaml:"database"`
	Auth        AuthConfig      `yaml:"auth"`
	Providers   ProvidersConfig `yaml:"providers"`
	Logging     LoggingConfig   `yaml:"logging"`
	Environment string          `yaml:"environment"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	// BaseURL is the externally visible URL, used to build OAuth redirect URLs
	BaseURL string `yaml:"base_url"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds token signing secrets and lifetimes
type AuthConfig struct {
	AccessTokenSecret  string `yaml:"access_token_secret"`
	RefreshTokenSecret string `yaml:"refresh_token_secret"`

	AccessTokenTTL  time.Duration `yaml:"-"`
	RefreshTokenTTL time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	AccessTokenTTLRaw  string `yaml:"access_token_ttl"`
	RefreshTokenTTLRaw string `yaml:"refresh_token_ttl"`

	// LegacySessions enables the server-side session deployment mode
	// alongside the token pair
	LegacySessions bool `yaml:"legacy_sessions"`
}

// ProvidersConfig holds configuration for all federated login providers
type ProvidersConfig struct {
	Google ProviderConfig `yaml:"google"`
	GitHub ProviderConfig `yaml:"github"`
}

// ProviderConfig holds a single OAuth2 provider's credentials
type ProviderConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default TTLs used when the config omits them.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// IsProduction reports whether the deployment runs in production mode.
// Production turns on Secure cookies and JSON logs by default.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Auth.AccessTokenSecret == "" {
		return fmt.Errorf("auth.access_token_secret is required")
	}
	if c.Auth.RefreshTokenSecret == "" {
		return fmt.Errorf("auth.refresh_token_secret is required")
	}
	if c.Auth.AccessTokenSecret == c.Auth.RefreshTokenSecret {
		return fmt.Errorf("auth.access_token_secret and auth.refresh_token_secret must differ")
	}

	for name, p := range map[string]ProviderConfig{
		"google": c.Providers.Google,
		"github": c.Providers.GitHub,
	} {
		if !p.Enabled {
			continue
		}
		if p.ClientID == "" {
			return fmt.Errorf("providers.%s.client_id is required when enabled", name)
		}
		if p.ClientSecret == "" {
			return fmt.Errorf("providers.%s.client_secret is required when enabled", name)
		}
	}

	switch c.Environment {
	case "", "development", "production":
	default:
		return fmt.Errorf("environment must be \"development\" or \"production\", got %q", c.Environment)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Auth.AccessTokenTTLRaw != "" {
		cfg.Auth.AccessTokenTTL, err = time.ParseDuration(cfg.Auth.AccessTokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing access_token_ttl %q: %w", cfg.Auth.AccessTokenTTLRaw, err)
		}
	}

	if cfg.Auth.RefreshTokenTTLRaw != "" {
		cfg.Auth.RefreshTokenTTL, err = time.ParseDuration(cfg.Auth.RefreshTokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing refresh_token_ttl %q: %w", cfg.Auth.RefreshTokenTTLRaw, err)
		}
	}

	return nil
}

// applyDefaults fills in the fields a minimal config may omit.
func (c *Config) applyDefaults() {
	if c.Auth.AccessTokenTTL == 0 {
		c.Auth.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if c.Auth.RefreshTokenTTL == 0 {
		c.Auth.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost" + portSuffix(c.Server.HTTPAddr)
	}
}

// portSuffix extracts the ":port" part of a listen address like ":8080" or
// "0.0.0.0:8080".
func portSuffix(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[i:]
		}
	}
	return ""
}
