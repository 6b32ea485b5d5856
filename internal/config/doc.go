// Package config handles configuration loading for gatekeep.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from GATEKEEP_CONFIG environment variable
//  2. ./config.yaml (current directory)
//  3. ~/.config/gatekeep/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  access_token_secret: "${GATEKEEP_ACCESS_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	auth:
//	  access_token_ttl: "15m"
//	  refresh_token_ttl: "168h"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	  base_url: "https://auth.example.com"  # used for OAuth redirects
//
// Database:
//
//	database:
//	  path: "/var/lib/gatekeep/gatekeep.db"
//
// Authentication:
//
//	auth:
//	  access_token_secret: "${GATEKEEP_ACCESS_SECRET}"
//	  refresh_token_secret: "${GATEKEEP_REFRESH_SECRET}"
//	  access_token_ttl: "15m"
//	  refresh_token_ttl: "168h"
//	  legacy_sessions: false  # server-side session mode
//
// Federated login providers:
//
//	providers:
//	  google:
//	    enabled: true
//	    client_id: "${GOOGLE_CLIENT_ID}"
//	    client_secret: "${GOOGLE_CLIENT_SECRET}"
//	    redirect_url: "https://auth.example.com/auth/google/redirect"
//	  github:
//	    enabled: false
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - Required addresses, paths, and signing secrets
//   - That the two signing secrets differ
//   - Provider credentials when a provider is enabled
//   - Duration format validity
//   - Environment mode values
package config
