// Package config contains everything related to configuration
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Token store backends.
const (
	TokenBackendFile   = "file"
	TokenBackendSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	Username       string
	Password       string
	BaseURL        string
	ProjectID      string
	TokenPath      string
	TokenBackend   string
	DatabasePath   string
	ReportDir      string
	DefinitionPath string
	LogLevel       string
	HTTPTimeout    time.Duration
}

// Default values
const (
	defaultBaseURL     = "https://exv.portal.alabuga.ru"
	defaultHTTPTimeout = 30 * time.Second
	appDirName         = "exon-report"
)

// ErrMissingCredentials is returned when a login is needed but no username or password is set.
var ErrMissingCredentials = errors.New("EXON_USERNAME and EXON_PASSWORD are required (set via env or .env file)")

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		Username:       os.Getenv("EXON_USERNAME"),
		Password:       os.Getenv("EXON_PASSWORD"),
		BaseURL:        strings.TrimRight(getEnvString("EXON_BASE_URL", defaultBaseURL), "/"),
		ProjectID:      os.Getenv("EXON_PROJECT_ID"),
		TokenPath:      getEnvOptional("TOKEN_FILE", getDefaultPath("tokens.json")),
		TokenBackend:   strings.ToLower(getEnvString("TOKEN_BACKEND", TokenBackendFile)),
		DatabasePath:   getEnvString("DATABASE_PATH", getDefaultPath("history.db")),
		ReportDir:      getEnvString("REPORT_DIR", "."),
		DefinitionPath: os.Getenv("REPORT_DEFINITION"),
		LogLevel:       getEnvString("LOG_LEVEL", "info"),
		HTTPTimeout:    getEnvDuration("HTTP_TIMEOUT", defaultHTTPTimeout),
	}

	if cfg.TokenBackend != TokenBackendFile && cfg.TokenBackend != TokenBackendSQLite {
		return nil, errors.New("TOKEN_BACKEND must be \"file\" or \"sqlite\"")
	}

	if cfg.TokenPath != "" {
		if err := ensureDir(filepath.Dir(cfg.TokenPath)); err != nil {
			return nil, err
		}
	}

	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RequireCredentials reports whether a full login can be performed.
func (c *Config) RequireCredentials() error {
	if c.Username == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appDirName, ".env"))
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
	}

	return paths
}

// getDefaultPath returns name inside the per-user config directory.
func getDefaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", appDirName, name)
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOptional is like getEnvString but an explicitly empty variable
// overrides the default. TOKEN_FILE= turns persistence off.
func getEnvOptional(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
