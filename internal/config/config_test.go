package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points HOME and the working directory at a fresh temp dir so no
// real .env file leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	wd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(wd) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}

	for _, key := range []string{
		"EXON_USERNAME", "EXON_PASSWORD", "EXON_BASE_URL", "EXON_PROJECT_ID",
		"TOKEN_BACKEND", "DATABASE_PATH", "REPORT_DIR", "REPORT_DEFINITION",
		"HTTP_TIMEOUT", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("TOKEN_FILE", filepath.Join(tmpDir, "tokens.json"))
	t.Setenv("DATABASE_PATH", filepath.Join(tmpDir, "history.db"))
	return tmpDir
}

func TestGetEnvString(t *testing.T) {
	t.Setenv("TEST_ENV_STRING", "test_value")

	if got := getEnvString("TEST_ENV_STRING", "default"); got != "test_value" {
		t.Errorf("getEnvString() = %q, want %q", got, "test_value")
	}

	if got := getEnvString("NON_EXISTENT", "default"); got != "default" {
		t.Errorf("getEnvString() = %q, want %q", got, "default")
	}
}

func TestGetEnvOptional(t *testing.T) {
	t.Setenv("TEST_ENV_OPTIONAL", "")
	if got := getEnvOptional("TEST_ENV_OPTIONAL", "default"); got != "" {
		t.Errorf("explicitly empty variable should override default, got %q", got)
	}

	os.Unsetenv("TEST_ENV_OPTIONAL_MISSING")
	if got := getEnvOptional("TEST_ENV_OPTIONAL_MISSING", "default"); got != "default" {
		t.Errorf("getEnvOptional() = %q, want default", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_ENV_DURATION"

	tests := []struct {
		name       string
		envVal     string
		defaultVal time.Duration
		want       time.Duration
	}{
		{"ValidDuration", "1m", time.Second, time.Minute},
		{"ValidSeconds", "60", time.Second, 60 * time.Second},
		{"Invalid", "invalid", time.Second, time.Second},
		{"Empty", "", time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.envVal)

			if got := getEnvDuration(key, tt.defaultVal); got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "dir")

	if err := ensureDir(path); err != nil {
		t.Fatalf("ensureDir() failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("directory was not created")
	}

	if err := ensureDir(""); err != nil {
		t.Error("ensureDir(\"\") should not error")
	}
}

func TestGetEnvPaths(t *testing.T) {
	paths := getEnvPaths()
	if len(paths) == 0 {
		t.Fatal("getEnvPaths() returned empty list")
	}

	cwd, _ := os.Getwd()
	if paths[0] != filepath.Join(cwd, ".env") {
		t.Errorf("first env path = %q, want current directory .env", paths[0])
	}
}

func TestLoad_Defaults(t *testing.T) {
	tmpDir := isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, defaultBaseURL)
	}
	if cfg.HTTPTimeout != defaultHTTPTimeout {
		t.Errorf("HTTPTimeout = %v, want %v", cfg.HTTPTimeout, defaultHTTPTimeout)
	}
	if cfg.TokenBackend != TokenBackendFile {
		t.Errorf("TokenBackend = %q, want %q", cfg.TokenBackend, TokenBackendFile)
	}
	if cfg.TokenPath != filepath.Join(tmpDir, "tokens.json") {
		t.Errorf("TokenPath = %q", cfg.TokenPath)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoad_TrimsBaseURL(t *testing.T) {
	isolate(t)
	t.Setenv("EXON_BASE_URL", "https://portal.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.BaseURL != "https://portal.example.com" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}
}

func TestLoad_EmptyTokenFileDisablesPersistence(t *testing.T) {
	isolate(t)
	t.Setenv("TOKEN_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.TokenPath != "" {
		t.Errorf("TokenPath = %q, want empty", cfg.TokenPath)
	}
}

func TestLoad_InvalidBackend(t *testing.T) {
	isolate(t)
	t.Setenv("TOKEN_BACKEND", "redis")

	if _, err := Load(); err == nil {
		t.Error("Load() should reject unknown token backend")
	}
}

func TestLoad_WithEnvFile(t *testing.T) {
	tmpDir := isolate(t)
	os.Unsetenv("EXON_USERNAME")
	os.Unsetenv("EXON_PASSWORD")
	os.Unsetenv("EXON_PROJECT_ID")

	content := "EXON_USERNAME=env-user\nEXON_PASSWORD=env-pass\nEXON_PROJECT_ID=655f142e5b102a26e732bfc4\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("EXON_USERNAME")
		os.Unsetenv("EXON_PASSWORD")
		os.Unsetenv("EXON_PROJECT_ID")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Username != "env-user" {
		t.Errorf("Username = %q, want env-user", cfg.Username)
	}
	if cfg.ProjectID != "655f142e5b102a26e732bfc4" {
		t.Errorf("ProjectID = %q", cfg.ProjectID)
	}
	if err := cfg.RequireCredentials(); err != nil {
		t.Errorf("RequireCredentials() = %v, want nil", err)
	}
}

func TestRequireCredentials(t *testing.T) {
	cfg := &Config{Username: "user"}
	if err := cfg.RequireCredentials(); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("RequireCredentials() = %v, want ErrMissingCredentials", err)
	}
}
