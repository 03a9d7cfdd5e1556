package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"CONFIG_FILE", "ENVIRONMENT", "LISTEN_ADDR", "API_BASE_URL", "DATA_SOURCE",
		"SESSION_KEY", "SESSION_FILE", "LOG_LEVEL", "LOG_MODE", "LOG_FILE",
		"ENABLE_METRICS", "HTTP_TIMEOUT", "IMPORT_MAPPING",
		"JWT_SECRET", "JWT_ISS", "JWT_AUD", "JWT_EXPIRY",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.ListenAddr != ":8080" {
		t.Errorf("Expected default LISTEN_ADDR, got %s", cfg.ListenAddr)
	}
	if cfg.APIBaseURL != "http://localhost:5000" {
		t.Errorf("Expected default API_BASE_URL, got %s", cfg.APIBaseURL)
	}
	if cfg.DataSource != DataSourceLive {
		t.Errorf("Expected default DATA_SOURCE, got %s", cfg.DataSource)
	}
	if cfg.HTTPTimeout != 0 {
		t.Errorf("Expected transport default timeout, got %v", cfg.HTTPTimeout)
	}
	if cfg.JWTExpiry != 24*time.Hour {
		t.Errorf("Expected default JWT_EXPIRY, got %v", cfg.JWTExpiry)
	}
	if cfg.EnableMetrics {
		t.Error("Expected metrics disabled by default")
	}
}

func TestLoadWithEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_BASE_URL", "https://inventory.example.com/")
	t.Setenv("DATA_SOURCE", "MOCK")
	t.Setenv("HTTP_TIMEOUT", "15s")
	t.Setenv("ENABLE_METRICS", "true")
	t.Setenv("JWT_EXPIRY", "2h")

	cfg := Load()

	if cfg.APIBaseURL != "https://inventory.example.com" {
		t.Errorf("Expected trailing slash trimmed, got %s", cfg.APIBaseURL)
	}
	if cfg.DataSource != DataSourceMock {
		t.Errorf("Expected DATA_SOURCE from env, got %s", cfg.DataSource)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("Expected HTTP_TIMEOUT from env, got %v", cfg.HTTPTimeout)
	}
	if !cfg.EnableMetrics {
		t.Error("Expected ENABLE_METRICS from env")
	}
	if cfg.JWTExpiry != 2*time.Hour {
		t.Errorf("Expected JWT_EXPIRY from env, got %v", cfg.JWTExpiry)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	data := []byte("listen_addr: \":9090\"\napi_base_url: http://api.internal:5000\nhttp_timeout: 5s\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LISTEN_ADDR", ":7070")

	cfg := Load()

	if cfg.APIBaseURL != "http://api.internal:5000" {
		t.Errorf("Expected api_base_url from file, got %s", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("Expected http_timeout from file, got %v", cfg.HTTPTimeout)
	}
	if cfg.ListenAddr != ":7070" {
		t.Errorf("Expected env to override file, got %s", cfg.ListenAddr)
	}
}

func validConfig() *Config {
	return &Config{
		Environment: "development",
		ListenAddr:  ":8080",
		APIBaseURL:  "http://localhost:5000",
		DataSource:  DataSourceLive,
		SessionKey:  "a-session-key-that-is-long-enough-for-testing",
		JWTSecret:   "valid-secret-that-is-long-enough-for-testing",
		JWTIssuer:   "test-issuer",
		JWTAudience: "test-audience",
		JWTExpiry:   time.Hour,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "relative api url", mutate: func(c *Config) { c.APIBaseURL = "/api" }, expectError: true},
		{name: "unknown data source", mutate: func(c *Config) { c.DataSource = "sql" }, expectError: true},
		{name: "negative timeout", mutate: func(c *Config) { c.HTTPTimeout = -time.Second }, expectError: true},
		{name: "session key too short", mutate: func(c *Config) { c.SessionKey = "short" }, expectError: true},
		{
			name: "default session key in production",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.SessionKey = defaultSessionKey
			},
			expectError: true,
		},
		{name: "mock ignores api url", mutate: func(c *Config) { c.DataSource = DataSourceMock; c.APIBaseURL = "" }},
		{
			name:        "mock secret too short",
			mutate:      func(c *Config) { c.DataSource = DataSourceMock; c.JWTSecret = "short" },
			expectError: true,
		},
		{
			name:        "mock empty issuer",
			mutate:      func(c *Config) { c.DataSource = DataSourceMock; c.JWTIssuer = "" },
			expectError: true,
		},
		{
			name:        "mock expiry too short",
			mutate:      func(c *Config) { c.DataSource = DataSourceMock; c.JWTExpiry = 30 * time.Second },
			expectError: true,
		},
		{
			name:        "mock expiry too long",
			mutate:      func(c *Config) { c.DataSource = DataSourceMock; c.JWTExpiry = 31 * 24 * time.Hour },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.expectError {
				t.Errorf("Validate() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}

func TestLoadAndValidate(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_KEY", "test-session-key-that-is-long-enough")

	cfg, err := LoadAndValidate()
	if err != nil {
		t.Errorf("LoadAndValidate() failed with valid config: %v", err)
	}
	if cfg == nil {
		t.Error("LoadAndValidate() returned nil config with valid config")
	}

	t.Setenv("DATA_SOURCE", "nope")
	if _, err := LoadAndValidate(); err == nil {
		t.Error("LoadAndValidate() should fail with invalid config")
	}
}
