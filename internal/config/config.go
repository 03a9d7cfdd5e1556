package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DataSourceLive proxies every call to the products API
	DataSourceLive = "live"
	// DataSourceMock serves a seeded in-memory collection
	DataSourceMock = "mock"

	defaultSessionKey = "dev-session-key-change-in-production"
	defaultJWTSecret  = "your-secret-key-change-in-production"
)

type Config struct {
	Environment string `yaml:"environment"`
	ListenAddr  string `yaml:"listen_addr"`

	APIBaseURL  string        `yaml:"api_base_url"`
	DataSource  string        `yaml:"data_source"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	SessionKey  string `yaml:"session_key"`
	SessionFile string `yaml:"session_file"`

	LogLevel string `yaml:"log_level"`
	LogMode  string `yaml:"log_mode"`
	LogFile  string `yaml:"log_file"`

	EnableMetrics bool `yaml:"enable_metrics"`

	ImportMapping string `yaml:"import_mapping"`

	// Used by the mock data source to issue tokens
	JWTSecret   string        `yaml:"jwt_secret"`
	JWTIssuer   string        `yaml:"jwt_issuer"`
	JWTAudience string        `yaml:"jwt_audience"`
	JWTExpiry   time.Duration `yaml:"jwt_expiry"`
}

// Load reads .env, an optional YAML file named by CONFIG_FILE, and the
// environment, in increasing order of precedence.
func Load() *Config {
	_ = godotenv.Load()

	config := &Config{
		Environment:   "development",
		ListenAddr:    ":8080",
		APIBaseURL:    "http://localhost:5000",
		DataSource:    DataSourceLive,
		SessionKey:    defaultSessionKey,
		SessionFile:   defaultSessionFile(),
		LogLevel:      "info",
		LogMode:       "development",
		JWTSecret:     defaultJWTSecret,
		JWTIssuer:     "inventory-dashboard",
		JWTAudience:   "inventory-dashboard",
		JWTExpiry:     24 * time.Hour,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := config.loadFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "config: ignoring %s: %v\n", path, err)
		}
	}

	config.Environment = getEnv("ENVIRONMENT", config.Environment)
	config.ListenAddr = getEnv("LISTEN_ADDR", config.ListenAddr)
	config.APIBaseURL = strings.TrimRight(getEnv("API_BASE_URL", config.APIBaseURL), "/")
	config.DataSource = strings.ToLower(getEnv("DATA_SOURCE", config.DataSource))
	config.SessionKey = getEnv("SESSION_KEY", config.SessionKey)
	config.SessionFile = getEnv("SESSION_FILE", config.SessionFile)
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)
	config.LogMode = getEnv("LOG_MODE", config.LogMode)
	config.LogFile = getEnv("LOG_FILE", config.LogFile)
	config.ImportMapping = getEnv("IMPORT_MAPPING", config.ImportMapping)
	config.JWTSecret = getEnv("JWT_SECRET", config.JWTSecret)
	config.JWTIssuer = getEnv("JWT_ISS", config.JWTIssuer)
	config.JWTAudience = getEnv("JWT_AUD", config.JWTAudience)

	if v := os.Getenv("ENABLE_METRICS"); v != "" {
		config.EnableMetrics = v == "true"
	}

	// Unparseable durations keep the previous value
	if s := os.Getenv("HTTP_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			config.HTTPTimeout = d
		}
	}
	if s := os.Getenv("JWT_EXPIRY"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			config.JWTExpiry = d
		}
	}

	return config
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Validate checks the configuration for values that would break startup
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("LISTEN_ADDR cannot be empty")
	}

	switch c.DataSource {
	case DataSourceLive:
		u, err := url.Parse(c.APIBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.APIBaseURL)
		}
	case DataSourceMock:
		if err := c.validateJWT(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("DATA_SOURCE must be %q or %q, got %q", DataSourceLive, DataSourceMock, c.DataSource)
	}

	if c.HTTPTimeout < 0 {
		return errors.New("HTTP_TIMEOUT cannot be negative")
	}

	if len(c.SessionKey) < 32 {
		return errors.New("SESSION_KEY must be at least 32 characters long")
	}
	if c.IsProduction() && c.SessionKey == defaultSessionKey {
		return errors.New("SESSION_KEY must be changed in production")
	}

	return nil
}

func (c *Config) validateJWT() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET cannot be empty")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters long")
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be changed in production")
	}
	if c.JWTIssuer == "" {
		return errors.New("JWT_ISS cannot be empty")
	}
	if c.JWTAudience == "" {
		return errors.New("JWT_AUD cannot be empty")
	}
	if c.JWTExpiry < time.Minute {
		return errors.New("JWT_EXPIRY must be at least one minute")
	}
	if c.JWTExpiry > 30*24*time.Hour {
		return errors.New("JWT_EXPIRY cannot exceed 30 days")
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadAndValidate loads the configuration and validates it
func LoadAndValidate() (*Config, error) {
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "inventory-session.db"
	}
	return filepath.Join(dir, "inventory-dashboard", "session.db")
}
