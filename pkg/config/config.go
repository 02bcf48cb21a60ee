package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreJSONL  = "jsonl"
	StoreMemory = "memory"
)

// Config holds all configuration options for behancesync
type Config struct {
	// Behance account and API access
	Behance BehanceConfig `yaml:"behance" json:"behance"`

	// Spacing between API calls
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Local asset mirror
	Assets AssetsConfig `yaml:"assets" json:"assets"`

	// Where records are emitted
	Store StoreConfig `yaml:"store" json:"store"`

	// Prometheus textfile output
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Periodic re-sync
	Schedule ScheduleConfig `yaml:"schedule" json:"schedule"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BehanceConfig holds Behance-specific configuration
type BehanceConfig struct {
	Username  string        `yaml:"username" json:"username"`
	APIKey    string        `yaml:"api_key" json:"api_key"`
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Interval time.Duration `yaml:"interval" json:"interval"`
}

// AssetsConfig holds asset mirroring configuration
type AssetsConfig struct {
	Directory string `yaml:"directory" json:"directory"`
	// Concurrency bounds parallel downloads per project; 0 means one worker per asset
	Concurrency int  `yaml:"concurrency" json:"concurrency"`
	FailOnError bool `yaml:"fail_on_error" json:"fail_on_error"`
}

// StoreConfig selects and configures the record store
type StoreConfig struct {
	Driver string       `yaml:"driver" json:"driver"`
	SQLite SQLiteConfig `yaml:"sqlite" json:"sqlite"`
	Redis  RedisConfig  `yaml:"redis" json:"redis"`
	JSONL  JSONLConfig  `yaml:"jsonl" json:"jsonl"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" json:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address" json:"address"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	Prefix   string `yaml:"prefix" json:"prefix"`
}

type JSONLConfig struct {
	Path string `yaml:"path" json:"path"`
}

// MetricsConfig holds metrics output configuration
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path" json:"textfile_path"`
}

// ScheduleConfig holds the cron expression for repeated syncs
type ScheduleConfig struct {
	Cron string `yaml:"cron" json:"cron"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	Format  string `yaml:"format" json:"format"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Behance: BehanceConfig{
			BaseURL:   "https://api.behance.net/v2",
			Timeout:   30 * time.Second,
			UserAgent: "behancesync/1.0",
		},
		RateLimit: RateLimitConfig{
			Interval: 500 * time.Millisecond,
		},
		Assets: AssetsConfig{
			Directory: "./assets",
		},
		Store: StoreConfig{
			Driver: StoreSQLite,
			SQLite: SQLiteConfig{Path: "./behancesync.db"},
			Redis:  RedisConfig{Address: "localhost:6379", Prefix: "behancesync"},
			JSONL:  JSONLConfig{Path: "./records.jsonl"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	// Behance credentials use the names the API docs use
	setString("BEHANCE_USERNAME", &c.Behance.Username)
	setString("BEHANCE_API_KEY", &c.Behance.APIKey)
	setString("BEHANCESYNC_BASE_URL", &c.Behance.BaseURL)
	setDuration("BEHANCESYNC_TIMEOUT", &c.Behance.Timeout)

	setDuration("BEHANCESYNC_RATE_INTERVAL", &c.RateLimit.Interval)

	setString("BEHANCESYNC_ASSETS_DIR", &c.Assets.Directory)
	setInt("BEHANCESYNC_ASSET_CONCURRENCY", &c.Assets.Concurrency)
	if v := os.Getenv("BEHANCESYNC_FAIL_ON_ASSET_ERROR"); v != "" {
		c.Assets.FailOnError = strings.EqualFold(v, "true")
	}

	setString("BEHANCESYNC_STORE_DRIVER", &c.Store.Driver)
	setString("BEHANCESYNC_SQLITE_PATH", &c.Store.SQLite.Path)
	setString("BEHANCESYNC_REDIS_ADDR", &c.Store.Redis.Address)
	setString("BEHANCESYNC_REDIS_PASSWORD", &c.Store.Redis.Password)
	setInt("BEHANCESYNC_REDIS_DB", &c.Store.Redis.DB)
	setString("BEHANCESYNC_JSONL_PATH", &c.Store.JSONL.Path)

	setString("BEHANCESYNC_METRICS_FILE", &c.Metrics.TextfilePath)
	setString("BEHANCESYNC_SCHEDULE", &c.Schedule.Cron)
	setString("BEHANCESYNC_LOG_LEVEL", &c.Logging.Level)
	setString("BEHANCESYNC_LOG_FORMAT", &c.Logging.Format)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// DefaultPath is where `config init` writes by default
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "behancesync", "config.yaml")
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	locations := []string{
		".behancesync.yaml",
		".behancesync.yml",
		DefaultPath(),
		filepath.Join(os.Getenv("HOME"), ".behancesync.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks the configuration. Credentials are not checked here since
// they may still come from the credential store; see ValidateCredentials.
func (c *Config) Validate() error {
	var errs []error

	if c.Behance.BaseURL == "" {
		errs = append(errs, errors.New("behance base URL is required"))
	} else if u, err := url.Parse(c.Behance.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid behance base URL %q", c.Behance.BaseURL))
	}
	if c.Behance.Timeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.RateLimit.Interval < 0 {
		errs = append(errs, errors.New("rate limit interval cannot be negative"))
	}

	if c.Assets.Directory == "" {
		errs = append(errs, errors.New("assets directory is required"))
	}
	if c.Assets.Concurrency < 0 {
		errs = append(errs, errors.New("asset concurrency cannot be negative"))
	}

	switch c.Store.Driver {
	case StoreSQLite:
		if c.Store.SQLite.Path == "" {
			errs = append(errs, errors.New("sqlite store requires a path"))
		}
	case StoreRedis:
		if c.Store.Redis.Address == "" {
			errs = append(errs, errors.New("redis store requires an address"))
		}
	case StoreJSONL:
		if c.Store.JSONL.Path == "" {
			errs = append(errs, errors.New("jsonl store requires a path"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}

	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			errs = append(errs, fmt.Errorf("invalid schedule %q: %w", c.Schedule.Cron, err))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}
	if f := strings.ToLower(c.Logging.Format); f != "console" && f != "json" && f != "" {
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// ValidateCredentials reports missing username or API key
func (c *Config) ValidateCredentials() error {
	var errs []error
	if c.Behance.Username == "" {
		errs = append(errs, errors.New("behance username is required"))
	}
	if c.Behance.APIKey == "" {
		errs = append(errs, errors.New("behance API key is required"))
	}
	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags applies flags that were explicitly set. Keys are the
// flag names; zero values are ignored.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["username"].(string); ok && v != "" {
		c.Behance.Username = v
	}
	if v, ok := flags["api-key"].(string); ok && v != "" {
		c.Behance.APIKey = v
	}
	if v, ok := flags["interval"].(time.Duration); ok && v > 0 {
		c.RateLimit.Interval = v
	}
	if v, ok := flags["assets-dir"].(string); ok && v != "" {
		c.Assets.Directory = v
	}
	if v, ok := flags["concurrency"].(int); ok && v > 0 {
		c.Assets.Concurrency = v
	}
	if v, ok := flags["fail-on-asset-error"].(bool); ok && v {
		c.Assets.FailOnError = true
	}
	if v, ok := flags["store"].(string); ok && v != "" {
		c.Store.Driver = v
	}
	if v, ok := flags["db"].(string); ok && v != "" {
		c.Store.SQLite.Path = v
	}
	if v, ok := flags["metrics-file"].(string); ok && v != "" {
		c.Metrics.TextfilePath = v
	}
	if v, ok := flags["schedule"].(string); ok && v != "" {
		c.Schedule.Cron = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".behancesync.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
