package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix shared by every environment variable the tool reads
const EnvPrefix = "FBINSIGHTS_"

// Config holds all configuration options for the analytics fetcher
type Config struct {
	// Facebook page credentials and Graph API settings
	Facebook FacebookConfig `yaml:"facebook" json:"facebook"`

	// What to fetch
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry configuration
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Run history
	History HistoryConfig `yaml:"history" json:"history"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// FacebookConfig holds Graph API credentials and endpoint settings
type FacebookConfig struct {
	PageID      string `yaml:"page_id" json:"page_id"`
	AccessToken string `yaml:"access_token" json:"access_token"`
	APIVersion  string `yaml:"api_version" json:"api_version"`
	BaseURL     string `yaml:"base_url" json:"base_url"`

	// Only needed for exchanging a short-lived token
	AppID     string `yaml:"app_id" json:"app_id"`
	AppSecret string `yaml:"app_secret" json:"app_secret"`
}

// FetchConfig controls which analytics are requested
type FetchConfig struct {
	Period    string        `yaml:"period" json:"period"`
	PostLimit int           `yaml:"post_limit" json:"post_limit"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool   `yaml:"enabled" json:"enabled"`
	Strategy          string `yaml:"strategy" json:"strategy"`
	RequestsPerMinute int    `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// RetryConfig holds retry configuration. Retries are off unless enabled.
type RetryConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay    time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// OutputConfig holds output file configuration
type OutputConfig struct {
	Directory   string `yaml:"directory" json:"directory"`
	SummaryFile string `yaml:"summary_file" json:"summary_file"`
	RawFile     string `yaml:"raw_file" json:"raw_file"`
	Indent      int    `yaml:"indent" json:"indent"`
}

// HistoryConfig holds the SQLite run history settings
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// ValidPeriods lists the page insight windows the Graph API accepts
var ValidPeriods = []string{"day", "week", "days_28"}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Facebook: FacebookConfig{
			APIVersion: "v19.0",
			BaseURL:    "https://graph.facebook.com",
		},
		Fetch: FetchConfig{
			Period:    "days_28",
			PostLimit: 3,
			Timeout:   30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			Strategy:          "token_bucket",
			RequestsPerMinute: 200,
		},
		Retry: RetryConfig{
			Enabled:      false,
			MaxAttempts:  3,
			BaseDelay:    1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		Output: OutputConfig{
			Directory:   ".",
			SummaryFile: "facebook_analytics.json",
			RawFile:     "facebook_analytics_all_data.json",
			Indent:      4,
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    "fbinsights.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = n
	}
	setBool := func(name string, dst *bool) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = strings.EqualFold(v, "true") || v == "1"
		}
	}

	setString("PAGE_ID", &c.Facebook.PageID)
	setString("ACCESS_TOKEN", &c.Facebook.AccessToken)
	setString("API_VERSION", &c.Facebook.APIVersion)
	setString("BASE_URL", &c.Facebook.BaseURL)
	setString("APP_ID", &c.Facebook.AppID)
	setString("APP_SECRET", &c.Facebook.AppSecret)

	setString("PERIOD", &c.Fetch.Period)
	setInt("POST_LIMIT", &c.Fetch.PostLimit)

	setBool("RATE_LIMIT_ENABLED", &c.RateLimit.Enabled)
	setInt("REQUESTS_PER_MINUTE", &c.RateLimit.RequestsPerMinute)

	setBool("RETRY_ENABLED", &c.Retry.Enabled)
	setInt("RETRY_MAX_ATTEMPTS", &c.Retry.MaxAttempts)

	setString("OUTPUT_DIR", &c.Output.Directory)

	setBool("HISTORY_ENABLED", &c.History.Enabled)
	setString("HISTORY_PATH", &c.History.Path)

	setString("LOG_LEVEL", &c.Logging.Level)
	setString("LOG_FORMAT", &c.Logging.Format)
	setString("LOG_FILE", &c.Logging.File)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
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

// FindConfigFile searches for a config file in the standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"fbinsights.yaml",
		".fbinsights.yaml",
		".fbinsights.yml",
		filepath.Join(home, ".config", "fbinsights", "config.yaml"),
		filepath.Join(home, ".config", "fbinsights", "config.yml"),
		filepath.Join(home, ".fbinsights.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credentials are checked
// when the Graph client is built, not here, so that commands which never
// touch the API still load.
func (c *Config) Validate() error {
	var errs []error

	if c.Facebook.APIVersion == "" {
		errs = append(errs, errors.New("graph API version is required"))
	}
	if c.Facebook.BaseURL == "" {
		errs = append(errs, errors.New("graph base URL is required"))
	}

	if !IsValidPeriod(c.Fetch.Period) {
		errs = append(errs, fmt.Errorf("invalid period %q (expected one of %s)", c.Fetch.Period, strings.Join(ValidPeriods, ", ")))
	}
	if c.Fetch.PostLimit <= 0 {
		errs = append(errs, errors.New("post limit must be positive"))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerMinute <= 0 {
			errs = append(errs, errors.New("requests per minute must be positive"))
		}
		switch c.RateLimit.Strategy {
		case "token_bucket", "sliding_window":
		default:
			errs = append(errs, fmt.Errorf("invalid rate limit strategy %q", c.RateLimit.Strategy))
		}
	}

	if c.Retry.Enabled {
		if c.Retry.MaxAttempts < 1 || c.Retry.MaxAttempts > 10 {
			errs = append(errs, errors.New("retry max attempts must be between 1 and 10"))
		}
		if c.Retry.Multiplier < 1 {
			errs = append(errs, errors.New("retry multiplier must be at least 1"))
		}
	}

	if c.Output.SummaryFile == "" || c.Output.RawFile == "" {
		errs = append(errs, errors.New("output file names are required"))
	}
	if c.Output.Indent < 0 {
		errs = append(errs, errors.New("output indent cannot be negative"))
	}

	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, errors.New("history path is required when history is enabled"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, errors.New("invalid log format"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// IsValidPeriod reports whether period is an accepted page insight window
func IsValidPeriod(period string) bool {
	for _, p := range ValidPeriods {
		if p == period {
			return true
		}
	}
	return false
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["page-id"].(string); ok && v != "" {
		c.Facebook.PageID = v
	}
	if v, ok := flags["access-token"].(string); ok && v != "" {
		c.Facebook.AccessToken = v
	}
	if v, ok := flags["api-version"].(string); ok && v != "" {
		c.Facebook.APIVersion = v
	}
	if v, ok := flags["period"].(string); ok && v != "" {
		c.Fetch.Period = v
	}
	if v, ok := flags["limit"].(int); ok && v > 0 {
		c.Fetch.PostLimit = v
	}
	if v, ok := flags["timeout"].(time.Duration); ok && v > 0 {
		c.Fetch.Timeout = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.Directory = v
	}
	if v, ok := flags["rate-limit"].(int); ok && v > 0 {
		c.RateLimit.Enabled = true
		c.RateLimit.RequestsPerMinute = v
	}
	if v, ok := flags["retries"].(int); ok && v > 0 {
		c.Retry.Enabled = true
		c.Retry.MaxAttempts = v
	}
	if v, ok := flags["history"].(bool); ok {
		c.History.Enabled = v
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
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".fbinsights.env"))

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
