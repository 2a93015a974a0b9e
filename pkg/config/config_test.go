package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "v19.0", cfg.Facebook.APIVersion)
	assert.Equal(t, "https://graph.facebook.com", cfg.Facebook.BaseURL)
	assert.Empty(t, cfg.Facebook.PageID)
	assert.Empty(t, cfg.Facebook.AccessToken)

	assert.Equal(t, "days_28", cfg.Fetch.Period)
	assert.Equal(t, 3, cfg.Fetch.PostLimit)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)

	assert.False(t, cfg.RateLimit.Enabled)
	assert.False(t, cfg.Retry.Enabled)
	assert.False(t, cfg.History.Enabled)

	assert.Equal(t, "facebook_analytics.json", cfg.Output.SummaryFile)
	assert.Equal(t, "facebook_analytics_all_data.json", cfg.Output.RawFile)
	assert.Equal(t, 4, cfg.Output.Indent)

	assert.Equal(t, "info", cfg.Logging.Level)

	// Defaults must validate without credentials
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FBINSIGHTS_PAGE_ID", "1234567890")
	t.Setenv("FBINSIGHTS_ACCESS_TOKEN", "EAAtesttoken")
	t.Setenv("FBINSIGHTS_PERIOD", "week")
	t.Setenv("FBINSIGHTS_POST_LIMIT", "7")
	t.Setenv("FBINSIGHTS_OUTPUT_DIR", "/tmp/fb-out")
	t.Setenv("FBINSIGHTS_HISTORY_ENABLED", "true")
	t.Setenv("FBINSIGHTS_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "1234567890", cfg.Facebook.PageID)
	assert.Equal(t, "EAAtesttoken", cfg.Facebook.AccessToken)
	assert.Equal(t, "week", cfg.Fetch.Period)
	assert.Equal(t, 7, cfg.Fetch.PostLimit)
	assert.Equal(t, "/tmp/fb-out", cfg.Output.Directory)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("FBINSIGHTS_POST_LIMIT", "three")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FBINSIGHTS_POST_LIMIT")
	assert.Equal(t, 3, cfg.Fetch.PostLimit)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fbinsights.yaml")
	content := `
facebook:
  page_id: "654529707751538"
  access_token: "EAAfile"
fetch:
  period: day
  post_limit: 10
  timeout: 5s
retry:
  enabled: true
  max_attempts: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "654529707751538", cfg.Facebook.PageID)
	assert.Equal(t, "EAAfile", cfg.Facebook.AccessToken)
	assert.Equal(t, "day", cfg.Fetch.Period)
	assert.Equal(t, 10, cfg.Fetch.PostLimit)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.True(t, cfg.Retry.Enabled)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)

	// Unset keys keep their defaults
	assert.Equal(t, "v19.0", cfg.Facebook.APIVersion)
	assert.Equal(t, "facebook_analytics.json", cfg.Output.SummaryFile)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("fetch: [unclosed"), 0644))
	assert.Error(t, cfg.LoadFromFile(bad))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad period", func(c *Config) { c.Fetch.Period = "month" }, "invalid period"},
		{"zero limit", func(c *Config) { c.Fetch.PostLimit = 0 }, "post limit"},
		{"zero timeout", func(c *Config) { c.Fetch.Timeout = 0 }, "timeout"},
		{"bad strategy", func(c *Config) {
			c.RateLimit.Enabled = true
			c.RateLimit.Strategy = "leaky"
		}, "rate limit strategy"},
		{"disabled limiter ignores strategy", func(c *Config) { c.RateLimit.Strategy = "leaky" }, ""},
		{"too many retries", func(c *Config) {
			c.Retry.Enabled = true
			c.Retry.MaxAttempts = 50
		}, "retry max attempts"},
		{"missing file names", func(c *Config) { c.Output.RawFile = "" }, "output file names"},
		{"history without path", func(c *Config) {
			c.History.Enabled = true
			c.History.Path = ""
		}, "history path"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch:\n  period: day\n  post_limit: 5\n"), 0644))

	t.Setenv("FBINSIGHTS_POST_LIMIT", "6")

	cfg, err := Load(path, map[string]interface{}{
		"period": "week",
		"output": dir,
	})
	require.NoError(t, err)

	assert.Equal(t, "week", cfg.Fetch.Period, "flag beats file")
	assert.Equal(t, 6, cfg.Fetch.PostLimit, "env beats file")
	assert.Equal(t, dir, cfg.Output.Directory)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"), nil)
	assert.Error(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch:\n  period: fortnight\n"), 0644))
	_, err = Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Facebook.PageID = "42"
	cfg.History.Enabled = true

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, cfg, loaded)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"page-id":      "99",
		"access-token": "EAAflag",
		"limit":        12,
		"rate-limit":   30,
		"retries":      2,
		"history":      true,
		"log-level":    "warn",
	})

	assert.Equal(t, "99", cfg.Facebook.PageID)
	assert.Equal(t, "EAAflag", cfg.Facebook.AccessToken)
	assert.Equal(t, 12, cfg.Fetch.PostLimit)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.True(t, cfg.Retry.Enabled)
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestIsValidPeriod(t *testing.T) {
	for _, p := range ValidPeriods {
		assert.True(t, IsValidPeriod(p), p)
	}
	assert.Equal(t, []string{"day", "week", "days_28"}, ValidPeriods)
	for _, p := range []string{"", "month", "lifetime", "DAY"} {
		assert.False(t, IsValidPeriod(p), p)
	}
}
