package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fbinsights/pkg/auth"
	"fbinsights/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestExampleConfigLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fbinsights.yaml")
	require.NoError(t, os.WriteFile(path, []byte(exampleConfig), 0600))

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "YOUR_PAGE_ID", cfg.Facebook.PageID)
	assert.Equal(t, "days_28", cfg.Fetch.Period)
	assert.Equal(t, 3, cfg.Fetch.PostLimit)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.False(t, cfg.Retry.Enabled)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 4, cfg.Output.Indent)
}

func TestMaskConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Facebook.AccessToken = "EAABsbCS1iHgBAKZCZCq"
	cfg.Facebook.AppSecret = "short"

	masked := maskConfig(cfg)
	assert.Equal(t, "EAAB...CZCq", masked.Facebook.AccessToken)
	assert.Equal(t, "***", masked.Facebook.AppSecret)
	assert.Equal(t, "EAABsbCS1iHgBAKZCZCq", cfg.Facebook.AccessToken, "original is untouched")
	assert.Equal(t, "", mask(""))
}

func TestFetchFlags(t *testing.T) {
	pageID, period, postLimit = "123", "week", 5
	defer func() { pageID, period, postLimit = "", "", 0 }()

	flags := fetchFlags(fetchCmd)
	assert.Equal(t, "123", flags["page-id"])
	assert.Equal(t, "week", flags["period"])
	assert.Equal(t, 5, flags["limit"])
	_, ok := flags["history"]
	assert.False(t, ok, "history is only set when the flag was given")

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(flags)
	assert.Equal(t, "week", cfg.Fetch.Period)
	assert.Equal(t, 5, cfg.Fetch.PostLimit)
}

func setupCredentialEnv(t *testing.T) {
	t.Helper()
	keyring.MockInit()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv(auth.EnvPassphrase, "test-passphrase")
	t.Setenv(auth.EnvPageID, "")
	t.Setenv(auth.EnvAccessToken, "")
	accountName = ""
	t.Cleanup(func() { accountName = "" })
}

func TestResolveCredentialsFromConfig(t *testing.T) {
	setupCredentialEnv(t)

	cfg := config.DefaultConfig()
	cfg.Facebook.PageID = "654529707751538"
	cfg.Facebook.AccessToken = "EAABtoken"

	require.NoError(t, resolveCredentials(cfg))
	assert.Equal(t, "EAABtoken", cfg.Facebook.AccessToken)
}

func TestResolveCredentialsRejectsPlaceholders(t *testing.T) {
	setupCredentialEnv(t)

	cfg := config.DefaultConfig()
	cfg.Facebook.PageID = "YOUR_PAGE_ID"
	cfg.Facebook.AccessToken = "YOUR_PAGE_ACCESS_TOKEN"

	assert.Error(t, resolveCredentials(cfg))
}

func TestResolveCredentialsFromStoredAccount(t *testing.T) {
	setupCredentialEnv(t)

	manager, err := auth.NewManager()
	require.NoError(t, err)
	require.NoError(t, manager.Store(&auth.PageCredentials{
		Name:        "mypage",
		PageID:      "111",
		AccessToken: "EAABstored",
	}))

	cfg := config.DefaultConfig()
	cfg.Facebook.PageID = "999"
	cfg.Facebook.AccessToken = "EAABconfig"

	accountName = "mypage"
	require.NoError(t, resolveCredentials(cfg))
	assert.Equal(t, "111", cfg.Facebook.PageID)
	assert.Equal(t, "EAABstored", cfg.Facebook.AccessToken)

	accountName = "missing"
	assert.ErrorIs(t, resolveCredentials(cfg), auth.ErrCredentialsNotFound)
}

func TestResolveCredentialsFillsMissingToken(t *testing.T) {
	setupCredentialEnv(t)

	manager, err := auth.NewManager()
	require.NoError(t, err)
	require.NoError(t, manager.Store(&auth.PageCredentials{PageID: "111", AccessToken: "EAABdefault"}))

	cfg := config.DefaultConfig()
	cfg.Facebook.PageID = "222"

	require.NoError(t, resolveCredentials(cfg))
	assert.Equal(t, "222", cfg.Facebook.PageID, "configured page id is kept")
	assert.Equal(t, "EAABdefault", cfg.Facebook.AccessToken)
}
