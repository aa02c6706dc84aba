package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("NOTION_API_KEY", "secret_key")
	t.Setenv("NOTION_DATABASE_ID", "db123")
	t.Setenv("DROPBOX_ACCESS_TOKEN", "sl.token")
}

func TestParse_Defaults(t *testing.T) {
	validEnv(t)

	cfg := parse()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "dropbox", cfg.Storage.Provider)
	assert.Equal(t, "https://api.notion.com", cfg.Notion.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Runner.PollInterval)
	assert.Equal(t, 4, cfg.Runner.CaseLimit)
	assert.Equal(t, 1, cfg.Fetch.Concurrency)
	assert.Equal(t, int64(150*1024*1024), cfg.Storage.Dropbox.ChunkThreshold)
	assert.True(t, cfg.Fetch.BrowserEnabled)
}

func TestParse_Overrides(t *testing.T) {
	validEnv(t)
	t.Setenv("POLL_INTERVAL", "5m")
	t.Setenv("RUN_ONCE", "true")
	t.Setenv("CASE_LIMIT", "10")
	t.Setenv("FETCH_CONCURRENCY", "3")

	cfg := parse()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5*time.Minute, cfg.Runner.PollInterval)
	assert.True(t, cfg.Runner.RunOnce)
	assert.Equal(t, 10, cfg.Runner.CaseLimit)
	assert.Equal(t, 3, cfg.Fetch.Concurrency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing notion key", func(c *Config) { c.Notion.APIKey = "" }, "NOTION_API_KEY"},
		{"missing database id", func(c *Config) { c.Notion.DatabaseID = "" }, "NOTION_DATABASE_ID"},
		{"missing dropbox token", func(c *Config) { c.Storage.Dropbox.AccessToken = "" }, "DROPBOX_ACCESS_TOKEN"},
		{"unknown provider", func(c *Config) { c.Storage.Provider = "ftp" }, "unsupported storage provider"},
		{"s3 without bucket", func(c *Config) { c.Storage.Provider = "s3" }, "S3_BUCKET"},
		{"zero concurrency", func(c *Config) { c.Fetch.Concurrency = 0 }, "FETCH_CONCURRENCY"},
		{"negative case limit", func(c *Config) { c.Runner.CaseLimit = -1 }, "CASE_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validEnv(t)
			cfg := parse()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("X_INT", "not-a-number")
	assert.Equal(t, 7, getInt("X_INT", 7))

	t.Setenv("X_DUR", "90s")
	assert.Equal(t, 90*time.Second, getDuration("X_DUR", "10s"))
	assert.Equal(t, 10*time.Second, getDuration("X_DUR_MISSING", "10s"))

	t.Setenv("X_BOOL", "1")
	assert.True(t, getBool("X_BOOL", false))
}
