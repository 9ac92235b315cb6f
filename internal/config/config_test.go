package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"FORECAST_API_URL", "PREDICTOR_MODE", "SERVER_ADDR", "TELEGRAM_BOT_TOKEN",
		"TELEGRAM_CHAT_ID", "SQLITE_PATH", "WATCHLIST", "WATCHLIST_DAYS", "CRON_REFRESH", "LOG_LEVEL", "HTTPS_PROXY"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, ModeRemote, cfg.Predictor.Mode)
	assert.Equal(t, "http://localhost:8000", cfg.Predictor.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Predictor.Timeout)
	assert.Equal(t, 30, cfg.Watchlist.Days)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
predictor:
  mode: local
  timeout: 15s
watchlist:
  symbols: [aapl, " msft "]
  days: 14
`), 0o644))

	t.Setenv("WATCHLIST", "")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SERVER_ADDR", ":7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, ModeLocal, cfg.Predictor.Mode)
	assert.Empty(t, cfg.Predictor.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Predictor.Timeout)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Watchlist.Symbols)
	assert.Equal(t, 14, cfg.Watchlist.Days)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())

	t.Setenv("WATCHLIST", "tsla, nvda,,")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"TSLA", "NVDA"}, cfg.Watchlist.Symbols)
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.Predictor.Mode = ModeRemote
		c.Predictor.BaseURL = "http://svc"
		c.Watchlist.Days = 30
		c.Watchlist.Cron = "0 30 21 * * 1-5"
		return c
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"unknown mode", func(c *Config) { c.Predictor.Mode = "magic" }, false},
		{"remote without url", func(c *Config) { c.Predictor.BaseURL = "" }, false},
		{"local without url", func(c *Config) { c.Predictor.Mode = ModeLocal; c.Predictor.BaseURL = "" }, true},
		{"days too low", func(c *Config) { c.Watchlist.Days = 4 }, false},
		{"days upper bound", func(c *Config) { c.Watchlist.Days = 60 }, true},
		{"days too high", func(c *Config) { c.Watchlist.Days = 61 }, false},
		{"bad cron", func(c *Config) { c.Watchlist.Cron = "every day" }, false},
		{"descriptor cron", func(c *Config) { c.Watchlist.Cron = "@daily" }, true},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "x" }, false},
		{"telegram pair", func(c *Config) { c.Telegram.BotToken = "x"; c.Telegram.ChatID = "1" }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			if tc.ok {
				assert.NoError(t, c.Validate())
			} else {
				assert.Error(t, c.Validate())
			}
		})
	}
}
