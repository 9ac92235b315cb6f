package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Prediction source modes.
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr         string `yaml:"addr"`
		ViewCapacity int    `yaml:"view_capacity"`
	} `yaml:"server"`
	Predictor struct {
		Mode      string        `yaml:"mode"`
		BaseURL   string        `yaml:"base_url"`
		Timeout   time.Duration `yaml:"timeout"`
		RateLimit float64       `yaml:"rate_limit"`
		MaxRetry  time.Duration `yaml:"max_retry"`
	} `yaml:"predictor"`
	Watchlist struct {
		Symbols []string `yaml:"symbols"`
		Days    int      `yaml:"days"`
		Cron    string   `yaml:"cron"`
	} `yaml:"watchlist"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env and the YAML file, then applies environment variable
// overrides and defaults.
func Load(path string) (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("FORECAST_API_URL"); v != "" {
		cfg.Predictor.BaseURL = v
	}
	if v := os.Getenv("PREDICTOR_MODE"); v != "" {
		cfg.Predictor.Mode = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		cfg.Watchlist.Symbols = splitSymbols(v)
	}
	if v := os.Getenv("WATCHLIST_DAYS"); v != "" {
		if d, err := strconv.Atoi(v); err == nil {
			cfg.Watchlist.Days = d
		}
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Watchlist.Cron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ViewCapacity == 0 {
		cfg.Server.ViewCapacity = 256
	}
	if cfg.Predictor.Mode == "" {
		cfg.Predictor.Mode = ModeRemote
	}
	if cfg.Predictor.BaseURL == "" && cfg.Predictor.Mode == ModeRemote {
		cfg.Predictor.BaseURL = "http://localhost:8000"
	}
	if cfg.Predictor.Timeout == 0 {
		cfg.Predictor.Timeout = 60 * time.Second
	}
	if cfg.Predictor.RateLimit == 0 {
		cfg.Predictor.RateLimit = 2
	}
	if cfg.Predictor.MaxRetry == 0 {
		cfg.Predictor.MaxRetry = 30 * time.Second
	}
	if cfg.Watchlist.Days == 0 {
		cfg.Watchlist.Days = 30
	}
	if cfg.Watchlist.Cron == "" {
		cfg.Watchlist.Cron = "0 30 21 * * 1-5"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	for i, s := range cfg.Watchlist.Symbols {
		cfg.Watchlist.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Predictor.Mode {
	case ModeRemote:
		if c.Predictor.BaseURL == "" {
			return errors.New("predictor.base_url is required in remote mode")
		}
	case ModeLocal:
	default:
		return fmt.Errorf("predictor.mode must be %q or %q, got %q", ModeRemote, ModeLocal, c.Predictor.Mode)
	}
	if c.Watchlist.Days < 5 || c.Watchlist.Days > 60 {
		return fmt.Errorf("watchlist.days must be between 5 and 60, got %d", c.Watchlist.Days)
	}
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor).Parse(c.Watchlist.Cron); err != nil {
		return fmt.Errorf("watchlist.cron: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return errors.New("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

func splitSymbols(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
