package model

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment variables that override the config file.
const (
	EnvAPIURL   = "CRM_API_URL"
	EnvWSURL    = "CRM_WS_URL"
	EnvAPIToken = "CRM_API_TOKEN"
)

// DefaultSiteBase is used when no API URL is configured anywhere.
const DefaultSiteBase = "http://localhost:5000"

// APIConfig holds the backend endpoints.
type APIConfig struct {
	// BaseURL is the REST API root, e.g. https://crm.example.com/api.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// WSURL is an explicit push transport address. Derived when empty.
	WSURL string `mapstructure:"ws_url" yaml:"ws_url"`

	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// NotificationConfig holds the real-time channel and toast settings.
type NotificationConfig struct {
	ReconnectDelayMs     int  `mapstructure:"reconnect_delay_ms" yaml:"reconnect_delay_ms"`
	MaxReconnectAttempts int  `mapstructure:"max_reconnect_attempts" yaml:"max_reconnect_attempts"`
	PollIntervalSec      int  `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
	RecencyWindowSec     int  `mapstructure:"recency_window_sec" yaml:"recency_window_sec"`
	DisplaySec           int  `mapstructure:"display_sec" yaml:"display_sec"`
	Sound                bool `mapstructure:"sound" yaml:"sound"`
	Desktop              bool `mapstructure:"desktop" yaml:"desktop"`
}

// ReconnectDelay returns the pause between transport attempts.
func (n NotificationConfig) ReconnectDelay() time.Duration {
	return time.Duration(n.ReconnectDelayMs) * time.Millisecond
}

// PollInterval returns the polling fallback period.
func (n NotificationConfig) PollInterval() time.Duration {
	return time.Duration(n.PollIntervalSec) * time.Second
}

// RecencyWindow returns how old a polled bid may be and still count as new.
func (n NotificationConfig) RecencyWindow() time.Duration {
	return time.Duration(n.RecencyWindowSec) * time.Second
}

// DisplayDuration returns how long a toast stays visible.
func (n NotificationConfig) DisplayDuration() time.Duration {
	return time.Duration(n.DisplaySec) * time.Second
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme    string `mapstructure:"theme" yaml:"theme"`
	PageSize int    `mapstructure:"page_size" yaml:"page_size"`
}

// LoggingConfig controls the log level and destination file.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// StoreConfig locates the local preferences database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API           APIConfig          `mapstructure:"api" yaml:"api"`
	Notifications NotificationConfig `mapstructure:"notifications" yaml:"notifications"`
	Display       DisplayConfig      `mapstructure:"display" yaml:"display"`
	Logging       LoggingConfig      `mapstructure:"logging" yaml:"logging"`
	Store         StoreConfig        `mapstructure:"store" yaml:"store"`
}

// ConfigDir returns ~/.config/crmterm.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "crmterm")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/crmterm/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		API: APIConfig{
			TimeoutSec: 30,
		},
		Notifications: NotificationConfig{
			ReconnectDelayMs:     3000,
			MaxReconnectAttempts: 3,
			PollIntervalSec:      10,
			RecencyWindowSec:     30,
			DisplaySec:           8,
			Sound:                true,
		},
		Display: DisplayConfig{
			Theme:    "default",
			PageSize: 20,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(dir, "crmterm.log"),
		},
		Store: StoreConfig{
			Path: filepath.Join(dir, "crmterm.db"),
		},
	}
}

func setDefaults(v *viper.Viper, d *AppConfig) {
	v.SetDefault("api.timeout_sec", d.API.TimeoutSec)
	v.SetDefault("notifications.reconnect_delay_ms", d.Notifications.ReconnectDelayMs)
	v.SetDefault("notifications.max_reconnect_attempts", d.Notifications.MaxReconnectAttempts)
	v.SetDefault("notifications.poll_interval_sec", d.Notifications.PollIntervalSec)
	v.SetDefault("notifications.recency_window_sec", d.Notifications.RecencyWindowSec)
	v.SetDefault("notifications.display_sec", d.Notifications.DisplaySec)
	v.SetDefault("notifications.sound", d.Notifications.Sound)
	v.SetDefault("notifications.desktop", d.Notifications.Desktop)
	v.SetDefault("display.theme", d.Display.Theme)
	v.SetDefault("display.page_size", d.Display.PageSize)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("store.path", d.Store.Path)
}

// LoadEnvFiles loads .env.local and .env from dir. Variables already
// present in the environment win. A missing file is fine; a file that
// exists but does not parse is an error.
func LoadEnvFiles(dir string) error {
	for _, name := range []string{".env.local", ".env"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults apply. CRM_API_URL and CRM_WS_URL
// override the file values.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	defaults := DefaultAppConfig()
	setDefaults(v, defaults)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if s := os.Getenv(EnvAPIURL); s != "" {
		cfg.API.BaseURL = s
	}
	if s := os.Getenv(EnvWSURL); s != "" {
		cfg.API.WSURL = s
	}

	cfg.normalize(defaults)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

// normalize replaces non-positive durations and sizes with defaults.
func (c *AppConfig) normalize(d *AppConfig) {
	if c.API.TimeoutSec <= 0 {
		c.API.TimeoutSec = d.API.TimeoutSec
	}
	n := &c.Notifications
	if n.ReconnectDelayMs <= 0 {
		n.ReconnectDelayMs = d.Notifications.ReconnectDelayMs
	}
	if n.MaxReconnectAttempts <= 0 {
		n.MaxReconnectAttempts = d.Notifications.MaxReconnectAttempts
	}
	if n.PollIntervalSec <= 0 {
		n.PollIntervalSec = d.Notifications.PollIntervalSec
	}
	if n.RecencyWindowSec <= 0 {
		n.RecencyWindowSec = d.Notifications.RecencyWindowSec
	}
	if n.DisplaySec <= 0 {
		n.DisplaySec = d.Notifications.DisplaySec
	}
	if c.Display.PageSize <= 0 {
		c.Display.PageSize = d.Display.PageSize
	}
}

// Validate checks the endpoint URLs parse with a supported scheme.
func (c *AppConfig) Validate() error {
	if c.API.BaseURL != "" {
		if err := checkURL(c.API.BaseURL, "http", "https"); err != nil {
			return fmt.Errorf("api.base_url: %w", err)
		}
	}
	if c.API.WSURL != "" {
		if err := checkURL(c.API.WSURL, "ws", "wss"); err != nil {
			return fmt.Errorf("api.ws_url: %w", err)
		}
	}
	return nil
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s {
			if u.Host == "" {
				return fmt.Errorf("missing host in %q", raw)
			}
			return nil
		}
	}
	return fmt.Errorf("unsupported scheme %q in %q", u.Scheme, raw)
}

// SiteBase returns the configured API URL without its /api suffix, or
// DefaultSiteBase when none is set.
func (c *AppConfig) SiteBase() string {
	base := strings.TrimRight(c.API.BaseURL, "/")
	if base == "" {
		return DefaultSiteBase
	}
	return strings.TrimSuffix(base, "/api")
}

// APIBase returns the REST root, always <site base>/api.
func (c *AppConfig) APIBase() string {
	return c.SiteBase() + "/api"
}

// WSURL returns the push transport address: the explicit ws_url, else the
// API URL with its scheme swapped, else a same-origin address derived from
// the site base.
func (c *AppConfig) WSURL() string {
	if c.API.WSURL != "" {
		return c.API.WSURL
	}
	if c.API.BaseURL != "" {
		return toWS(strings.TrimRight(c.API.BaseURL, "/"))
	}
	return toWS(c.SiteBase())
}

func toWS(u string) string {
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("notifications", cfg.Notifications)
	v.Set("display", cfg.Display)
	v.Set("logging", cfg.Logging)
	v.Set("store", cfg.Store)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
