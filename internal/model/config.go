package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Holiday sources and key-value backends.
const (
	HolidaySourceNager  = "nager"
	HolidaySourceICal   = "ical"
	HolidaySourceCalDAV = "caldav"
	KVDisk              = "disk"
	KVRedis             = "redis"
	// KVStore keeps holidays in the SQLite settings table.
	KVStore = "store"
)

// StoreConfig selects and locates the habit/log store.
type StoreConfig struct {
	// Driver is "sqlite" (local file) or "postgres" (remote).
	Driver string `mapstructure:"driver" yaml:"driver"`

	// Path is the SQLite database file.
	Path string `mapstructure:"path" yaml:"path"`

	// DSN is the Postgres connection string.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// HolidayConfig controls where holidays come from and where they are cached.
type HolidayConfig struct {
	Country    string  `mapstructure:"country" yaml:"country"`
	Source     string  `mapstructure:"source" yaml:"source"`
	URL        string  `mapstructure:"url" yaml:"url"`
	KV         string  `mapstructure:"kv" yaml:"kv"`
	Dir        string  `mapstructure:"dir" yaml:"dir"`
	RedisAddr  string  `mapstructure:"redis_addr" yaml:"redis_addr"`
	RatePerSec float64 `mapstructure:"rate_per_sec" yaml:"rate_per_sec"`

	// Calendar, Username and Password locate a CalDAV holiday calendar
	// under URL. The password is usually supplied through
	// HABITCAL_HOLIDAYS_PASSWORD rather than the file.
	Calendar string `mapstructure:"calendar" yaml:"calendar,omitempty"`
	Username string `mapstructure:"username" yaml:"username,omitempty"`
	Password string `mapstructure:"password" yaml:"-"`
}

// LogConfig controls the log file and the optional metrics endpoint.
type LogConfig struct {
	Path        string `mapstructure:"path" yaml:"path"`
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`
}

// DisplayConfig holds rendering preferences.
type DisplayConfig struct {
	Theme    string `mapstructure:"theme" yaml:"theme"`
	Capacity int    `mapstructure:"capacity" yaml:"capacity"`
	Columns  int    `mapstructure:"columns" yaml:"columns"`
}

// SessionConfig names the owner when no keyring session exists.
type SessionConfig struct {
	OwnerID string `mapstructure:"owner_id" yaml:"owner_id"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Store    StoreConfig   `mapstructure:"store" yaml:"store"`
	Holidays HolidayConfig `mapstructure:"holidays" yaml:"holidays"`
	Display  DisplayConfig `mapstructure:"display" yaml:"display"`
	Session  SessionConfig `mapstructure:"session" yaml:"session"`
	Log      LogConfig     `mapstructure:"log" yaml:"log"`
}

// ConfigDir returns ~/.config/habitcal.
func ConfigDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "habitcal")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/habitcal/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   filepath.Join(ConfigDir(), "habits.db"),
		},
		Holidays: HolidayConfig{
			Country:    "KR",
			Source:     HolidaySourceNager,
			KV:         KVDisk,
			Dir:        filepath.Join(ConfigDir(), "cache"),
			RatePerSec: 2,
		},
		Display: DisplayConfig{
			Theme:    "default",
			Capacity: 6,
			Columns:  2,
		},
		Log: LogConfig{
			Path: filepath.Join(ConfigDir(), "habitcal.log"),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// HABITCAL_* environment variables override file values. If the file does
// not exist, defaults (plus environment) are returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("habitcal")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := defaultAppConfig()
	v.SetDefault("store.driver", def.Store.Driver)
	v.SetDefault("store.path", def.Store.Path)
	v.SetDefault("store.dsn", "")
	v.SetDefault("holidays.country", def.Holidays.Country)
	v.SetDefault("holidays.source", def.Holidays.Source)
	v.SetDefault("holidays.url", "")
	v.SetDefault("holidays.kv", def.Holidays.KV)
	v.SetDefault("holidays.dir", def.Holidays.Dir)
	v.SetDefault("holidays.redis_addr", "")
	v.SetDefault("holidays.rate_per_sec", def.Holidays.RatePerSec)
	v.SetDefault("holidays.calendar", "")
	v.SetDefault("holidays.username", "")
	v.SetDefault("holidays.password", "")
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("display.capacity", def.Display.Capacity)
	v.SetDefault("display.columns", def.Display.Columns)
	v.SetDefault("session.owner_id", "")
	v.SetDefault("log.path", def.Log.Path)
	v.SetDefault("log.metrics_addr", "")

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Display.Capacity < 1 {
		cfg.Display.Capacity = def.Display.Capacity
	}
	if cfg.Display.Columns < 1 {
		cfg.Display.Columns = def.Display.Columns
	}
	cfg.Store.Path = expand(cfg.Store.Path)
	cfg.Holidays.Dir = expand(cfg.Holidays.Dir)
	cfg.Log.Path = expand(cfg.Log.Path)

	return cfg, nil
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

	v.Set("store", cfg.Store)
	v.Set("holidays", cfg.Holidays)
	v.Set("display", cfg.Display)
	v.Set("session", cfg.Session)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

func expand(path string) string {
	if path == "" {
		return path
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}
