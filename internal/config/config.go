// Package config loads server settings from defaults, an optional
// ledger.yaml, a .env file, LEDGER_* environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. LEDGER_PORT.
const EnvPrefix = "LEDGER"

// Config holds the runtime settings of the ledger server.
type Config struct {
	Port        string        `mapstructure:"port"`
	DataDir     string        `mapstructure:"data_dir"`     // file store directory
	DatabaseURL string        `mapstructure:"database_url"` // enables the Postgres store
	RedisURL    string        `mapstructure:"redis_url"`    // enables the snapshot cache
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	LogLevel    string        `mapstructure:"log_level"`
}

// Defaults are used when nothing else sets a key.
var Defaults = map[string]any{
	"port":         "8080",
	"data_dir":     "./data",
	"database_url": "",
	"redis_url":    "",
	"cache_ttl":    "30s",
	"log_level":    "info",
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"port":         "port",
	"data-dir":     "data_dir",
	"database-url": "database_url",
	"redis-url":    "redis_url",
	"cache-ttl":    "cache_ttl",
	"log-level":    "log_level",
}

// AddFlags registers the config flags on cmd.
func AddFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String("config", "", "config file (default ./ledger.yaml)")
	f.String("port", "8080", "HTTP listen port")
	f.String("data-dir", "./data", "directory for transactions.json and balances.json")
	f.String("database-url", "", "PostgreSQL URL; replaces the file store when set")
	f.String("redis-url", "", "Redis URL; caches snapshots in front of the store")
	f.Duration("cache-ttl", 30*time.Second, "Redis cache entry lifetime")
	f.String("log-level", "info", "debug, info, warn or error")
}

// Load resolves the configuration for cmd. Missing .env and ledger.yaml
// files are not errors.
func Load(cmd *cobra.Command) (Config, error) {
	var c Config

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}

	v := viper.New()
	for key, value := range Defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("ledger")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
		v.SetConfigFile(f.Value.String())
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, c.Validate()
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("config: port is required")
	}
	if c.DatabaseURL == "" && c.DataDir == "" {
		return errors.New("config: one of data_dir or database_url is required")
	}
	if c.RedisURL != "" && c.CacheTTL <= 0 {
		return fmt.Errorf("config: cache_ttl must be positive, got %s", c.CacheTTL)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("config: log_level: %w", err)
	}
	return l, nil
}
