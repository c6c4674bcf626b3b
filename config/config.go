// Package config loads notebrowser-mcp settings from defaults, an optional
// YAML file, NOTEBROWSER_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "NOTEBROWSER"

// Config is the full set of settings.
type Config struct {
	Root   string       `mapstructure:"root"`
	Log    LogConfig    `mapstructure:"log"`
	Search SearchConfig `mapstructure:"search"`
	Watch  WatchConfig  `mapstructure:"watch"`
	Sync   SyncConfig   `mapstructure:"sync"`
	Move   MoveConfig   `mapstructure:"move"`
}

// LogConfig controls the slog output. File "" logs to stderr.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// SearchConfig controls content and file search.
type SearchConfig struct {
	RespectIgnore bool     `mapstructure:"respect_ignore"`
	MaxResults    int      `mapstructure:"max_results"`
	Exclude       []string `mapstructure:"exclude"`
}

// WatchConfig controls the filesystem watcher.
type WatchConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	DebounceMS int  `mapstructure:"debounce_ms"`
}

// SyncConfig controls the periodic reconcile. Zero disables it.
type SyncConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

// MoveConfig controls how long a move waits for the filesystem to settle.
type MoveConfig struct {
	SettleTimeoutMS int `mapstructure:"settle_timeout_ms"`
}

// Debounce returns the watcher quiet period.
func (c WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Interval returns the reconcile period, or 0 when disabled.
func (c SyncConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// SettleTimeout returns the move settle bound.
func (c MoveConfig) SettleTimeout() time.Duration {
	return time.Duration(c.SettleTimeoutMS) * time.Millisecond
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"root":           "root",
	"log-level":      "log.level",
	"log-file":       "log.file",
	"exclude":        "search.exclude",
	"max-results":    "search.max_results",
	"no-ignore":      "",
	"watch":          "watch.enabled",
	"debounce":       "watch.debounce_ms",
	"sync-interval":  "sync.interval_seconds",
	"settle-timeout": "move.settle_timeout_ms",
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("root", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("search.respect_ignore", true)
	v.SetDefault("search.max_results", 0)
	v.SetDefault("search.exclude", []string{})
	v.SetDefault("watch.enabled", true)
	v.SetDefault("watch.debounce_ms", 100)
	v.SetDefault("sync.interval_seconds", 300)
	v.SetDefault("move.settle_timeout_ms", 2000)
}

// DefaultPath returns ~/.config/notebrowser/config.yaml, or "" when the
// home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "notebrowser", "config.yaml")
}

// Load resolves the configuration. configFile overrides the default location;
// a missing default file is not an error, a missing explicit file is. flags
// may be nil; only flags the user actually set override other sources.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else if path := DefaultPath(); path != "" {
		v.SetConfigFile(path)
	}
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			missingDefault := configFile == "" && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist))
			if !missingDefault {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if flags != nil {
		if noIgnore, err := flags.GetBool("no-ignore"); err == nil && noIgnore {
			cfg.Search.RespectIgnore = false
		}
	}
	return &cfg, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if key == "" {
			continue
		}
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}
