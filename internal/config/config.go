// Package config loads application settings from the settings file and
// FOCUS_* environment variables. Timer durations are not settings: they
// live in the state store and the values here only seed it.
package config

import (
	"errors"
	"fmt"
	"time"

	"focus/internal/core/model"
	"focus/internal/storage"
)

// ErrInvalidConfig indicates settings that cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full settings tree.
type Config struct {
	Storage       StorageConfig       `yaml:"storage" mapstructure:"storage"`
	Timer         TimerConfig         `yaml:"timer" mapstructure:"timer"`
	Defaults      DefaultsConfig      `yaml:"defaults" mapstructure:"defaults"`
	Notifications NotificationsConfig `yaml:"notifications" mapstructure:"notifications"`
	Log           LogConfig           `yaml:"log" mapstructure:"log"`
}

// StorageConfig selects the state store backend.
type StorageConfig struct {
	Driver        string        `yaml:"driver" mapstructure:"driver"`
	Path          string        `yaml:"path" mapstructure:"path"`
	RedisAddr     string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisKey      string        `yaml:"redis_key" mapstructure:"redis_key"`
	LockTimeout   time.Duration `yaml:"lock_timeout" mapstructure:"lock_timeout"`
	RetryAttempts int           `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoff  time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
}

// TimerConfig tunes the countdown engine.
type TimerConfig struct {
	WakeInterval time.Duration `yaml:"wake_interval" mapstructure:"wake_interval"`
	WakeTimeout  time.Duration `yaml:"wake_timeout" mapstructure:"wake_timeout"`
}

// DefaultsConfig seeds the timer configuration on first run and after a reset.
type DefaultsConfig struct {
	FocusTime int `yaml:"focus_time" mapstructure:"focus_time"`
	FreeTime  int `yaml:"free_time" mapstructure:"free_time"`
	RestTime  int `yaml:"rest_time" mapstructure:"rest_time"`
}

// NotificationsConfig enables notification surfaces.
type NotificationsConfig struct {
	Desktop bool `yaml:"desktop" mapstructure:"desktop"`
	Bell    bool `yaml:"bell" mapstructure:"bell"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file" mapstructure:"file"`
}

// Model returns the timer configuration the defaults describe.
func (defaults DefaultsConfig) Model() model.Config {
	return model.Config{
		FocusTime: defaults.FocusTime,
		FreeTime:  defaults.FreeTime,
		RestTime:  defaults.RestTime,
	}
}

// StorageOptions translates the storage settings for storage.Open.
func (cfg *Config) StorageOptions() storage.Options {
	return storage.Options{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		RedisAddr:   cfg.Storage.RedisAddr,
		RedisKey:    cfg.Storage.RedisKey,
		LockTimeout: cfg.Storage.LockTimeout,
		RetryOptions: storage.RetryOptions{
			Attempts: cfg.Storage.RetryAttempts,
			Backoff:  cfg.Storage.RetryBackoff,
		},
	}
}

// Validate checks the settings for values that cannot work.
func Validate(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "file", "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("%w: storage.driver %q is not one of file, sqlite, redis, memory", ErrInvalidConfig, cfg.Storage.Driver)
	}
	if (cfg.Storage.Driver == "file" || cfg.Storage.Driver == "sqlite") && cfg.Storage.Path == "" {
		return fmt.Errorf("%w: storage.path is required for the %s driver", ErrInvalidConfig, cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == "redis" && cfg.Storage.RedisAddr == "" {
		return fmt.Errorf("%w: storage.redis_addr is required for the redis driver", ErrInvalidConfig)
	}
	if cfg.Storage.RetryAttempts < 1 {
		return fmt.Errorf("%w: storage.retry_attempts must be at least 1", ErrInvalidConfig)
	}
	if cfg.Timer.WakeInterval <= 0 {
		return fmt.Errorf("%w: timer.wake_interval must be positive", ErrInvalidConfig)
	}
	if err := cfg.Defaults.Model().Validate(); err != nil {
		return fmt.Errorf("%w: defaults: %w", ErrInvalidConfig, err)
	}
	return nil
}
