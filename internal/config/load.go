package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"focus/internal/core/model"
)

// ErrUnknownKey indicates a settings key that does not exist.
var ErrUnknownKey = errors.New("unknown configuration key")

func newViperInstance(dir string) *viper.Viper {
	v := viper.New()
	setDefaults(v, dir)
	v.SetEnvPrefix("FOCUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", filepath.Join(dir, "state.yaml"))
	v.SetDefault("storage.redis_addr", "")
	v.SetDefault("storage.redis_key", "focus:state")
	v.SetDefault("storage.lock_timeout", "5s")
	v.SetDefault("storage.retry_attempts", 3)
	v.SetDefault("storage.retry_backoff", "100ms")

	v.SetDefault("timer.wake_interval", "1m")
	v.SetDefault("timer.wake_timeout", "30s")

	v.SetDefault("defaults.focus_time", model.DefaultFocusTime)
	v.SetDefault("defaults.free_time", model.DefaultFreeTime)
	v.SetDefault("defaults.rest_time", model.DefaultRestTime)

	v.SetDefault("notifications.desktop", true)
	v.SetDefault("notifications.bell", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(dir, "logs", "focus.log"))
}

func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}

// Load reads settings from the default location. A missing file is not an
// error; defaults and FOCUS_* environment variables still apply.
func Load(ctx context.Context) (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(ctx, path)
}

// LoadFile reads settings from path. Relative defaults such as the state
// file are placed next to it.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	v, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("path", path).
		Str("storage.driver", cfg.Storage.Driver).
		Dur("timer.wake_interval", cfg.Timer.WakeInterval).
		Msg("configuration loaded")

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Set writes a single key to the settings file at path, keeping the rest of
// the file intact. The result is validated before it is written.
func Set(ctx context.Context, path, key, value string) error {
	v, err := readFile(path)
	if err != nil {
		return err
	}
	key = strings.ToLower(key)
	if !isKnownKey(v, key) {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	file := viper.New()
	if fileExists(path) {
		file.SetConfigFile(path)
		if err := file.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
	}
	file.Set(key, value)

	v.Set(key, value)
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
	}
	if err := Validate(&cfg); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := file.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("key", key).Str("path", path).Msg("configuration key written")
	return nil
}

// Keys returns every known settings key in sorted order.
func Keys() []string {
	keys := newViperInstance("").AllKeys()
	sort.Strings(keys)
	return keys
}

func readFile(path string) (*viper.Viper, error) {
	v := newViperInstance(filepath.Dir(path))
	if !fileExists(path) {
		return v, nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return v, nil
}

func isKnownKey(v *viper.Viper, key string) bool {
	for _, known := range v.AllKeys() {
		if known == key {
			return true
		}
	}
	return false
}

func isConfigNotFoundError(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
