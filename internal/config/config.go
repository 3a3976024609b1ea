package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for apb.
// Values are populated from .apb.yaml, APB_* env vars, and CLI flags.
type Config struct {
	SpecFile       string        `mapstructure:"spec_file"`
	Dockerfile     string        `mapstructure:"dockerfile"`
	SpecLabel      string        `mapstructure:"spec_label"`
	VersionLabel   string        `mapstructure:"version_label"`
	TemplateDir    string        `mapstructure:"template_dir"`
	TemplateIgnore []string      `mapstructure:"template_ignore"`
	LockFile       string        `mapstructure:"lock_file"`
	TelemetryPath  string        `mapstructure:"telemetry_path"`
	Verbose        bool          `mapstructure:"verbose"`
	LogFormat      string        `mapstructure:"log_format"`
	WatchDebounce  time.Duration `mapstructure:"watch_debounce"`
}

// ErrInvalidConfig indicates a configuration value apb cannot work with.
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("spec_file", "apb.yml")
	viper.SetDefault("dockerfile", "Dockerfile")
	viper.SetDefault("spec_label", "com.redhat.apb.spec")
	viper.SetDefault("version_label", "com.redhat.apb.version")
	viper.SetDefault("template_dir", "")
	viper.SetDefault("template_ignore", []string{"**/.git/**"})
	viper.SetDefault("lock_file", ".apb.lock")
	viper.SetDefault("telemetry_path", "")
	viper.SetDefault("verbose", false)
	viper.SetDefault("log_format", "console")
	viper.SetDefault("watch_debounce", 200*time.Millisecond)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values that would make embedding impossible.
func (c Config) Validate() error {
	switch {
	case c.SpecFile == "":
		return fmt.Errorf("%w: spec_file is empty", ErrInvalidConfig)
	case c.Dockerfile == "":
		return fmt.Errorf("%w: dockerfile is empty", ErrInvalidConfig)
	case c.SpecLabel == "":
		return fmt.Errorf("%w: spec_label is empty", ErrInvalidConfig)
	case c.LockFile == "":
		return fmt.Errorf("%w: lock_file is empty", ErrInvalidConfig)
	case c.WatchDebounce < 0:
		return fmt.Errorf("%w: watch_debounce is negative", ErrInvalidConfig)
	}
	return nil
}
