package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// StorageConfig holds persistence settings.
type StorageConfig struct {
	// Path is the SQLite database file backing the key-value store
	// and the programming table.
	Path string `mapstructure:"path" yaml:"path"`
}

// SchedulerConfig holds settings for the scheduled-alert engine.
type SchedulerConfig struct {
	// ThrottleSec is the minimum gap between classification ticks.
	ThrottleSec int `mapstructure:"throttle_sec" yaml:"throttle_sec"`

	// ImminentWindowMin is the lookahead window for "about to start"
	// alerts, in minutes.
	ImminentWindowMin int `mapstructure:"imminent_window_min" yaml:"imminent_window_min"`

	// MaxEmissionsPerTick caps how many per-item notifications a
	// single tick may emit.
	MaxEmissionsPerTick int `mapstructure:"max_emissions_per_tick" yaml:"max_emissions_per_tick"`

	// Timezone is the single reference zone all programming times are
	// interpreted in.
	Timezone string `mapstructure:"timezone" yaml:"timezone"`

	// PollIntervalSec is how often the host re-triggers a (throttled)
	// tick.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	Display   DisplayConfig   `mapstructure:"display" yaml:"display"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// DefaultConfigPath returns the default path for the configuration
// file, located at ~/.config/opsdash/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "opsdash", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Storage: StorageConfig{
			Path: filepath.Join(defaultDataDir(), "opsdash.db"),
		},
		Scheduler: SchedulerConfig{
			ThrottleSec:         30,
			ImminentWindowMin:   5,
			MaxEmissionsPerTick: 5,
			Timezone:            "America/Guayaquil",
			PollIntervalSec:     60,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultDataDir returns the directory holding the local database.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "opsdash")
}

// LoadConfig reads configuration from the given YAML file path using
// Viper. If the file does not exist, it returns a default
// configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("storage.path", filepath.Join(defaultDataDir(), "opsdash.db"))
	v.SetDefault("scheduler.throttle_sec", 30)
	v.SetDefault("scheduler.imminent_window_min", 5)
	v.SetDefault("scheduler.max_emissions_per_tick", 5)
	v.SetDefault("scheduler.timezone", "America/Guayaquil")
	v.SetDefault("scheduler.poll_interval_sec", 60)
	v.SetDefault("display.theme", "default")
	v.SetDefault("logging.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

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

	v.Set("storage", cfg.Storage)
	v.Set("scheduler", cfg.Scheduler)
	v.Set("display", cfg.Display)
	v.Set("logging", cfg.Logging)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
