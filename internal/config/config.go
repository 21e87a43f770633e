package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration. Values come from environment
// variables (prefixed HOTELSTOCK_), an optional config.yaml in the working
// directory, and a .env file if present; later sources never override
// explicit environment variables.
type Config struct {
	DBPath   string `mapstructure:"db_path"`
	Addr     string `mapstructure:"addr"`
	Env      string `mapstructure:"env"` // development or production
	LogLevel string `mapstructure:"log_level"`

	// JWTSecret overrides the secret persisted in the settings table.
	// Normally left empty.
	JWTSecret string `mapstructure:"jwt_secret"`

	// ExpiryAlertDays is the default expiry alert window; the persisted
	// alert settings can override it at runtime.
	ExpiryAlertDays int `mapstructure:"expiry_alert_days"`

	// AlertCheckInterval is how often the background watcher polls.
	AlertCheckInterval time.Duration `mapstructure:"alert_check_interval"`

	// AlertSoundEnabled is the default for the persisted sound flag.
	// Sound playback itself is up to the client consuming notifications.
	AlertSoundEnabled bool `mapstructure:"alert_sound_enabled"`
}

// Load reads the configuration.
func Load() (*Config, error) {
	// Best effort; absence of a .env file is normal.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("db_path", "hotel_inventory.db")
	v.SetDefault("addr", ":8080")
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("expiry_alert_days", 5)
	v.SetDefault("alert_check_interval", 5*time.Minute)
	v.SetDefault("alert_sound_enabled", true)

	v.SetEnvPrefix("hotelstock")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if cfg.ExpiryAlertDays < 0 {
		return nil, fmt.Errorf("expiry_alert_days must be non-negative")
	}
	if cfg.AlertCheckInterval <= 0 {
		return nil, fmt.Errorf("alert_check_interval must be positive")
	}

	return cfg, nil
}
