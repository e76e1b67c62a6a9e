package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all usage reconciler configuration.
type Config struct {
	Storage    StorageConfig    `mapstructure:"storage"`
	Vendors    VendorsConfig    `mapstructure:"vendors"`
	Validation ValidationConfig `mapstructure:"validation"`
	Alerts     AlertsConfig     `mapstructure:"alerts"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Server     ServerConfig     `mapstructure:"server"`
	Defaults   DefaultsConfig   `mapstructure:"defaults"`
}

// StorageConfig defines database settings.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// VendorsConfig defines where vendor spec overrides are loaded from.
type VendorsConfig struct {
	Dir string `mapstructure:"dir"`
}

// ValidationConfig defines consistency-check settings.
type ValidationConfig struct {
	TolerancePct float64 `mapstructure:"tolerance_pct"`
}

// AlertsConfig defines alerting integrations.
type AlertsConfig struct {
	Slack   SlackConfig   `mapstructure:"slack"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig defines reporting API settings.
type ServerConfig struct {
	Listen       string `mapstructure:"listen"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// DefaultsConfig defines default values.
type DefaultsConfig struct {
	Vendor string `mapstructure:"vendor"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".usagerec"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("storage.path", filepath.Join(home, ".usagerec", "usage.db"))
	v.SetDefault("vendors.dir", "vendors/")
	v.SetDefault("validation.tolerance_pct", 1.0)
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("defaults.vendor", "openai")
	v.SetDefault("alerts.slack.channel", "#ai-spend")

	// Environment variables
	v.SetEnvPrefix("USAGEREC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
