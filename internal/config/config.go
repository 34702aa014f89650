package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dpogorelov/trackbot/internal/domain"
	"github.com/spf13/viper"
)

// Config is the full deployment configuration. Values come from
// config.yaml, overridden by TRACKBOT_* environment variables.
type Config struct {
	DBPath     string `mapstructure:"db_path"`
	ListenAddr string `mapstructure:"listen_addr"`
	LogLevel   string `mapstructure:"log_level"`

	Webhook WebhookConfig `mapstructure:"webhook"`
	Bridge  BridgeConfig  `mapstructure:"bridge"`
	Redmine RedmineConfig `mapstructure:"redmine"`
	Wizard  WizardConfig  `mapstructure:"wizard"`
}

// WebhookConfig guards the inbound update endpoint.
type WebhookConfig struct {
	Token string `mapstructure:"token"`
}

// BridgeConfig locates the chat bridge for outbound messages.
type BridgeConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RedmineConfig locates the issue tracker.
type RedmineConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	OpenIssuesLimit int           `mapstructure:"open_issues_limit"`
}

// WizardConfig tunes the dialogue itself.
type WizardConfig struct {
	GeneralIssues  []domain.IssueRef `mapstructure:"general_issues"`
	DateWindowDays int               `mapstructure:"date_window_days"`
	DefaultComment string            `mapstructure:"default_comment"`
}

// Load reads configuration from cfgFile, or from
// ~/.config/trackbot/config.yaml when cfgFile is empty. A missing config
// file is fine; environment variables and defaults still apply.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("finding home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".config", "trackbot"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("TRACKBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// The default config file is optional; an explicitly named one is not.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	stateDir := filepath.Join(home, ".config", "trackbot")

	v.SetDefault("db_path", filepath.Join(stateDir, "trackbot.db"))
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("bridge.timeout", 10*time.Second)
	v.SetDefault("redmine.timeout", 10*time.Second)
	v.SetDefault("redmine.open_issues_limit", 25)
	v.SetDefault("wizard.date_window_days", 7)
	v.SetDefault("wizard.default_comment", "")
}

func (c *Config) validate() error {
	if c.Redmine.BaseURL == "" {
		return fmt.Errorf("redmine.base_url is required")
	}
	return nil
}
