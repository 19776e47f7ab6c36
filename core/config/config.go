package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook listener settings for push mode.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
	// HealthPort exposes the liveness endpoint in webhook mode; 0 disables it.
	HealthPort int `yaml:"health_port" envconfig:"WEBHOOK_HEALTH_PORT"`
}

// StylerConfig describes the external image-synthesis collaborator.
type StylerConfig struct {
	URL string `yaml:"url" envconfig:"STYLER_URL"`
	// TimeoutSeconds bounds a single synthesis request; 0 -> no timeout.
	TimeoutSeconds int `yaml:"timeout_seconds" envconfig:"STYLER_TIMEOUT_SECONDS"`
}

// HistoryConfig controls the optional synthesis job history database.
type HistoryConfig struct {
	Enabled        bool   `yaml:"enabled" envconfig:"HISTORY_ENABLED"`
	Host           string `yaml:"host" envconfig:"HISTORY_DB_HOST"`
	Port           string `yaml:"port" envconfig:"HISTORY_DB_PORT"`
	User           string `yaml:"user" envconfig:"HISTORY_DB_USER"`
	Password       string `yaml:"password" envconfig:"HISTORY_DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"HISTORY_DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"HISTORY_DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"HISTORY_DB_MAX_CONNECTIONS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// Config aggregates all bot configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Styler   StylerConfig   `yaml:"styler"`
	History  HistoryConfig  `yaml:"history"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if strings.TrimSpace(cfg.Styler.URL) == "" {
		return fmt.Errorf("styler.url is required")
	}
	if cfg.Styler.TimeoutSeconds < 0 {
		return fmt.Errorf("styler.timeout_seconds must be >= 0")
	}

	if cfg.History.Enabled {
		if strings.TrimSpace(cfg.History.Host) == "" {
			return fmt.Errorf("history.host is required when history.enabled is true")
		}
		if strings.TrimSpace(cfg.History.Name) == "" {
			return fmt.Errorf("history.name is required when history.enabled is true")
		}
		if strings.TrimSpace(cfg.History.Port) == "" {
			cfg.History.Port = "5432"
		}
		if strings.TrimSpace(cfg.History.SSLMode) == "" {
			cfg.History.SSLMode = "disable"
		}
		if cfg.History.MaxConnections <= 0 {
			cfg.History.MaxConnections = 4
		}
	}

	return nil
}
