package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
		Styler:   StylerConfig{URL: "http://localhost:9901/synthesize"},
	}
}

func TestNormalizeDefaultsToLongpoll(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run_mode = %q, expected %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
}

func TestNormalizePollingAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "Polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run_mode = %q, expected alias to map to %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
}

func TestNormalizeWebhookRequiresEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	err := Normalize(cfg)
	if err == nil || !strings.Contains(err.Error(), "webhook.url") {
		t.Fatalf("expected webhook.url error, got %v", err)
	}

	cfg.Webhook = WebhookConfig{URL: "https://bot.example.com", Listen: "0.0.0.0", Port: 8443}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
}

func TestNormalizeRequiresToken(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = ""
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestNormalizeRequiresStylerURL(t *testing.T) {
	cfg := validConfig()
	cfg.Styler.URL = "  "
	err := Normalize(cfg)
	if err == nil || !strings.Contains(err.Error(), "styler.url") {
		t.Fatalf("expected styler.url error, got %v", err)
	}
}

func TestNormalizeHistoryDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.History = HistoryConfig{Enabled: true, Host: "localhost", Name: "stylebot"}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.History.Port != "5432" {
		t.Fatalf("port = %q, expected default 5432", cfg.History.Port)
	}
	if cfg.History.SSLMode != "disable" {
		t.Fatalf("sslmode = %q, expected default disable", cfg.History.SSLMode)
	}
	if cfg.History.MaxConnections != 4 {
		t.Fatalf("max_connections = %d, expected default 4", cfg.History.MaxConnections)
	}
}

func TestNormalizeHistoryRequiresHost(t *testing.T) {
	cfg := validConfig()
	cfg.History = HistoryConfig{Enabled: true, Name: "stylebot"}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for missing history.host")
	}
}
