package config

import (
	"strings"
	"testing"
)

func setRequired(t *testing.T) {
	t.Setenv("PFTG_BASE_URL", "https://connector.example.com")
	t.Setenv("PFTG_API_URL", "https://api.example.com")
	t.Setenv("PFTG_APPS_API_URL", "https://apps.example.com")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":3004" {
		t.Errorf("ListenAddr = %q, want :3004", cfg.ListenAddr)
	}
	if cfg.TelegramFileURL != "https://api.telegram.org/file/bot" {
		t.Errorf("TelegramFileURL = %q", cfg.TelegramFileURL)
	}
	if cfg.RedisURL == "" {
		t.Error("RedisURL should default")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	setRequired(t)
	t.Setenv("PFTG_LISTEN_ADDR", ":9999")
	t.Setenv("PFTG_BRAND_NAME", "Acme")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q, want :9999", cfg.ListenAddr)
	}
	if cfg.BrandName != "Acme" {
		t.Errorf("BrandName = %q, want Acme", cfg.BrandName)
	}
}

func TestValidate_MissingMandatory(t *testing.T) {
	cfg := &Config{RedisURL: "redis://localhost:6379"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected a validation error")
	}
	for _, want := range []string{"PFTG_BASE_URL", "PFTG_API_URL", "PFTG_APPS_API_URL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got %v", want, err)
		}
	}
}
