package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	want := []time.Duration{0, time.Second, 3 * time.Second}
	if len(cfg.Session.Delays) != len(want) {
		t.Fatalf("Session.Delays = %v, want %v", cfg.Session.Delays, want)
	}
	for i := range want {
		if cfg.Session.Delays[i] != want[i] {
			t.Errorf("Session.Delays[%d] = %v, want %v", i, cfg.Session.Delays[i], want[i])
		}
	}
	if cfg.Search.BaseURL != "https://www.google.com/search" {
		t.Errorf("Search.BaseURL = %q", cfg.Search.BaseURL)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("MAKEMODEL_PORT", "9090")
	t.Setenv("MAKEMODEL_SESSION_DELAYS", "0s, 2s, bogus")
	t.Setenv("MAKEMODEL_SESSION_TTL", "5m")
	t.Setenv("MAKEMODEL_API_KEYS", "a, ,b")
	t.Setenv("MAKEMODEL_RATE_RPS", "not-a-number")

	cfg := Load()

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Session.Delays) != 2 || cfg.Session.Delays[1] != 2*time.Second {
		t.Errorf("Session.Delays = %v, want [0s 2s]", cfg.Session.Delays)
	}
	if cfg.Session.TTL != 5*time.Minute {
		t.Errorf("Session.TTL = %v", cfg.Session.TTL)
	}
	if len(cfg.Auth.APIKeys) != 2 {
		t.Errorf("Auth.APIKeys = %v, want [a b]", cfg.Auth.APIKeys)
	}
	if cfg.RateLimit.RequestsPerSecond != 5.0 {
		t.Errorf("invalid number should fall back, got %v", cfg.RateLimit.RequestsPerSecond)
	}
}

func TestExclusiveOverrides(t *testing.T) {
	got := exclusiveOverrides([]string{
		"PATH=/usr/bin",
		"MAKEMODEL_EXCLUSIVE_BUNNINGS=Ozito, Gardeners Edge ,",
		"MAKEMODEL_EXCLUSIVE_=ignored",
		"MAKEMODEL_EXCLUSIVE_Mitre10=Jobmate",
	})

	if len(got) != 2 {
		t.Fatalf("overrides = %v, want 2 retailers", got)
	}
	if b := got["bunnings"]; len(b) != 2 || b[1] != "Gardeners Edge" {
		t.Errorf("bunnings = %v", b)
	}
	if m := got["mitre10"]; len(m) != 1 || m[0] != "Jobmate" {
		t.Errorf("mitre10 = %v", m)
	}
}
