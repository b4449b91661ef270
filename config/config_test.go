package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("expected default HTTP addr :8080, got %q", cfg.HTTP.Addr)
	}
	if cfg.Auth.TokenCookieName != "token" {
		t.Errorf("expected default token cookie name %q, got %q", "token", cfg.Auth.TokenCookieName)
	}
	if cfg.Auth.SessionCookieName != "sid" {
		t.Errorf("expected default session cookie name %q, got %q", "sid", cfg.Auth.SessionCookieName)
	}
	if cfg.Auth.CooldownSeconds != 60 {
		t.Errorf("expected default cooldown of 60 seconds, got %d", cfg.Auth.CooldownSeconds)
	}
	if cfg.Auth.MinPasswordLen != 6 {
		t.Errorf("expected default minimum password length 6, got %d", cfg.Auth.MinPasswordLen)
	}
	if cfg.Upstream.BaseURL != "http://localhost:4000" {
		t.Errorf("unexpected default upstream base URL: %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout != 10*time.Second {
		t.Errorf("unexpected default upstream timeout: %v", cfg.Upstream.Timeout)
	}
	if cfg.Redis.URI != "localhost:6379" {
		t.Errorf("unexpected default redis URI: %q", cfg.Redis.URI)
	}
}

func TestAppConfig_ParseAuthEnv(t *testing.T) {
	t.Setenv("AUTH_TOKEN_COOKIE", "bank_token")
	t.Setenv("AUTH_SESSION_COOKIE", "bank_sid")
	t.Setenv("AUTH_COOKIE_SECURE", "true")
	t.Setenv("AUTH_COOLDOWN_SECONDS", "30")
	t.Setenv("AUTH_MIN_PASSWORD_LEN", "8")
	t.Setenv("AUTH_MIRROR_TTL", "1h")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	expected := AuthConfig{
		TokenCookieName:   "bank_token",
		SessionCookieName: "bank_sid",
		CookieSecure:      true,
		CooldownSeconds:   30,
		MinPasswordLen:    8,
		MirrorTTL:         time.Hour,
	}

	if !reflect.DeepEqual(cfg.Auth, expected) {
		t.Fatalf("unexpected auth configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Auth)
	}
}

func TestAppConfig_ParseUpstreamEnv(t *testing.T) {
	t.Setenv("BANK_API_BASE_URL", "https://api.example.com/bank/")
	t.Setenv("BANK_API_TIMEOUT", "3s")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Upstream.BaseURL != "https://api.example.com/bank" {
		t.Errorf("expected trailing slash to be trimmed, got %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout != 3*time.Second {
		t.Errorf("unexpected upstream timeout: %v", cfg.Upstream.Timeout)
	}
}

func TestAuthConfig_SanitizeGuardrails(t *testing.T) {
	a := AuthConfig{
		TokenCookieName:   "",
		SessionCookieName: "",
		CooldownSeconds:   -5,
		MinPasswordLen:    0,
		MirrorTTL:         -time.Hour,
	}
	a.Sanitize()

	if a.TokenCookieName != "token" {
		t.Errorf("expected token cookie fallback, got %q", a.TokenCookieName)
	}
	if a.SessionCookieName != "sid" {
		t.Errorf("expected session cookie fallback, got %q", a.SessionCookieName)
	}
	if a.CooldownSeconds != 60 {
		t.Errorf("expected cooldown fallback of 60, got %d", a.CooldownSeconds)
	}
	if a.MinPasswordLen != 6 {
		t.Errorf("expected min password length fallback of 6, got %d", a.MinPasswordLen)
	}
	if a.MirrorTTL != 12*time.Hour {
		t.Errorf("expected mirror TTL fallback of 12h, got %v", a.MirrorTTL)
	}
}

func TestAppConfig_DetectDevMode(t *testing.T) {
	tests := []struct {
		name     string
		dev      string
		nodeEnv  string
		expected bool
	}{
		{name: "no env", expected: false},
		{name: "DEV true", dev: "true", expected: true},
		{name: "NODE_ENV development", nodeEnv: "development", expected: true},
		{name: "NODE_ENV dev", nodeEnv: "dev", expected: true},
		{name: "NODE_ENV production", nodeEnv: "production", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.dev != "" {
				t.Setenv("DEV", tt.dev)
			}
			if tt.nodeEnv != "" {
				t.Setenv("NODE_ENV", tt.nodeEnv)
			}

			var cfg AppConfig
			if err := env.Parse(&cfg); err != nil {
				t.Fatalf("parse config: %v", err)
			}
			cfg.Sanitize()

			if cfg.IsDev != tt.expected {
				t.Errorf("expected IsDev=%v, got %v", tt.expected, cfg.IsDev)
			}
		})
	}
}
