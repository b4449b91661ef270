package config

import (
	"strings"
	"time"
)

// UpstreamConfig contains the upstream banking API configuration.
type UpstreamConfig struct {
	// BaseURL is the root of the banking REST API.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:4000"`

	// Timeout bounds every upstream request.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to upstream configuration values.
func (u *UpstreamConfig) Sanitize() {
	u.BaseURL = strings.TrimRight(strings.TrimSpace(u.BaseURL), "/")
	if u.BaseURL == "" {
		u.BaseURL = "http://localhost:4000"
	}
	if u.Timeout <= 0 {
		u.Timeout = 10 * time.Second
	}
}
