package config

import "time"

// AuthConfig groups session and authentication-related configuration.
type AuthConfig struct {
	// TokenCookieName is the cookie carrying the upstream bearer token.
	// The upstream API issues the token under this name; the gateway reads
	// it back on every new session to re-establish the login.
	TokenCookieName string `env:"AUTH_TOKEN_COOKIE" envDefault:"token"`

	// SessionCookieName is the cookie carrying the gateway session ID.
	SessionCookieName string `env:"AUTH_SESSION_COOKIE" envDefault:"sid"`

	// CookieSecure marks auth cookies as Secure (HTTPS only).
	CookieSecure bool `env:"AUTH_COOKIE_SECURE" envDefault:"false"`

	// CooldownSeconds is the login lockout applied after an upstream
	// rate-limit rejection.
	CooldownSeconds int `env:"AUTH_COOLDOWN_SECONDS" envDefault:"60"`

	// MinPasswordLen is the client-side minimum password length.
	MinPasswordLen int `env:"AUTH_MIN_PASSWORD_LEN" envDefault:"6"`

	// MirrorTTL is how long a session credential survives in the durable
	// mirror without being refreshed.
	MirrorTTL time.Duration `env:"AUTH_MIRROR_TTL" envDefault:"12h"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.TokenCookieName == "" {
		a.TokenCookieName = "token"
	}
	if a.SessionCookieName == "" {
		a.SessionCookieName = "sid"
	}
	if a.CooldownSeconds <= 0 {
		a.CooldownSeconds = 60
	}
	if a.MinPasswordLen <= 0 {
		a.MinPasswordLen = 6
	}
	if a.MirrorTTL <= 0 {
		a.MirrorTTL = 12 * time.Hour
	}
}
