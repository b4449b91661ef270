package httpx

import (
	"context"

	domainauth "github.com/nimbusbank/bankview/internal/domain/auth"
)

// credentialKey is an unexported context key type to avoid collisions across
// packages. Centralized in this file so all handlers/middleware use the same
// key.
type credentialKey struct{}

type sessionIDKey struct{}

// SetCredentialInContext returns a child context carrying the resident
// credential for this request.
func SetCredentialInContext(ctx context.Context, cred domainauth.Credential) context.Context {
	return context.WithValue(ctx, credentialKey{}, cred.Normalize())
}

// GetCredentialFromContext returns the request's credential and a boolean
// indicating presence. Absence means the session middleware did not run.
func GetCredentialFromContext(ctx context.Context) (domainauth.Credential, bool) {
	if cred, ok := ctx.Value(credentialKey{}).(domainauth.Credential); ok {
		return cred, true
	}
	return domainauth.Anonymous(), false
}

// CredentialFromContext retrieves the credential, falling back to the
// anonymous credential when none is present.
func CredentialFromContext(ctx context.Context) domainauth.Credential {
	cred, _ := GetCredentialFromContext(ctx)
	return cred
}

// SetSessionIDInContext returns a child context carrying the gateway
// session ID.
func SetSessionIDInContext(ctx context.Context, sid string) context.Context {
	if sid == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey{}, sid)
}

// SessionIDFromContext returns the gateway session ID, or "" when the
// session middleware did not run.
func SessionIDFromContext(ctx context.Context) string {
	if sid, ok := ctx.Value(sessionIDKey{}).(string); ok {
		return sid
	}
	return ""
}

// IsGuest reports whether the current request context is unauthenticated.
func IsGuest(ctx context.Context) bool {
	cred, ok := GetCredentialFromContext(ctx)
	return !ok || !cred.IsAuthenticated()
}
