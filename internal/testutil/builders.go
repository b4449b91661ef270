package testutil

import (
	domainauth "github.com/nimbusbank/bankview/internal/domain/auth"
)

// CredentialBuilder provides a fluent interface for building Credential
// values for testing.
type CredentialBuilder struct {
	cred domainauth.Credential
}

// NewCredential creates a CredentialBuilder with sensible defaults: a plain
// authenticated user.
func NewCredential() *CredentialBuilder {
	return &CredentialBuilder{
		cred: domainauth.Credential{
			Email:       "user@example.com",
			Roles:       domainauth.NewRoleSet("user"),
			AccessToken: "test-token",
		},
	}
}

// WithEmail sets the email.
func (b *CredentialBuilder) WithEmail(email string) *CredentialBuilder {
	b.cred.Email = email
	return b
}

// WithRoles replaces the role set.
func (b *CredentialBuilder) WithRoles(roles ...string) *CredentialBuilder {
	b.cred.Roles = domainauth.NewRoleSet(roles...)
	return b
}

// WithToken sets the access token.
func (b *CredentialBuilder) WithToken(token string) *CredentialBuilder {
	b.cred.AccessToken = token
	return b
}

// Build returns the credential.
func (b *CredentialBuilder) Build() domainauth.Credential {
	return b.cred.Normalize()
}
