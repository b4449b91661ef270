package ports

// Package ports defines interfaces (hexagonal ports) for the session layer.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/nimbusbank/bankview/internal/domain/auth"
	"github.com/nimbusbank/bankview/internal/domain/model"
)

// LoginInput carries the credentials for a login exchange.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is the upstream login success response.
type LoginResult struct {
	AccessToken string
	Roles       []string
}

// SignupInput carries the fields for account creation. AdminKey is set only
// for the public admin signup variant.
type SignupInput struct {
	Email    string
	Password string
	AdminKey string
}

// VerifyEmailInput confirms a signup verification code.
type VerifyEmailInput struct {
	Email string
	Code  string
}

// ResetPasswordInput sets a new password given a verified reset code.
type ResetPasswordInput struct {
	Email       string
	Code        string
	NewPassword string
}

// BankAPI is the remote banking REST API surface the gateway consumes.
// Implementations classify failures into the internal/errors taxonomy:
// Unreachable, Unauthorized, RateLimited, ServerRejected.
type BankAPI interface {
	Login(ctx context.Context, in LoginInput) (LoginResult, error)
	Signup(ctx context.Context, in SignupInput) error
	VerifyEmail(ctx context.Context, in VerifyEmailInput) error
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetCode(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, in ResetPasswordInput) error
	// CreateAdmin creates an admin account on behalf of an existing admin;
	// token is the acting admin's bearer token.
	CreateAdmin(ctx context.Context, token string, in SignupInput) error
	Logout(ctx context.Context, token string) error

	Profile(ctx context.Context, token string) (model.Profile, error)
	ListUsers(ctx context.Context, token string) ([]model.User, error)
	ListTransactions(ctx context.Context, token string) ([]model.Transaction, error)
	UserTransactions(ctx context.Context, token, userID string) (model.TransactionHistory, error)
	CreateTransaction(ctx context.Context, token string, req model.NewTransactionRequest) error
	DeleteUser(ctx context.Context, token, userID string) error
}

// MirrorStore persists the durable mirror of session credentials.
type MirrorStore interface {
	Save(ctx context.Context, m domainauth.Mirror) error
	Get(ctx context.Context, sid string) (domainauth.Mirror, error)
	Delete(ctx context.Context, sid string) error
}
