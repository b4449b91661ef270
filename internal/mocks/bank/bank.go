package bank

// Package bank contains simple hand-written test doubles for the upstream
// banking API and mirror store ports. These are lightweight and suitable
// for unit tests without codegen.

import (
	"context"
	"errors"

	domainauth "github.com/nimbusbank/bankview/internal/domain/auth"
	"github.com/nimbusbank/bankview/internal/domain/model"
	"github.com/nimbusbank/bankview/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.BankAPI     = (*MockBankAPI)(nil)
	_ ports.MirrorStore = (*MemoryMirrorStore)(nil)
)

// MockBankAPI simulates the upstream banking API for tests. Each method can
// be overridden with a Func field; otherwise deterministic defaults apply.
type MockBankAPI struct {
	LoginFunc             func(ctx context.Context, in ports.LoginInput) (ports.LoginResult, error)
	SignupFunc            func(ctx context.Context, in ports.SignupInput) error
	VerifyEmailFunc       func(ctx context.Context, in ports.VerifyEmailInput) error
	ForgotPasswordFunc    func(ctx context.Context, email string) error
	VerifyResetCodeFunc   func(ctx context.Context, email, code string) error
	ResetPasswordFunc     func(ctx context.Context, in ports.ResetPasswordInput) error
	CreateAdminFunc       func(ctx context.Context, token string, in ports.SignupInput) error
	LogoutFunc            func(ctx context.Context, token string) error
	ProfileFunc           func(ctx context.Context, token string) (model.Profile, error)
	ListUsersFunc         func(ctx context.Context, token string) ([]model.User, error)
	ListTransactionsFunc  func(ctx context.Context, token string) ([]model.Transaction, error)
	UserTransactionsFunc  func(ctx context.Context, token, userID string) (model.TransactionHistory, error)
	CreateTransactionFunc func(ctx context.Context, token string, req model.NewTransactionRequest) error
	DeleteUserFunc        func(ctx context.Context, token, userID string) error

	// Deterministic values for predictable testing.
	AccessToken    string
	Roles          []string
	DefaultProfile model.Profile
	Users          []model.User
	Transactions   []model.Transaction
	Histories      map[string]model.TransactionHistory

	// Call tracking.
	LoginCalls   int
	ProfileCalls int
	LogoutTokens []string
}

// NewMockBankAPI creates a MockBankAPI with sensible defaults.
func NewMockBankAPI() *MockBankAPI {
	return &MockBankAPI{
		AccessToken: "mock-token-1",
		Roles:       []string{"user"},
		DefaultProfile: model.Profile{
			Email:   "mock.user@example.com",
			Roles:   []string{"user"},
			Balance: 100,
		},
	}
}

func (m *MockBankAPI) Login(ctx context.Context, in ports.LoginInput) (ports.LoginResult, error) {
	m.LoginCalls++
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, in)
	}
	return ports.LoginResult{AccessToken: m.AccessToken, Roles: m.Roles}, nil
}

func (m *MockBankAPI) Signup(ctx context.Context, in ports.SignupInput) error {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, in)
	}
	return nil
}

func (m *MockBankAPI) VerifyEmail(ctx context.Context, in ports.VerifyEmailInput) error {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, in)
	}
	return nil
}

func (m *MockBankAPI) ForgotPassword(ctx context.Context, email string) error {
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email)
	}
	return nil
}

func (m *MockBankAPI) VerifyResetCode(ctx context.Context, email, code string) error {
	if m.VerifyResetCodeFunc != nil {
		return m.VerifyResetCodeFunc(ctx, email, code)
	}
	return nil
}

func (m *MockBankAPI) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, in)
	}
	return nil
}

func (m *MockBankAPI) CreateAdmin(ctx context.Context, token string, in ports.SignupInput) error {
	if m.CreateAdminFunc != nil {
		return m.CreateAdminFunc(ctx, token, in)
	}
	return nil
}

func (m *MockBankAPI) Logout(ctx context.Context, token string) error {
	m.LogoutTokens = append(m.LogoutTokens, token)
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, token)
	}
	return nil
}

func (m *MockBankAPI) Profile(ctx context.Context, token string) (model.Profile, error) {
	m.ProfileCalls++
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, token)
	}
	return m.DefaultProfile, nil
}

func (m *MockBankAPI) ListUsers(ctx context.Context, token string) ([]model.User, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx, token)
	}
	return m.Users, nil
}

func (m *MockBankAPI) ListTransactions(ctx context.Context, token string) ([]model.Transaction, error) {
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx, token)
	}
	return m.Transactions, nil
}

func (m *MockBankAPI) UserTransactions(ctx context.Context, token, userID string) (model.TransactionHistory, error) {
	if m.UserTransactionsFunc != nil {
		return m.UserTransactionsFunc(ctx, token, userID)
	}
	if h, ok := m.Histories[userID]; ok {
		return h, nil
	}
	return model.TransactionHistory{}, ErrNotFound
}

func (m *MockBankAPI) CreateTransaction(ctx context.Context, token string, req model.NewTransactionRequest) error {
	if m.CreateTransactionFunc != nil {
		return m.CreateTransactionFunc(ctx, token, req)
	}
	return nil
}

func (m *MockBankAPI) DeleteUser(ctx context.Context, token, userID string) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, token, userID)
	}
	return nil
}

// MemoryMirrorStore is an in-memory mirror store for unit tests.
type MemoryMirrorStore struct {
	mirrors map[string]domainauth.Mirror
}

// NewMemoryMirrorStore creates a new in-memory mirror store.
func NewMemoryMirrorStore() *MemoryMirrorStore {
	return &MemoryMirrorStore{
		mirrors: make(map[string]domainauth.Mirror),
	}
}

func (m *MemoryMirrorStore) Save(_ context.Context, mirror domainauth.Mirror) error {
	if mirror.SID == "" {
		return errors.New("mirror SID cannot be empty")
	}
	m.mirrors[mirror.SID] = mirror
	return nil
}

func (m *MemoryMirrorStore) Get(_ context.Context, sid string) (domainauth.Mirror, error) {
	if sid == "" {
		return domainauth.Mirror{}, ErrNotFound
	}
	mirror, ok := m.mirrors[sid]
	if !ok {
		return domainauth.Mirror{}, ErrNotFound
	}
	return mirror, nil
}

func (m *MemoryMirrorStore) Delete(_ context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	delete(m.mirrors, sid)
	return nil
}

// ErrNotFound is returned by mocks when an entity is not present.
type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var ErrNotFound error = notFoundError{}
