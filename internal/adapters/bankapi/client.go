package bankapi

// Package bankapi implements the ports.BankAPI client for the remote banking
// REST API. It owns request encoding, bearer injection, and classification of
// upstream failures into the internal/errors taxonomy.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nimbusbank/bankview/internal/domain/model"
	apperrors "github.com/nimbusbank/bankview/internal/errors"
	"github.com/nimbusbank/bankview/internal/ports"
)

// Config captures the upstream API surface we need.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
}

// Client talks to the remote banking API.
type Client struct {
	baseURL string
	client  *http.Client
}

// Compile-time conformance to the port.
var _ ports.BankAPI = (*Client)(nil)

// NewClient builds a banking API client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("bank API base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{baseURL: baseURL, client: hc}, nil
}

// call groups the parameters of a single upstream exchange.
type call struct {
	method string
	path   string
	token  string
	body   any
	out    any
}

// do performs one upstream exchange and classifies the outcome.
func (c *Client) do(ctx context.Context, p call) error {
	var body io.Reader
	if p.body != nil {
		b, err := json.Marshal(p.body)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, p.method, c.baseURL+p.path, body)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "build request")
	}
	if p.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// No response reached the gateway at all.
		return apperrors.Unreachable(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyStatus(resp)
	}

	if p.out != nil {
		if decErr := json.NewDecoder(resp.Body).Decode(p.out); decErr != nil {
			return apperrors.Wrap(decErr, apperrors.ErrCodeInternal, "decode response")
		}
	}
	return nil
}

// classifyStatus maps a non-2xx upstream response into the error taxonomy.
// Error bodies are expected, where present, to carry {message: string}; that
// message is surfaced verbatim.
func classifyStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return apperrors.Unauthorized("Unauthorized")
	case http.StatusTooManyRequests:
		// 429 carries no required body.
		return apperrors.RateLimited("too many attempts")
	case http.StatusNotFound:
		return apperrors.NotFound(upstreamMessage(resp, "not found"))
	default:
		return apperrors.ServerRejected(upstreamMessage(resp, "operation failed"))
	}
}

// upstreamMessage extracts the {message} from an error body, or falls back.
func upstreamMessage(resp *http.Response, fallback string) string {
	const maxErrorBody = 64 << 10
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return fallback
	}
	var payload struct {
		Message string `json:"message"`
	}
	if jsonErr := json.Unmarshal(data, &payload); jsonErr != nil || payload.Message == "" {
		return fallback
	}
	return payload.Message
}

func (c *Client) Login(ctx context.Context, in ports.LoginInput) (ports.LoginResult, error) {
	var out struct {
		AccessToken string   `json:"accessToken"`
		Roles       []string `json:"roles"`
	}
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"email": in.Email, "password": in.Password},
		out:    &out,
	})
	if err != nil {
		return ports.LoginResult{}, fmt.Errorf("login: %w", err)
	}
	return ports.LoginResult{AccessToken: out.AccessToken, Roles: out.Roles}, nil
}

func (c *Client) Signup(ctx context.Context, in ports.SignupInput) error {
	path := "/auth/signup"
	payload := map[string]string{"email": in.Email, "password": in.Password}
	if in.AdminKey != "" {
		path = "/auth/signup-admin"
		payload["key"] = in.AdminKey
	}
	if err := c.do(ctx, call{method: http.MethodPost, path: path, body: payload}); err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	return nil
}

func (c *Client) VerifyEmail(ctx context.Context, in ports.VerifyEmailInput) error {
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/verify-email",
		body:   map[string]string{"email": in.Email, "code": in.Code},
	})
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	return nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/forgot-password",
		body:   map[string]string{"email": email},
	})
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

func (c *Client) VerifyResetCode(ctx context.Context, email, code string) error {
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/verify-reset-code",
		body:   map[string]string{"email": email, "code": code},
	})
	if err != nil {
		return fmt.Errorf("verify reset code: %w", err)
	}
	return nil
}

func (c *Client) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) error {
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/reset-password",
		body:   map[string]string{"email": in.Email, "code": in.Code, "newPassword": in.NewPassword},
	})
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

func (c *Client) CreateAdmin(ctx context.Context, token string, in ports.SignupInput) error {
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/admin-signup",
		token:  token,
		body:   map[string]string{"email": in.Email, "password": in.Password},
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	if err := c.do(ctx, call{method: http.MethodPost, path: "/auth/logout", token: token}); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (c *Client) Profile(ctx context.Context, token string) (model.Profile, error) {
	var out model.Profile
	err := c.do(ctx, call{method: http.MethodGet, path: "/users/profile", token: token, out: &out})
	if err != nil {
		return model.Profile{}, fmt.Errorf("profile: %w", err)
	}
	return out, nil
}

func (c *Client) ListUsers(ctx context.Context, token string) ([]model.User, error) {
	var out struct {
		Users []model.User `json:"users"`
	}
	err := c.do(ctx, call{method: http.MethodGet, path: "/users/all", token: token, out: &out})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out.Users, nil
}

func (c *Client) ListTransactions(ctx context.Context, token string) ([]model.Transaction, error) {
	var out struct {
		Transactions []model.Transaction `json:"transactions"`
	}
	err := c.do(ctx, call{method: http.MethodGet, path: "/transactions", token: token, out: &out})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out.Transactions, nil
}

func (c *Client) UserTransactions(ctx context.Context, token, userID string) (model.TransactionHistory, error) {
	var out model.TransactionHistory
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/transactions/user/" + url.PathEscape(userID),
		token:  token,
		out:    &out,
	})
	if err != nil {
		return model.TransactionHistory{}, fmt.Errorf("user transactions: %w", err)
	}
	return out, nil
}

func (c *Client) CreateTransaction(ctx context.Context, token string, req model.NewTransactionRequest) error {
	err := c.do(ctx, call{method: http.MethodPost, path: "/transactions/new", token: token, body: req})
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (c *Client) DeleteUser(ctx context.Context, token, userID string) error {
	err := c.do(ctx, call{
		method: http.MethodDelete,
		path:   "/users/" + url.PathEscape(userID),
		token:  token,
	})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
