package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/nimbusbank/bankview/internal/domain/auth"
	"github.com/nimbusbank/bankview/internal/domain/model"
	apperrors "github.com/nimbusbank/bankview/internal/errors"
	mockbank "github.com/nimbusbank/bankview/internal/mocks/bank"
	"github.com/nimbusbank/bankview/internal/ports"
	"github.com/nimbusbank/bankview/internal/service"
)

// testApp wires the full router against the in-memory bank fake so tests
// exercise the same path a browser request takes.
type testApp struct {
	handler  http.Handler
	api      *mockbank.MockBankAPI
	flow     *service.AuthFlowService
	sessions *service.SessionService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := mockbank.NewMockBankAPI()
	sessions := service.NewSessionService(service.SessionServiceOptions{
		Bank:   api,
		Mirror: mockbank.NewMemoryMirrorStore(),
		Logger: logger,
	})
	flow := service.NewAuthFlowService(service.AuthFlowOptions{
		Bank:     api,
		Sessions: sessions,
		Logger:   logger,
		// Keep the real ticker out of the way; tests drive time manually.
		TickInterval: time.Hour,
	})
	handler := NewRouter(RouterServices{
		Auth:              flow,
		Sessions:          sessions,
		Bank:              api,
		TokenCookieName:   "token",
		SessionCookieName: "sid",
		Logger:            logger,
	})
	return &testApp{handler: handler, api: api, flow: flow, sessions: sessions}
}

func (a *testApp) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func (a *testApp) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func sidCookie(value string) *http.Cookie {
	return &http.Cookie{Name: "sid", Value: value}
}

func TestRouter_LoginSuccessSetsTokenAndRedirects(t *testing.T) {
	app := newTestApp(t)

	w := app.postForm("/login", url.Values{
		"email":    {"user@example.com"},
		"password": {"hunter22"},
	}, sidCookie("sid-1"))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, domainauth.RouteUserInfo, w.Header().Get("Location"))

	token := findCookie(w.Result(), "token")
	require.NotNil(t, token, "login must set the bearer token cookie")
	assert.Equal(t, "mock-token-1", token.Value)
	assert.True(t, token.HttpOnly)

	// The credential is resident under the same session id.
	cred := app.sessions.Get(context.Background(), "sid-1")
	assert.True(t, cred.IsAuthenticated())
	assert.Equal(t, "user@example.com", cred.Email)
}

func TestRouter_LoginValidationRendersFieldError(t *testing.T) {
	app := newTestApp(t)

	w := app.postForm("/login", url.Values{
		"email":    {"not-an-email"},
		"password": {"hunter22"},
	}, sidCookie("sid-1"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, app.api.LoginCalls, "invalid input must not reach the upstream")
	assert.Contains(t, w.Body.String(), "Invalid email format")
}

func TestRouter_LoginRateLimitedShowsCountdown(t *testing.T) {
	app := newTestApp(t)
	app.api.LoginFunc = func(ctx context.Context, in ports.LoginInput) (ports.LoginResult, error) {
		return ports.LoginResult{}, apperrors.RateLimited("Too many requests, please try again later.")
	}

	form := url.Values{"email": {"user@example.com"}, "password": {"hunter22"}}
	w := app.postForm("/login", form, sidCookie("sid-1"))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, ContainsAll(body, []string{"disabled", "Try again in 60 seconds"}), body)
	// The whole form is inert: both inputs and the submit button.
	assert.Equal(t, 3, strings.Count(body, " disabled"), body)

	// While the countdown runs, submissions are rejected locally.
	upstream := app.api.LoginCalls
	w = app.postForm("/login", form, sidCookie("sid-1"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, upstream, app.api.LoginCalls)

	// The countdown is per session; another browser is unaffected.
	app.api.LoginFunc = nil
	w = app.postForm("/login", form, sidCookie("sid-2"))
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestRouter_LoginCooldownExpiryReenablesForm(t *testing.T) {
	app := newTestApp(t)
	app.api.LoginFunc = func(ctx context.Context, in ports.LoginInput) (ports.LoginResult, error) {
		return ports.LoginResult{}, apperrors.RateLimited("Too many requests, please try again later.")
	}

	form := url.Values{"email": {"user@example.com"}, "password": {"hunter22"}}
	app.postForm("/login", form, sidCookie("sid-1"))

	for i := 0; i < 60; i++ {
		app.flow.TickCooldown("sid-1")
	}

	w := app.get("/login", sidCookie("sid-1"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "disabled")

	app.api.LoginFunc = nil
	w = app.postForm("/login", form, sidCookie("sid-1"))
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestRouter_TokenCookieBootstrapsSession(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/user/info", sidCookie("sid-1"), &http.Cookie{Name: "token", Value: "mock-token-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mock.user@example.com")
	// One call resolves the cookie, one renders the page.
	assert.Equal(t, 2, app.api.ProfileCalls)
}

func TestRouter_RejectedTokenCookieFallsBackToLogin(t *testing.T) {
	app := newTestApp(t)
	app.api.ProfileFunc = func(ctx context.Context, token string) (model.Profile, error) {
		return model.Profile{}, apperrors.Unauthorized("Unauthorized")
	}

	w := app.get("/user/info", sidCookie("sid-1"), &http.Cookie{Name: "token", Value: "stale"})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, domainauth.RouteLogin, w.Header().Get("Location"))

	token := findCookie(w.Result(), "token")
	require.NotNil(t, token, "rejected token cookie must be expired")
	assert.Negative(t, token.MaxAge)
}

func TestRouter_NewTransactionTrimsPaddedInput(t *testing.T) {
	app := newTestApp(t)
	app.postForm("/login", url.Values{
		"email":    {"user@example.com"},
		"password": {"hunter22"},
	}, sidCookie("sid-1"))

	var got model.NewTransactionRequest
	calls := 0
	app.api.CreateTransactionFunc = func(_ context.Context, _ string, req model.NewTransactionRequest) error {
		calls++
		got = req
		return nil
	}

	w := app.postForm("/user/newtransaction", url.Values{
		"recipientEmail": {"  friend@example.com  "},
		"amount":         {" 25 "},
	}, sidCookie("sid-1"))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/user/transactions", w.Header().Get("Location"))
	require.Equal(t, 1, calls)
	assert.Equal(t, "friend@example.com", got.RecipientEmail)
	assert.Equal(t, 25.0, got.Amount)
}

func TestRouter_GuardRedirects(t *testing.T) {
	app := newTestApp(t)

	// Logged out, guarded page.
	w := app.get("/user/transactions", sidCookie("sid-1"))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, domainauth.RouteLogin, w.Header().Get("Location"))

	// Logged in as a user, admin page.
	app.postForm("/login", url.Values{
		"email":    {"user@example.com"},
		"password": {"hunter22"},
	}, sidCookie("sid-1"))
	w = app.get("/admin/dashboard", sidCookie("sid-1"))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, domainauth.RouteUnauthorized, w.Header().Get("Location"))
}

func TestRouter_RootRedirectsByRole(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/", sidCookie("sid-1"))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, domainauth.RouteLogin, w.Header().Get("Location"))

	app.api.LoginFunc = func(ctx context.Context, in ports.LoginInput) (ports.LoginResult, error) {
		return ports.LoginResult{AccessToken: "admin-tok", Roles: []string{"admin"}}, nil
	}
	app.postForm("/login", url.Values{
		"email":    {"admin@example.com"},
		"password": {"hunter22"},
	}, sidCookie("sid-1"))

	w = app.get("/", sidCookie("sid-1"))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, domainauth.RouteAdminDashboard, w.Header().Get("Location"))
}

func TestRouter_LogoutClearsSessionAndCookie(t *testing.T) {
	app := newTestApp(t)

	app.postForm("/login", url.Values{
		"email":    {"user@example.com"},
		"password": {"hunter22"},
	}, sidCookie("sid-1"))

	w := app.postForm("/logout", url.Values{}, sidCookie("sid-1"))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, domainauth.RouteLogin, w.Header().Get("Location"))

	token := findCookie(w.Result(), "token")
	require.NotNil(t, token)
	assert.Negative(t, token.MaxAge)

	assert.Equal(t, []string{"mock-token-1"}, app.api.LogoutTokens)
	assert.False(t, app.sessions.Get(context.Background(), "sid-1").IsAuthenticated())
}

func TestRouter_UnknownPathRendersNotFoundPage(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/no-such-page", sidCookie("sid-1"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := w.Body.String()
	assert.True(t, ContainsAll(body, []string{"404", domainauth.RouteLogin}), body)
}

func TestRouter_Healthz(t *testing.T) {
	app := newTestApp(t)
	w := app.get("/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
}
