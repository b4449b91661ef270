package httpx

import (
	"context"
	"log/slog"
	"net/http"

	apperrors "github.com/nimbusbank/bankview/internal/errors"
	"github.com/nimbusbank/bankview/internal/ports"
	"github.com/nimbusbank/bankview/internal/service"
)

// AuthService defines the interface for the authentication flow operations
// the handlers consume.
type AuthService interface {
	Login(ctx context.Context, sid string, in ports.LoginInput) (service.LoginResult, error)
	Signup(ctx context.Context, in service.SignupInput) error
	VerifyEmail(ctx context.Context, email, code string) error
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetCode(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, in ports.ResetPasswordInput) error
	CreateAdmin(ctx context.Context, sid string, in service.SignupInput) error
	Logout(ctx context.Context, sid string)
	CooldownRemaining(sid string) int
}

// AuthHandlers provides HTTP handlers for the authentication pages.
type AuthHandlers struct {
	Svc AuthService
	T   *TemplateRenderer

	TokenCookieName string
	CookieDomain    string
	CookieSecure    bool

	Logger *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// formError maps a flow error onto the form surfaces: a field error when the
// failure names a field, a general message otherwise. Upstream rejection
// messages pass through verbatim; transport and auth failures get the fixed
// wording the forms show.
func formError(err error, fallback string) (string, map[string]string) {
	if apperrors.IsValidation(err) {
		if f := apperrors.GetField(err); f != "" {
			return "", map[string]string{f: apperrors.UserMessage(err, "Invalid value.")}
		}
		return apperrors.UserMessage(err, "Invalid input."), nil
	}
	switch {
	case apperrors.IsUnreachable(err):
		return "No server response", nil
	case apperrors.IsUnauthorized(err):
		return "Unauthorized", nil
	default:
		return apperrors.UserMessage(err, fallback), nil
	}
}

// LoginPage handles GET /login.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	cred := CredentialFromContext(r.Context())
	if cred.IsAuthenticated() {
		http.Redirect(w, r, cred.Roles.HomeRoute(), http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, loginView{})
}

type loginView struct {
	Email       string
	ErrorMsg    string
	FieldErrors map[string]string
}

func (h *AuthHandlers) renderLogin(w http.ResponseWriter, r *http.Request, v loginView) {
	data := NewTemplateData(r, PageMeta{Title: "Log in - Nimbus Bank", CurrentPage: "login"}).
		With("FormEmail", v.Email).
		With("CooldownRemaining", h.Svc.CooldownRemaining(SessionIDFromContext(r.Context()))).
		WithFieldErrors(v.FieldErrors)
	if v.ErrorMsg != "" {
		data = data.WithError(v.ErrorMsg)
	}
	if err := h.T.RenderPage(w, "login", data.Build()); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// LoginSubmit handles POST /login: the credential exchange plus the token
// cookie write, committed in the same response as the store update.
func (h *AuthHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	sid := SessionIDFromContext(r.Context())

	res, err := h.Svc.Login(r.Context(), sid, ports.LoginInput{
		Email:    email,
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		msg, fields := formError(err, "Login failed")
		h.renderLogin(w, r, loginView{Email: email, ErrorMsg: msg, FieldErrors: fields})
		return
	}

	setCookie(w, cookieParams{
		Name:     h.TokenCookieName,
		Value:    res.Credential.AccessToken,
		Domain:   h.CookieDomain,
		Secure:   h.CookieSecure,
		HTTPOnly: true,
	})
	http.Redirect(w, r, res.HomeRoute, http.StatusSeeOther)
}

// SignupPage handles GET /signup.
func (h *AuthHandlers) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.renderSignup(w, r, signupView{Stage: "form"})
}

type signupView struct {
	Stage       string // "form" or "verify"
	Email       string
	Notice      string
	ErrorMsg    string
	FieldErrors map[string]string
}

func (h *AuthHandlers) renderSignup(w http.ResponseWriter, r *http.Request, v signupView) {
	data := NewTemplateData(r, PageMeta{Title: "Sign up - Nimbus Bank", CurrentPage: "signup"}).
		With("Stage", v.Stage).
		With("FormEmail", v.Email).
		WithFieldErrors(v.FieldErrors)
	if v.Notice != "" {
		data = data.With("Notice", v.Notice)
	}
	if v.ErrorMsg != "" {
		data = data.WithError(v.ErrorMsg)
	}
	if err := h.T.RenderPage(w, "signup", data.Build()); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// SignupSubmit handles POST /signup. A successful signup moves the same view
// to its verification stage; the account stays unusable until the emailed
// code is exchanged.
func (h *AuthHandlers) SignupSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")

	err := h.Svc.Signup(r.Context(), service.SignupInput{
		Email:           email,
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
		AdminKey:        r.PostFormValue("adminKey"),
	})
	if err != nil {
		msg, fields := formError(err, "Signup failed")
		h.renderSignup(w, r, signupView{Stage: "form", Email: email, ErrorMsg: msg, FieldErrors: fields})
		return
	}

	h.renderSignup(w, r, signupView{
		Stage:  "verify",
		Email:  email,
		Notice: "Account created. Check your email for a verification code.",
	})
}

// SignupVerify handles POST /signup/verify.
func (h *AuthHandlers) SignupVerify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")

	if err := h.Svc.VerifyEmail(r.Context(), email, r.PostFormValue("code")); err != nil {
		msg, fields := formError(err, "Verification failed")
		h.renderSignup(w, r, signupView{Stage: "verify", Email: email, ErrorMsg: msg, FieldErrors: fields})
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ForgotPasswordPage handles GET /forgot-password.
func (h *AuthHandlers) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.renderResetStep(w, r, resetStepView{Page: "forgot-password", Title: "Forgot password - Nimbus Bank"})
}

type resetStepView struct {
	Page        string
	Title       string
	Email       string
	Code        string
	Notice      string
	ErrorMsg    string
	FieldErrors map[string]string
}

func (h *AuthHandlers) renderResetStep(w http.ResponseWriter, r *http.Request, v resetStepView) {
	data := NewTemplateData(r, PageMeta{Title: v.Title, CurrentPage: v.Page}).
		With("FormEmail", v.Email).
		With("FormCode", v.Code).
		WithFieldErrors(v.FieldErrors)
	if v.Notice != "" {
		data = data.With("Notice", v.Notice)
	}
	if v.ErrorMsg != "" {
		data = data.WithError(v.ErrorMsg)
	}
	if err := h.T.RenderPage(w, v.Page, data.Build()); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// ForgotPasswordSubmit handles POST /forgot-password and advances to the
// code entry step. The email is carried forward through the rendered form;
// landing on a later step without it renders that step unusable with a
// prompt to restart.
func (h *AuthHandlers) ForgotPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")

	if err := h.Svc.ForgotPassword(r.Context(), email); err != nil {
		msg, fields := formError(err, "Could not send a reset code")
		h.renderResetStep(w, r, resetStepView{
			Page: "forgot-password", Title: "Forgot password - Nimbus Bank",
			Email: email, ErrorMsg: msg, FieldErrors: fields,
		})
		return
	}
	h.renderResetStep(w, r, resetStepView{
		Page: "verify-code", Title: "Enter reset code - Nimbus Bank",
		Email: email, Notice: "Reset code sent. Check your email.",
	})
}

// VerifyCodePage handles GET /verify-code.
func (h *AuthHandlers) VerifyCodePage(w http.ResponseWriter, r *http.Request) {
	h.renderResetStep(w, r, resetStepView{
		Page: "verify-code", Title: "Enter reset code - Nimbus Bank",
		Email: r.URL.Query().Get("email"),
	})
}

// VerifyCodeSubmit handles POST /verify-code.
func (h *AuthHandlers) VerifyCodeSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	code := r.PostFormValue("code")

	if err := h.Svc.VerifyResetCode(r.Context(), email, code); err != nil {
		msg, fields := formError(err, "Code verification failed")
		h.renderResetStep(w, r, resetStepView{
			Page: "verify-code", Title: "Enter reset code - Nimbus Bank",
			Email: email, ErrorMsg: msg, FieldErrors: fields,
		})
		return
	}
	h.renderResetStep(w, r, resetStepView{
		Page: "reset-password", Title: "Reset password - Nimbus Bank",
		Email: email, Code: code,
	})
}

// ResetPasswordPage handles GET /reset-password.
func (h *AuthHandlers) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.renderResetStep(w, r, resetStepView{
		Page: "reset-password", Title: "Reset password - Nimbus Bank",
		Email: r.URL.Query().Get("email"),
		Code:  r.URL.Query().Get("code"),
	})
}

// ResetPasswordSubmit handles POST /reset-password.
func (h *AuthHandlers) ResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	code := r.PostFormValue("code")

	err := h.Svc.ResetPassword(r.Context(), ports.ResetPasswordInput{
		Email:       email,
		Code:        code,
		NewPassword: r.PostFormValue("newPassword"),
	})
	if err != nil {
		msg, fields := formError(err, "Password reset failed")
		h.renderResetStep(w, r, resetStepView{
			Page: "reset-password", Title: "Reset password - Nimbus Bank",
			Email: email, Code: code, ErrorMsg: msg, FieldErrors: fields,
		})
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Logout handles POST /logout: upstream invalidation (best effort), store
// clear, and token cookie expiry, all in one response.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	sid := SessionIDFromContext(r.Context())
	h.Svc.Logout(r.Context(), sid)
	clearCookie(w, h.TokenCookieName, h.CookieDomain, h.CookieSecure)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Unauthorized handles GET /unauthorized.
func (h *AuthHandlers) Unauthorized(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, PageMeta{Title: "Unauthorized - Nimbus Bank", CurrentPage: "unauthorized"})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	if err := h.T.RenderPage(w, "unauthorized", data.Build()); err != nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}
