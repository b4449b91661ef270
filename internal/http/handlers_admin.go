package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/nimbusbank/bankview/internal/domain/auth"
	"github.com/nimbusbank/bankview/internal/domain/model"
	apperrors "github.com/nimbusbank/bankview/internal/errors"
	"github.com/nimbusbank/bankview/internal/service"
)

// AdminHandlers serves the admin pages: the user directory, per-user
// transaction listings, user deletion, and admin account creation. All of
// them sit behind the admin route guard.
type AdminHandlers struct {
	Bank   AdminBankService
	Auth   AuthService
	T      *TemplateRenderer
	Logger *slog.Logger
}

// AdminBankService is the slice of the upstream API the admin pages use.
type AdminBankService interface {
	ListUsers(ctx context.Context, token string) ([]model.User, error)
	UserTransactions(ctx context.Context, token, userID string) (model.TransactionHistory, error)
	DeleteUser(ctx context.Context, token, userID string) error
}

func (h *AdminHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Dashboard handles GET /admin/dashboard: the directory of non-admin
// accounts with server-side email substring search.
func (h *AdminHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	meta := PageMeta{Title: "Dashboard - Nimbus Bank", CurrentPage: "admin-dashboard"}
	cred := CredentialFromContext(r.Context())
	query := r.URL.Query().Get("q")

	users, err := h.Bank.ListUsers(r.Context(), cred.AccessToken)
	if err != nil {
		h.handleUpstreamError(w, r, meta, err)
		return
	}

	data := NewTemplateData(r, meta).
		With("Users", filterUsers(users, query)).
		With("Query", query)
	if err := h.T.RenderPage(w, "admin-dashboard", data.Build()); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// filterUsers drops admin accounts from the directory and applies the
// case-insensitive email substring search.
func filterUsers(users []model.User, query string) []model.User {
	query = strings.ToLower(strings.TrimSpace(query))
	filtered := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.IsAdmin() {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(u.Email), query) {
			continue
		}
		filtered = append(filtered, u)
	}
	return filtered
}

// UserTransactions handles GET /admin/users/{id}/transactions.
func (h *AdminHandlers) UserTransactions(w http.ResponseWriter, r *http.Request) {
	meta := PageMeta{Title: "User transactions - Nimbus Bank", CurrentPage: "admin-user"}
	cred := CredentialFromContext(r.Context())
	userID := r.PathValue("id")

	history, err := h.Bank.UserTransactions(r.Context(), cred.AccessToken, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			renderNotFound(w, r, h.T)
			return
		}
		h.handleUpstreamError(w, r, meta, err)
		return
	}
	model.SortNewestFirst(history.Transactions)

	data := NewTemplateData(r, meta).With("History", history)
	if err := h.T.RenderPage(w, "admin-user", data.Build()); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// DeleteUser handles POST /admin/users/{id}/delete.
func (h *AdminHandlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	cred := CredentialFromContext(r.Context())
	userID := r.PathValue("id")

	if err := h.Bank.DeleteUser(r.Context(), cred.AccessToken, userID); err != nil {
		if apperrors.IsUnauthorized(err) {
			http.Redirect(w, r, domainauth.RouteLogin, http.StatusSeeOther)
			return
		}
		h.logger().ErrorContext(r.Context(), "delete user failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
	http.Redirect(w, r, domainauth.RouteAdminDashboard, http.StatusSeeOther)
}

// CreateAdminPage handles GET /admin/create-admin.
func (h *AdminHandlers) CreateAdminPage(w http.ResponseWriter, r *http.Request) {
	h.renderCreateAdmin(w, r, createAdminView{})
}

type createAdminView struct {
	Email       string
	ErrorMsg    string
	FieldErrors map[string]string
}

func (h *AdminHandlers) renderCreateAdmin(w http.ResponseWriter, r *http.Request, v createAdminView) {
	data := NewTemplateData(r, PageMeta{Title: "Create admin - Nimbus Bank", CurrentPage: "create-admin"}).
		With("FormEmail", v.Email).
		WithFieldErrors(v.FieldErrors)
	if v.ErrorMsg != "" {
		data = data.WithError(v.ErrorMsg)
	}
	if err := h.T.RenderPage(w, "create-admin", data.Build()); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// CreateAdminSubmit handles POST /admin/create-admin. The upstream call is
// authorized with the acting admin's resident bearer token.
func (h *AdminHandlers) CreateAdminSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	sid := SessionIDFromContext(r.Context())

	err := h.Auth.CreateAdmin(r.Context(), sid, service.SignupInput{
		Email:           email,
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	})
	if err != nil {
		msg, fields := formError(err, "Admin creation failed")
		h.renderCreateAdmin(w, r, createAdminView{Email: email, ErrorMsg: msg, FieldErrors: fields})
		return
	}
	http.Redirect(w, r, domainauth.RouteAdminDashboard, http.StatusSeeOther)
}

// handleUpstreamError mirrors UserHandlers.handleUpstreamError for admin
// pages.
func (h *AdminHandlers) handleUpstreamError(w http.ResponseWriter, r *http.Request, meta PageMeta, err error) {
	if apperrors.IsUnauthorized(err) {
		http.Redirect(w, r, domainauth.RouteLogin, http.StatusSeeOther)
		return
	}
	h.logger().ErrorContext(r.Context(), "upstream request failed",
		slog.String("page", meta.CurrentPage),
		slog.Any("error", err),
	)
	msg, _ := formError(err, "Something went wrong. Try again.")
	data := NewTemplateData(r, meta).WithError(msg)
	if renderErr := h.T.RenderPage(w, meta.CurrentPage, data.Build()); renderErr != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
