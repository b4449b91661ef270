package httpx

import (
	"bytes"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	bankview "github.com/nimbusbank/bankview"
	domainauth "github.com/nimbusbank/bankview/internal/domain/auth"
	"github.com/nimbusbank/bankview/internal/ports"
)

// RouterServices holds everything the HTTP router needs wired in.
type RouterServices struct {
	Auth     AuthService
	Sessions SessionAuthService
	Bank     ports.BankAPI

	TokenCookieName   string
	SessionCookieName string
	CookieDomain      string
	CookieSecure      bool

	IsDev  bool         // Development mode flag for template/asset hot reloading
	Logger *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates and configures the HTTP router with the session
// middleware applied. Every request carries a session id and a resolved
// credential by the time it reaches a handler.
func NewRouter(services RouterServices) http.Handler {
	if services.Logger == nil {
		services.Logger = slog.Default()
	}
	mux := http.NewServeMux()

	tr := setupRenderer(services)

	authHandlers := &AuthHandlers{
		Svc:             services.Auth,
		T:               tr,
		TokenCookieName: services.TokenCookieName,
		CookieDomain:    services.CookieDomain,
		CookieSecure:    services.CookieSecure,
		Logger:          services.Logger,
	}
	userHandlers := &UserHandlers{Bank: services.Bank, T: tr, Logger: services.Logger}
	adminHandlers := &AdminHandlers{
		Bank:   services.Bank,
		Auth:   services.Auth,
		T:      tr,
		Logger: services.Logger,
	}

	registerAuthRoutes(mux, authHandlers)
	registerUserRoutes(mux, userHandlers)
	registerAdminRoutes(mux, adminHandlers)

	mux.Handle("GET /{$}", http.HandlerFunc(homeHandler))
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	// Static assets at /static
	// Dev mode: serve from disk for hot reloading
	// Prod mode: serve from embedded FS
	mux.Handle("GET /static/", staticHandler(services.IsDev))

	// Wrap with the NotFound handler, then session resolution, logging and
	// panic recovery outermost.
	var handler http.Handler = &notFoundHandler{mux: mux, renderer: tr}
	handler = WithSession(SessionOptions{
		Sessions:          services.Sessions,
		TokenCookieName:   services.TokenCookieName,
		SessionCookieName: services.SessionCookieName,
		CookieDomain:      services.CookieDomain,
		CookieSecure:      services.CookieSecure,
		Logger:            services.Logger,
	})(handler)
	handler = Logging(services.Logger)(handler)
	return Recover(services.Logger)(handler)
}

// setupRenderer builds the template renderer. In dev mode templates are
// loaded from disk for hot reloading, otherwise from the embedded FS.
func setupRenderer(services RouterServices) *TemplateRenderer {
	var templateFS fs.FS
	if services.IsDev {
		templateFS = os.DirFS(TemplatePathFromRoot)
	} else {
		sub, err := fs.Sub(bankview.TemplateFS, "frontend/templates")
		if err != nil {
			log.Printf("failed to create sub-filesystem for templates: %v; falling back to disk", err)
			sub = os.DirFS(TemplatePathFromRoot)
		}
		templateFS = sub
	}

	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS,
		Logger:     services.Logger,
	})
	if err != nil {
		if services.Logger != nil {
			services.Logger.Error("failed to create template renderer", slog.Any("error", err))
		} else {
			log.Printf("ERROR: failed to create template renderer: %v", err)
		}
		return nil
	}
	return tr
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /login", h.LoginPage)
	mux.HandleFunc("POST /login", h.LoginSubmit)
	mux.HandleFunc("GET /signup", h.SignupPage)
	mux.HandleFunc("POST /signup", h.SignupSubmit)
	mux.HandleFunc("POST /signup/verify", h.SignupVerify)
	mux.HandleFunc("GET /forgot-password", h.ForgotPasswordPage)
	mux.HandleFunc("POST /forgot-password", h.ForgotPasswordSubmit)
	mux.HandleFunc("GET /verify-code", h.VerifyCodePage)
	mux.HandleFunc("POST /verify-code", h.VerifyCodeSubmit)
	mux.HandleFunc("GET /reset-password", h.ResetPasswordPage)
	mux.HandleFunc("POST /reset-password", h.ResetPasswordSubmit)
	mux.HandleFunc("POST /logout", h.Logout)
	mux.HandleFunc("GET /unauthorized", h.Unauthorized)
}

func registerUserRoutes(mux *http.ServeMux, h *UserHandlers) {
	guard := RequireRoles(domainauth.RoleUser, domainauth.RoleAdmin)
	mux.Handle("GET /user/info", guard(http.HandlerFunc(h.Info)))
	mux.Handle("GET /user/transactions", guard(http.HandlerFunc(h.Transactions)))
	mux.Handle("GET /user/newtransaction", guard(http.HandlerFunc(h.NewTransactionPage)))
	mux.Handle("POST /user/newtransaction", guard(http.HandlerFunc(h.NewTransactionSubmit)))
}

func registerAdminRoutes(mux *http.ServeMux, h *AdminHandlers) {
	guard := RequireRoles(domainauth.RoleAdmin)
	mux.Handle("GET /admin/dashboard", guard(http.HandlerFunc(h.Dashboard)))
	mux.Handle("GET /admin/users/{id}/transactions", guard(http.HandlerFunc(h.UserTransactions)))
	mux.Handle("POST /admin/users/{id}/delete", guard(http.HandlerFunc(h.DeleteUser)))
	mux.Handle("GET /admin/create-admin", guard(http.HandlerFunc(h.CreateAdminPage)))
	mux.Handle("POST /admin/create-admin", guard(http.HandlerFunc(h.CreateAdminSubmit)))
}

// homeHandler sends the visitor to the landing page for their role set.
func homeHandler(w http.ResponseWriter, r *http.Request) {
	cred := CredentialFromContext(r.Context())
	http.Redirect(w, r, cred.Roles.HomeRoute(), http.StatusSeeOther)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// staticHandler serves /static/* assets.
func staticHandler(isDev bool) http.Handler {
	if isDev {
		return http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static")))
	}

	staticSub, err := fs.Sub(bankview.StaticFS, "frontend/static")
	if err != nil {
		log.Printf("failed to create sub-filesystem for static assets: %v", err)
		return http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static")))
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(staticSub)))
}

// renderNotFound writes the 404 page using the error shell.
func renderNotFound(w http.ResponseWriter, r *http.Request, t *TemplateRenderer) {
	cred := CredentialFromContext(r.Context())
	if t == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_ = t.RenderError(w, map[string]any{
		"Code":      "404",
		"Message":   "The page you're looking for doesn't exist.",
		"HomeRoute": cred.Roles.HomeRoute(),
	})
}

// notFoundHandler wraps a ServeMux and provides custom 404 handling.
type notFoundHandler struct {
	mux      *http.ServeMux
	renderer *TemplateRenderer
}

// ServeHTTP implements http.Handler and provides custom 404 handling.
func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cw := newCaptureWriter(w)
	// Serve the request through the mux, capturing status, headers, and body
	h.mux.ServeHTTP(cw, r)

	// If the mux didn't handle the request (404), use our custom handler
	if cw.status == http.StatusNotFound {
		// For missing static assets, preserve the default file server response
		if strings.HasPrefix(r.URL.Path, "/static/") {
			cw.flushTo(w)
			return
		}
		renderNotFound(w, r, h.renderer)
		return
	}

	// Not a 404: write the captured response
	cw.flushTo(w)
}

// captureWriter buffers headers, status and body so we can decide post-dispatch.
type captureWriter struct {
	rw     http.ResponseWriter
	header http.Header
	status int
	buf    bytes.Buffer
}

func newCaptureWriter(w http.ResponseWriter) *captureWriter {
	return &captureWriter{rw: w, header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header         { return c.header }
func (c *captureWriter) WriteHeader(code int)        { c.status = code }
func (c *captureWriter) Write(b []byte) (int, error) { return c.buf.Write(b) }

func (c *captureWriter) flushTo(w http.ResponseWriter) {
	for k, vs := range c.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(c.status)
	if _, err := w.Write(c.buf.Bytes()); err != nil {
		log.Printf("failed to write captured response: %v", err)
	}
}
