package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/nimbusbank/bankview/internal/domain/auth"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionAuthService is the slice of the session service the middleware
// consumes: reading the resident credential and resolving a token cookie
// into one.
type SessionAuthService interface {
	Get(ctx context.Context, sid string) domainauth.Credential
	Bootstrap(ctx context.Context, sid, token string) (domainauth.Credential, error)
}

// SessionOptions configures the session middleware and the cookies it owns.
type SessionOptions struct {
	Sessions SessionAuthService

	TokenCookieName   string
	SessionCookieName string
	CookieDomain      string
	CookieSecure      bool

	Logger *slog.Logger
}

func (o *SessionOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// WithSession returns the middleware that establishes the per-request
// identity. It assigns a session ID cookie when none exists, reads the
// resident credential, and, for a logged-out session carrying a bearer
// token cookie, resolves the token through the bootstrap exchange exactly
// once. A failed bootstrap expires the token cookie in the same response,
// so the session degrades to logged out rather than retrying.
func WithSession(opts SessionOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sid := readCookie(r, opts.SessionCookieName)
			if sid == "" {
				sid = uuid.NewString()
				setCookie(w, cookieParams{
					Name:     opts.SessionCookieName,
					Value:    sid,
					Domain:   opts.CookieDomain,
					Secure:   opts.CookieSecure,
					HTTPOnly: true,
				})
			}

			cred := opts.Sessions.Get(ctx, sid)
			if !cred.IsAuthenticated() {
				if token := readCookie(r, opts.TokenCookieName); token != "" {
					var err error
					cred, err = opts.Sessions.Bootstrap(ctx, sid, token)
					if err != nil {
						opts.logger().InfoContext(ctx, "session bootstrap failed",
							slog.String("path", r.URL.Path),
							slog.Any("error", err),
						)
						clearCookie(w, opts.TokenCookieName, opts.CookieDomain, opts.CookieSecure)
					}
				}
			}

			ctx = SetSessionIDInContext(ctx, sid)
			ctx = SetCredentialInContext(ctx, cred)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles returns the route guard: the request proceeds only when the
// resident credential's roles intersect the allowed set. Logged-out
// requests are sent to the login page; logged-in requests without an
// allowed role are sent to the unauthorized page. The guard reads only the
// resident credential; it never revalidates against the upstream, so a
// revoked token surfaces on the next upstream call instead.
func RequireRoles(allowed ...domainauth.Role) func(http.Handler) http.Handler {
	required := domainauth.RoleSet{}
	for _, role := range allowed {
		required[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred := CredentialFromContext(r.Context())
			if !cred.IsAuthenticated() {
				http.Redirect(w, r, domainauth.RouteLogin, http.StatusSeeOther)
				return
			}
			if !cred.Roles.Intersects(required) {
				http.Redirect(w, r, domainauth.RouteUnauthorized, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func readCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// cookieParams groups cookie attributes for setCookie.
type cookieParams struct {
	Name     string
	Value    string
	Domain   string
	Secure   bool
	HTTPOnly bool
}

func setCookie(w http.ResponseWriter, p cookieParams) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    p.Value,
		Path:     "/",
		Domain:   p.Domain,
		Secure:   p.Secure,
		HttpOnly: p.HTTPOnly,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, name, domain string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   domain,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
