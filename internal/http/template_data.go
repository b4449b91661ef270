package httpx

import (
	"net/http"

	domainauth "github.com/nimbusbank/bankview/internal/domain/auth"
)

// PageMeta contains page metadata used by the layout template.
type PageMeta struct {
	Title       string
	CurrentPage string
}

// basePageData builds the fields every page render needs: metadata, the
// resident credential, and navigation state.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	cred := CredentialFromContext(r.Context())
	return map[string]any{
		"Errors":          map[string]string{},
		"Title":           meta.Title,
		"CurrentPage":     meta.CurrentPage,
		"Path":            r.URL.Path,
		"Email":           cred.Email,
		"IsAuthenticated": cred.IsAuthenticated(),
		"IsAdmin":         cred.Roles.Has(domainauth.RoleAdmin),
		"HomeRoute":       cred.Roles.HomeRoute(),
	}
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
	r    *http.Request
}

// NewTemplateData creates a new TemplateDataBuilder initialized with basePageData.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return &TemplateDataBuilder{
		data: basePageData(r, meta),
		r:    r,
	}
}

// WithError sets a general error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	b.data["Error"] = true
	b.data["ErrorMessage"] = msg
	return b
}

// WithFieldErrors adds field-level validation errors.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}
