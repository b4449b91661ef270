package httpx

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	domainauth "github.com/nimbusbank/bankview/internal/domain/auth"
	"github.com/nimbusbank/bankview/internal/domain/model"
	apperrors "github.com/nimbusbank/bankview/internal/errors"
	"github.com/nimbusbank/bankview/internal/http/validation"
	"github.com/nimbusbank/bankview/internal/ports"
)

// UserHandlers serves the account pages backed by the upstream banking API.
// Every upstream call carries the resident credential's bearer token; a 401
// means the token was revoked since bootstrap and sends the user back
// through login.
type UserHandlers struct {
	Bank   ports.BankAPI
	T      *TemplateRenderer
	Logger *slog.Logger
}

func (h *UserHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// handleUpstreamError renders upstream failures: revoked tokens restart the
// login flow, everything else renders the page shell with an error banner.
func (h *UserHandlers) handleUpstreamError(w http.ResponseWriter, r *http.Request, meta PageMeta, err error) {
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

// Info handles GET /user/info.
func (h *UserHandlers) Info(w http.ResponseWriter, r *http.Request) {
	meta := PageMeta{Title: "Account - Nimbus Bank", CurrentPage: "user-info"}
	cred := CredentialFromContext(r.Context())

	profile, err := h.Bank.Profile(r.Context(), cred.AccessToken)
	if err != nil {
		h.handleUpstreamError(w, r, meta, err)
		return
	}

	data := NewTemplateData(r, meta).With("Profile", profile)
	if err := h.T.RenderPage(w, "user-info", data.Build()); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// Transactions handles GET /user/transactions.
func (h *UserHandlers) Transactions(w http.ResponseWriter, r *http.Request) {
	meta := PageMeta{Title: "Transactions - Nimbus Bank", CurrentPage: "transactions"}
	cred := CredentialFromContext(r.Context())

	txs, err := h.Bank.ListTransactions(r.Context(), cred.AccessToken)
	if err != nil {
		h.handleUpstreamError(w, r, meta, err)
		return
	}
	model.SortNewestFirst(txs)

	data := NewTemplateData(r, meta).With("Transactions", txs)
	if err := h.T.RenderPage(w, "transactions", data.Build()); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// NewTransactionPage handles GET /user/newtransaction.
func (h *UserHandlers) NewTransactionPage(w http.ResponseWriter, r *http.Request) {
	h.renderTransactionForm(w, r, transactionFormView{})
}

type transactionFormView struct {
	Recipient   string
	Amount      string
	ErrorMsg    string
	FieldErrors map[string]string
}

func (h *UserHandlers) renderTransactionForm(w http.ResponseWriter, r *http.Request, v transactionFormView) {
	data := NewTemplateData(r, PageMeta{Title: "New transfer - Nimbus Bank", CurrentPage: "new-transaction"}).
		With("FormRecipient", v.Recipient).
		With("FormAmount", v.Amount).
		WithFieldErrors(v.FieldErrors)
	if v.ErrorMsg != "" {
		data = data.WithError(v.ErrorMsg)
	}
	if err := h.T.RenderPage(w, "new-transaction", data.Build()); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// NewTransactionSubmit handles POST /user/newtransaction.
func (h *UserHandlers) NewTransactionSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	recipient := strings.TrimSpace(r.PostFormValue("recipientEmail"))
	amountRaw := strings.TrimSpace(r.PostFormValue("amount"))

	errs := validation.Validate(
		validation.Field{Name: "recipientEmail", Value: recipient, Checks: []validation.Validator{validation.Email("Recipient email")}},
		validation.Field{Name: "amount", Value: amountRaw, Checks: []validation.Validator{validation.PositiveAmount("Amount")}},
	)
	if len(errs) > 0 {
		h.renderTransactionForm(w, r, transactionFormView{Recipient: recipient, Amount: amountRaw, FieldErrors: errs})
		return
	}
	amount, err := strconv.ParseFloat(amountRaw, 64)
	if err != nil {
		h.renderTransactionForm(w, r, transactionFormView{
			Recipient: recipient, Amount: amountRaw,
			FieldErrors: map[string]string{"amount": "Amount must be a number."},
		})
		return
	}

	cred := CredentialFromContext(r.Context())
	if err := h.Bank.CreateTransaction(r.Context(), cred.AccessToken, model.NewTransactionRequest{
		RecipientEmail: recipient,
		Amount:         amount,
	}); err != nil {
		if apperrors.IsUnauthorized(err) {
			http.Redirect(w, r, domainauth.RouteLogin, http.StatusSeeOther)
			return
		}
		msg, fields := formError(err, "Transfer failed")
		h.renderTransactionForm(w, r, transactionFormView{
			Recipient: recipient, Amount: amountRaw, ErrorMsg: msg, FieldErrors: fields,
		})
		return
	}
	http.Redirect(w, r, "/user/transactions", http.StatusSeeOther)
}
