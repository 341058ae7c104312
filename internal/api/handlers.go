package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/reconcile"
	"github.com/cleared-dev/tally/internal/reports"
	"github.com/cleared-dev/tally/internal/store"
)

const (
	customer = model.PartyCustomer
	vendor   = model.PartyVendor
)

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.New(apperr.KindInvalidInput, "invalid request body: %v", err)
	}
	return nil
}

// dateParam parses an optional YYYY-MM-DD query parameter.
func dateParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	return model.ParseDate(v)
}

// optionalDate parses an optional YYYY-MM-DD body field.
func optionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return model.ParseDate(s)
}

// Accounts

type accountRequest struct {
	Number         string          `json:"number"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Detail         string          `json:"detail"`
	ParentID       string          `json:"parent_id"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	OpeningDate    string          `json:"opening_date"`
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("include_inactive"))
	accts, err := h.engine.Accounts(r.Context(), all)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accts})
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	opened, err := optionalDate(req.OpeningDate)
	if err != nil {
		writeError(w, err)
		return
	}
	a, err := h.engine.CreateAccount(r.Context(), model.Account{
		Number:         req.Number,
		Name:           req.Name,
		Type:           model.AccountType(req.Type),
		Detail:         model.DetailType(req.Detail),
		ParentID:       req.ParentID,
		OpeningBalance: req.OpeningBalance,
		OpeningDate:    opened,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"account": a})
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	a, err := h.engine.Account(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": a})
}

func (h *Handler) deactivateAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeactivateAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reactivateAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ReactivateAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Parties

type partyRequest struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email"`
}

func (h *Handler) listParties(kind model.PartyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := h.engine.Parties(r.Context(), kind)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"parties": ps})
	}
}

func (h *Handler) createParty(kind model.PartyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req partyRequest
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		p, err := h.engine.CreateParty(r.Context(), model.Party{Kind: kind, Name: req.Name, Company: req.Company, Email: req.Email})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"party": p})
	}
}

func (h *Handler) getParty(w http.ResponseWriter, r *http.Request) {
	partyID := chi.URLParam(r, "id")
	p, err := h.engine.Party(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}
	balance, err := h.engine.PartyBalance(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"party": p, "balance": balance})
}

func (h *Handler) openItems(w http.ResponseWriter, r *http.Request) {
	partyID := chi.URLParam(r, "id")
	items, err := h.engine.OpenItems(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}
	balance, err := h.engine.PartyBalance(r.Context(), partyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"open_items": items, "balance": balance})
}

// Transactions

func (h *Handler) postTransaction(w http.ResponseWriter, r *http.Request) {
	var spec model.DocumentSpec
	if err := decode(r, &spec); err != nil {
		writeError(w, err)
		return
	}
	doc, err := spec.ToDocument()
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.engine.PostTransaction(r.Context(), doc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.TransactionFilter{
		PartyID: q.Get("party"),
		Status:  model.TransactionStatus(q.Get("status")),
	}
	for _, t := range q["type"] {
		f.Types = append(f.Types, model.TransactionType(t))
	}
	var err error
	if f.To, err = dateParam(r, "to"); err != nil {
		writeError(w, err)
		return
	}
	txns, err := h.engine.Transactions(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txns})
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := h.engine.Transaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction": t})
}

type reverseRequest struct {
	Date string `json:"date"`
	Memo string `json:"memo"`
}

func (h *Handler) reverseTransaction(w http.ResponseWriter, r *http.Request) {
	var req reverseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	day, err := optionalDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.engine.Reverse(r.Context(), chi.URLParam(r, "id"), day, req.Memo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Payments

type autoApplyRequest struct {
	PartyID string `json:"party_id"`
}

type applyRequest struct {
	Applications []model.Application `json:"applications"`
}

func (h *Handler) autoApply(w http.ResponseWriter, r *http.Request) {
	var req autoApplyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.engine.AutoApplyPayment(r.Context(), chi.URLParam(r, "id"), req.PartyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) applyManual(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.engine.ApplyPaymentManual(r.Context(), chi.URLParam(r, "id"), req.Applications)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) allocations(w http.ResponseWriter, r *http.Request) {
	allocs, err := h.engine.Allocations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"allocations": allocs})
}

func (h *Handler) undeposited(w http.ResponseWriter, r *http.Request) {
	txns, err := h.engine.Undeposited(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txns})
}

// Bank transactions and reconciliation

type importRequest struct {
	Rows []model.BankTransaction `json:"rows"`
}

// importBank accepts either a raw CSV body (?format=chase|csv) or a JSON body
// of already-parsed rows.
func (h *Handler) importBank(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	var (
		res reconcile.ImportResult
		err error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req importRequest
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		res, err = h.engine.ImportBankRows(r.Context(), accountID, req.Rows)
	} else {
		format := r.URL.Query().Get("format")
		if format == "" {
			format = "csv"
		}
		res, err = h.engine.ImportBank(r.Context(), accountID, format, r.Body)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) listBankTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.engine.BankTransactions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bank_transactions": txns})
}

type matchRequest struct {
	TransactionID string `json:"transaction_id"`
}

func (h *Handler) matchBankTransaction(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	b, err := h.engine.MatchBankTransaction(r.Context(), chi.URLParam(r, "id"), req.TransactionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bank_transaction": b})
}

func (h *Handler) unmatchBankTransaction(w http.ResponseWriter, r *http.Request) {
	b, err := h.engine.UnmatchBankTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bank_transaction": b})
}

// reconciledRequest marks a row into SessionID; null or empty clears it.
type reconciledRequest struct {
	SessionID *string `json:"session_id"`
}

func (h *Handler) setReconciled(w http.ResponseWriter, r *http.Request) {
	var req reconciledRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sessionID := ""
	if req.SessionID != nil {
		sessionID = *req.SessionID
	}
	b, err := h.engine.SetBankTransactionReconciled(r.Context(), chi.URLParam(r, "id"), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bank_transaction": b})
}

type openReconciliationRequest struct {
	AccountID     string          `json:"account_id"`
	StatementDate string          `json:"statement_date"`
	EndingBalance decimal.Decimal `json:"ending_balance"`
}

func (h *Handler) openReconciliation(w http.ResponseWriter, r *http.Request) {
	var req openReconciliationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	day, err := model.ParseDate(req.StatementDate)
	if err != nil {
		writeError(w, err)
		return
	}
	s, err := h.engine.OpenReconciliation(r.Context(), req.AccountID, day, req.EndingBalance)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session": s})
}

func (h *Handler) getReconciliation(w http.ResponseWriter, r *http.Request) {
	s, err := h.engine.Reconciliation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": s})
}

func (h *Handler) listReconciliations(w http.ResponseWriter, r *http.Request) {
	ss, err := h.engine.Reconciliations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": ss})
}

func (h *Handler) completeReconciliation(w http.ResponseWriter, r *http.Request) {
	s, err := h.engine.CompleteReconciliation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": s})
}

// Reports

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, err := dateParam(r, "as_of")
	if err != nil {
		writeError(w, err)
		return
	}
	tb, err := h.engine.GetTrialBalance(r.Context(), asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tb)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := dateParam(r, "as_of")
	if err != nil {
		writeError(w, err)
		return
	}
	bs, err := h.engine.GetBalanceSheet(r.Context(), asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

func (h *Handler) incomeStatement(w http.ResponseWriter, r *http.Request) {
	from, err := dateParam(r, "from")
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := dateParam(r, "to")
	if err != nil {
		writeError(w, err)
		return
	}
	is, err := h.engine.GetIncomeStatement(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, is)
}

func (h *Handler) aging(w http.ResponseWriter, r *http.Request) {
	asOf, err := dateParam(r, "as_of")
	if err != nil {
		writeError(w, err)
		return
	}
	kind := reports.AgingKind(r.URL.Query().Get("type"))
	if kind == "" {
		kind = reports.AgingReceivable
	}
	a, err := h.engine.GetAgingReport(r.Context(), asOf, kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
