// Package api serves the ledger engine over HTTP under /api/v1.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/cleared-dev/tally/internal/engine"
)

// Handler serves engine operations.
type Handler struct {
	engine *engine.Engine
	log    *zap.Logger
}

// NewRouter builds the HTTP router for e.
func NewRouter(e *engine.Engine, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{engine: e, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.listAccounts)
			r.Post("/", h.createAccount)
			r.Get("/{id}", h.getAccount)
			r.Post("/{id}/deactivate", h.deactivateAccount)
			r.Post("/{id}/reactivate", h.reactivateAccount)
			r.Get("/{id}/bank-transactions", h.listBankTransactions)
			r.Post("/{id}/bank-transactions/import", h.importBank)
			r.Get("/{id}/reconciliations", h.listReconciliations)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.listParties(customer))
			r.Post("/", h.createParty(customer))
		})
		r.Route("/vendors", func(r chi.Router) {
			r.Get("/", h.listParties(vendor))
			r.Post("/", h.createParty(vendor))
		})
		r.Get("/parties/{id}", h.getParty)
		r.Get("/parties/{id}/open-items", h.openItems)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.listTransactions)
			r.Post("/", h.postTransaction)
			r.Get("/{id}", h.getTransaction)
			r.Post("/{id}/reverse", h.reverseTransaction)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/undeposited", h.undeposited)
			r.Get("/{id}/allocations", h.allocations)
			r.Post("/{id}/auto-apply", h.autoApply)
			r.Post("/{id}/apply", h.applyManual)
		})

		r.Route("/bank-transactions/{id}", func(r chi.Router) {
			r.Put("/match", h.matchBankTransaction)
			r.Delete("/match", h.unmatchBankTransaction)
			r.Put("/reconciled", h.setReconciled)
		})

		r.Route("/reconciliations", func(r chi.Router) {
			r.Post("/", h.openReconciliation)
			r.Get("/{id}", h.getReconciliation)
			r.Post("/{id}/complete", h.completeReconciliation)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/trial-balance", h.trialBalance)
			r.Get("/balance-sheet", h.balanceSheet)
			r.Get("/income-statement", h.incomeStatement)
			r.Get("/aging", h.aging)
		})
	})
	return r
}

// requestLogger logs one line per request.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Info("request",
				zap.Int("status", ww.Status()),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Duration("cost", time.Since(start)),
			)
		})
	}
}
