package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/equinex/backend/internal/auth"
	"github.com/equinex/backend/internal/middleware"
)

// NewRouter wires the full HTTP surface: public auth endpoints, the
// authenticated API and the operational endpoints.
func NewRouter(h *Handlers, jwtManager *auth.JWTManager) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.Logging)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(jwtManager))

			r.Get("/me", h.handleCurrentUser)
			r.Get("/users/search", h.handleSearchUsers)

			r.Get("/balances", h.handleUserBalances)
			r.Get("/balances/{userID}", h.handlePairBalance)
			r.Get("/contacts", h.handleContacts)
			r.Get("/spending/total", h.handleTotalSpent)
			r.Get("/spending/monthly", h.handleMonthlySpending)

			r.Post("/expenses", h.handleCreateExpense)
			r.Delete("/expenses/{expenseID}", h.handleDeleteExpense)

			r.Post("/settlements", h.handleCreateSettlement)
			r.Post("/settlements/cleanup", h.handleCleanupSettlements)

			r.Route("/groups", func(r chi.Router) {
				r.Post("/", h.handleCreateGroup)
				r.Get("/", h.handleUserGroups)
				r.Route("/{groupID}", func(r chi.Router) {
					r.Get("/", h.handleGetGroup)
					r.Delete("/", h.handleDeleteGroup)
					r.Get("/ledger", h.handleGroupLedger)
					r.Get("/activity", h.handleGroupActivity)
					r.Post("/members", h.handleAddMembers)
					r.Delete("/members/{userID}", h.handleRemoveMember)
					r.Post("/admin", h.handleTransferAdmin)
					r.Post("/leave", h.handleLeaveGroup)
				})
			})
		})
	})

	return r
}
