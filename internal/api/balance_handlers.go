package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/equinex/backend/internal/middleware"
)

func (h *Handlers) handleUserBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.balances.UserBalances(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (h *Handlers) handlePairBalance(w http.ResponseWriter, r *http.Request) {
	pair, err := h.balances.PairBalance(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handlers) handleGroupLedger(w http.ResponseWriter, r *http.Request) {
	view, err := h.balances.GroupLedger(r.Context(), chi.URLParam(r, "groupID"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) handleUserGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.balances.UserGroups(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *Handlers) handleContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.balances.Contacts(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (h *Handlers) handleTotalSpent(w http.ResponseWriter, r *http.Request) {
	total, err := h.balances.TotalSpent(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"totalSpent": total})
}

func (h *Handlers) handleMonthlySpending(w http.ResponseWriter, r *http.Request) {
	months, err := h.balances.MonthlySpending(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, months)
}
