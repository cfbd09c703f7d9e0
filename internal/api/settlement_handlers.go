package api

import (
	"net/http"

	"github.com/equinex/backend/internal/middleware"
	"github.com/equinex/backend/internal/service"
)

type createSettlementRequest struct {
	Amount            float64  `json:"amount" validate:"required,gt=0"`
	Note              string   `json:"note"`
	PaidByUserID      string   `json:"paidByUserId" validate:"required"`
	ReceivedByUserID  string   `json:"receivedByUserId" validate:"required"`
	GroupID           string   `json:"groupId"`
	RelatedExpenseIDs []string `json:"relatedExpenseIds"`
}

func (h *Handlers) handleCreateSettlement(w http.ResponseWriter, r *http.Request) {
	var req createSettlementRequest
	if err := h.decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	id, err := h.settlements.Create(r.Context(), middleware.GetUserID(r.Context()), service.CreateSettlementInput{
		Amount:            req.Amount,
		Note:              req.Note,
		PaidByUserID:      req.PaidByUserID,
		ReceivedByUserID:  req.ReceivedByUserID,
		GroupID:           req.GroupID,
		RelatedExpenseIDs: req.RelatedExpenseIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"settlementId": id})
}

func (h *Handlers) handleCleanupSettlements(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.settlements.CleanupOrphaned(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deletedCount": deleted})
}
