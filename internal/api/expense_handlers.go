package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/equinex/backend/internal/middleware"
	"github.com/equinex/backend/internal/models"
	"github.com/equinex/backend/internal/service"
)

type splitRequest struct {
	UserID string  `json:"userId" validate:"required"`
	Amount float64 `json:"amount"`
	Paid   bool    `json:"paid"`
}

type createExpenseRequest struct {
	Description  string         `json:"description" validate:"required"`
	Amount       float64        `json:"amount" validate:"required,gt=0"`
	Category     string         `json:"category"`
	Date         int64          `json:"date"`
	PaidByUserID string         `json:"paidByUserId" validate:"required"`
	SplitType    string         `json:"splitType" validate:"required,oneof=equal percentage exact"`
	Splits       []splitRequest `json:"splits" validate:"required,min=1,dive"`
	GroupID      string         `json:"groupId"`
}

func (h *Handlers) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := h.decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	splits := make([]models.Split, len(req.Splits))
	for i, s := range req.Splits {
		splits[i] = models.Split{UserID: s.UserID, Amount: s.Amount, Paid: s.Paid}
	}

	id, err := h.expenses.Create(r.Context(), middleware.GetUserID(r.Context()), service.CreateExpenseInput{
		Description:  req.Description,
		Amount:       req.Amount,
		Category:     req.Category,
		Date:         req.Date,
		PaidByUserID: req.PaidByUserID,
		SplitType:    req.SplitType,
		Splits:       splits,
		GroupID:      req.GroupID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"expenseId": id})
}

func (h *Handlers) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	err := h.expenses.Delete(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "expenseID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
