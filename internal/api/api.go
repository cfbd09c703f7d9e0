// Package api is the JSON/HTTP transport over the services. Handlers
// decode and validate requests, resolve the caller from the auth
// middleware, call one service operation and map its error kind to a
// status code. No business rules live here.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/equinex/backend/internal/service"
)

// Handlers bundles the services behind the HTTP surface.
type Handlers struct {
	auth        *service.AuthService
	users       *service.UserService
	balances    *service.BalanceService
	expenses    *service.ExpenseService
	settlements *service.SettlementService
	groups      *service.GroupService
	validate    *validator.Validate
}

// NewHandlers creates the handler set over the given services.
func NewHandlers(
	auth *service.AuthService,
	users *service.UserService,
	balances *service.BalanceService,
	expenses *service.ExpenseService,
	settlements *service.SettlementService,
	groups *service.GroupService,
) *Handlers {
	return &Handlers{
		auth:        auth,
		users:       users,
		balances:    balances,
		expenses:    expenses,
		settlements: settlements,
		groups:      groups,
		validate:    validator.New(),
	}
}

// decode reads the JSON body into dst and runs struct validation.
func (h *Handlers) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	if err := h.validate.Struct(dst); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

// writeError maps a service error kind to its HTTP status. Internal
// errors are logged and masked; the other kinds carry user-facing
// messages by construction.
func writeError(w http.ResponseWriter, err error) {
	var status int
	msg := err.Error()

	switch service.KindOf(err) {
	case service.KindValidation:
		status = http.StatusBadRequest
	case service.KindUnauthorized:
		status = http.StatusForbidden
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindConflict:
		status = http.StatusConflict
	default:
		slog.Error("internal error", "error", err)
		status = http.StatusInternalServerError
		msg = "internal server error"
	}

	writeJSON(w, status, map[string]string{"error": msg})
}
