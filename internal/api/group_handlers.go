package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/equinex/backend/internal/middleware"
)

type createGroupRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	MemberIDs   []string `json:"memberIds"`
}

type addMembersRequest struct {
	MemberIDs []string `json:"memberIds" validate:"required,min=1"`
}

type transferAdminRequest struct {
	NewAdminID string `json:"newAdminId" validate:"required"`
}

type leaveGroupRequest struct {
	NewAdminID string `json:"newAdminId"`
}

func (h *Handlers) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := h.decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	group, err := h.groups.Create(r.Context(), middleware.GetUserID(r.Context()), req.Name, req.Description, req.MemberIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (h *Handlers) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, members, err := h.groups.Get(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"group": group, "members": members})
}

func (h *Handlers) handleAddMembers(w http.ResponseWriter, r *http.Request) {
	var req addMembersRequest
	if err := h.decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	added, err := h.groups.AddMembers(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "groupID"), req.MemberIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"addedCount": added})
}

func (h *Handlers) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	err := h.groups.RemoveMember(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "groupID"), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) handleTransferAdmin(w http.ResponseWriter, r *http.Request) {
	var req transferAdminRequest
	if err := h.decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	err := h.groups.TransferAdmin(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "groupID"), req.NewAdminID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) handleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	// The body is optional: only a departing admin needs to name a successor.
	var req leaveGroupRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	err := h.groups.Leave(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "groupID"), req.NewAdminID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	err := h.groups.Delete(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) handleGroupActivity(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.groups.ActivityLog(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "groupID"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
