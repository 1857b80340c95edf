package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/formrelay-api/internal/application/account"
	"github.com/formrelay-api/internal/domain"
	"github.com/formrelay-api/internal/pkg/validate"
	"github.com/formrelay-api/internal/transport/http/middleware"
)

// AccountHandler handles the authenticated profile endpoints.
type AccountHandler struct {
	svc account.Service
}

func NewAccountHandler(svc account.Service) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	a, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{Success: true, Profile: a.ToProfile()})
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Delete(r.Context(), a.AccountID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "User removed"})
}

func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	a, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.svc.UpdateProfile(r.Context(), a.AccountID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{Success: true, Profile: updated.ToProfile()})
}

func (h *AccountHandler) AddTargetEmail(w http.ResponseWriter, r *http.Request) {
	h.targetEmail(w, r, h.svc.AddTargetEmail)
}

func (h *AccountHandler) RemoveTargetEmail(w http.ResponseWriter, r *http.Request) {
	h.targetEmail(w, r, h.svc.RemoveTargetEmail)
}

func (h *AccountHandler) targetEmail(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, accountID, email string) (*domain.Account, error)) {
	a, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.TargetEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := op(r.Context(), a.AccountID, req.Email)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{Success: true, Profile: updated.ToProfile()})
}
