package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/delivery/internal/api/request"
	"github.com/edvin/delivery/internal/api/response"
	"github.com/edvin/delivery/internal/core"
	"github.com/edvin/delivery/internal/model"
)

type APIKey struct {
	svc *core.APIKeyService
}

func NewAPIKey(svc *core.APIKeyService) *APIKey {
	return &APIKey{svc: svc}
}

func (h *APIKey) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, keys)
}

func (h *APIKey) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAPIKey
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, rawKey, err := h.svc.Create(r.Context(), req.UserID, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// The raw key appears exactly once, in this response.
	response.WriteJSON(w, http.StatusCreated, struct {
		*model.APIKey
		Key string `json:"key"`
	}{key, rawKey})
}

func (h *APIKey) Revoke(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Revoke(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
