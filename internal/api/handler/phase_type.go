package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/delivery/internal/api/request"
	"github.com/edvin/delivery/internal/api/response"
	"github.com/edvin/delivery/internal/core"
)

// PhaseType serves the per-user phase type catalog. Every operation is scoped
// to the authenticated owner.
type PhaseType struct {
	svc *core.PhaseTypeService
}

func NewPhaseType(svc *core.PhaseTypeService) *PhaseType {
	return &PhaseType{svc: svc}
}

func (h *PhaseType) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := actorID(w, r)
	if !ok {
		return
	}

	page := request.ParsePageable(r)
	types, total, err := h.svc.ListByOwner(r.Context(), owner, page.Number, page.Size)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WritePage(w, http.StatusOK, types, len(types), page.Number, page.Size, total)
}

func (h *PhaseType) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := actorID(w, r)
	if !ok {
		return
	}

	var req request.CreatePhaseType
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.svc.Create(r.Context(), owner, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, t)
}

func (h *PhaseType) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := actorID(w, r)
	if !ok {
		return
	}

	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.svc.GetByID(r.Context(), id, owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, t)
}

func (h *PhaseType) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := actorID(w, r)
	if !ok {
		return
	}

	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.CreatePhaseType
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Update(r.Context(), id, owner, req.Name, req.Description); err != nil {
		writeServiceError(w, err)
		return
	}

	t, err := h.svc.GetByID(r.Context(), id, owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, t)
}

func (h *PhaseType) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := actorID(w, r)
	if !ok {
		return
	}

	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id, owner); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
