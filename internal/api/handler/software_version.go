package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/delivery/internal/api/request"
	"github.com/edvin/delivery/internal/api/response"
	"github.com/edvin/delivery/internal/core"
)

type SoftwareVersion struct {
	svc *core.SoftwareVersionService
}

func NewSoftwareVersion(svc *core.SoftwareVersionService) *SoftwareVersion {
	return &SoftwareVersion{svc: svc}
}

func (h *SoftwareVersion) List(w http.ResponseWriter, r *http.Request) {
	page := request.ParsePageable(r)
	versions, total, err := h.svc.List(r.Context(), page.Number, page.Size)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WritePage(w, http.StatusOK, versions, len(versions), page.Number, page.Size, total)
}

func (h *SoftwareVersion) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSoftwareVersion
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sv, err := h.svc.Create(r.Context(), req.Name, req.Version)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, sv)
}

func (h *SoftwareVersion) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sv, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, sv)
}

func (h *SoftwareVersion) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ---------- Module versions ----------

func (h *SoftwareVersion) ListModules(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	modules, err := h.svc.ListModuleVersions(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, modules)
}

func (h *SoftwareVersion) AddModule(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.CreateModuleVersion
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	mv, err := h.svc.AddModuleVersion(r.Context(), id, req.Name, req.Version)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, mv)
}
