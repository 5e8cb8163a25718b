package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/delivery/internal/api/request"
	"github.com/edvin/delivery/internal/api/response"
	"github.com/edvin/delivery/internal/core"
)

// License serves single-license reads and edits. Issuance lives under the
// owning process.
type License struct {
	svc *core.LicenseService
}

func NewLicense(svc *core.LicenseService) *License {
	return &License{svc: svc}
}

func (h *License) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	license, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, license)
}

func (h *License) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateLicense
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Update(r.Context(), id, req.Description, req.ExpireAlertIntervalDay); err != nil {
		writeServiceError(w, err)
		return
	}

	license, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, license)
}

func (h *License) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.svc.Detail(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, detail)
}

// ListExpiring returns every license whose alert window has opened.
func (h *License) ListExpiring(w http.ResponseWriter, r *http.Request) {
	licenses, err := h.svc.ListExpiring(r.Context(), time.Now().UnixMilli())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, licenses)
}
