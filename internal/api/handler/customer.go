package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/delivery/internal/api/request"
	"github.com/edvin/delivery/internal/api/response"
	"github.com/edvin/delivery/internal/core"
)

type Customer struct {
	svc *core.CustomerService
}

func NewCustomer(svc *core.CustomerService) *Customer {
	return &Customer{svc: svc}
}

func (h *Customer) List(w http.ResponseWriter, r *http.Request) {
	page := request.ParsePageable(r)
	customers, total, err := h.svc.List(r.Context(), page.Number, page.Size)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WritePage(w, http.StatusOK, customers, len(customers), page.Number, page.Size, total)
}

func (h *Customer) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateCustomer
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.svc.Create(r.Context(), req.Name, req.ContactEmail)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, c)
}

func (h *Customer) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, c)
}

func (h *Customer) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.CreateCustomer
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Update(r.Context(), id, req.Name, req.ContactEmail); err != nil {
		writeServiceError(w, err)
		return
	}

	c, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, c)
}

func (h *Customer) Delete(w http.ResponseWriter, r *http.Request) {
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
