package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/delivery/internal/api/request"
	"github.com/edvin/delivery/internal/api/response"
	"github.com/edvin/delivery/internal/core"
)

type User struct {
	svc *core.UserService
}

func NewUser(svc *core.UserService) *User {
	return &User{svc: svc}
}

func (h *User) List(w http.ResponseWriter, r *http.Request) {
	page := request.ParsePageable(r)
	users, total, err := h.svc.List(r.Context(), page.Number, page.Size)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WritePage(w, http.StatusOK, users, len(users), page.Number, page.Size, total)
}

func (h *User) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateUser
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.svc.Create(r.Context(), req.Name, req.Email, req.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, u)
}

func (h *User) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, u)
}

// ListDeploymentPersons backs the membership candidate pickers.
func (h *User) ListDeploymentPersons(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListDeploymentPersons(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, users)
}
