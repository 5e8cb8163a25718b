package handler

import (
	"errors"
	"net/http"

	mw "github.com/edvin/delivery/internal/api/middleware"
	"github.com/edvin/delivery/internal/api/response"
	"github.com/edvin/delivery/internal/core"
)

// actorID resolves the authenticated user from the request context. A false
// return means the error response was already written.
func actorID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	identity := mw.GetIdentity(r.Context())
	if identity == nil {
		response.WriteError(w, http.StatusUnauthorized, "no authenticated user")
		return 0, false
	}
	return identity.UserID, true
}

// writeServiceError maps core error types onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case core.IsValidation(err):
		response.WriteError(w, http.StatusBadRequest, err.Error())
	case core.IsConstraint(err):
		response.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrNotFound):
		response.WriteError(w, http.StatusNotFound, err.Error())
	default:
		response.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
