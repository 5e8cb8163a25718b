package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/delivery/internal/api/request"
	"github.com/edvin/delivery/internal/api/response"
	"github.com/edvin/delivery/internal/core"
)

// Document serves standalone document metadata plus its attachment ledger.
type Document struct {
	svc         *core.DocumentService
	attachments *core.AttachmentService
}

func NewDocument(svc *core.DocumentService, attachments *core.AttachmentService) *Document {
	return &Document{svc: svc, attachments: attachments}
}

func (h *Document) List(w http.ResponseWriter, r *http.Request) {
	page := request.ParsePageable(r)
	docs, total, err := h.svc.List(r.Context(), page.Number, page.Size)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WritePage(w, http.StatusOK, docs, len(docs), page.Number, page.Size, total)
}

func (h *Document) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := actorID(w, r)
	if !ok {
		return
	}

	var req request.CreateDocument
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.svc.Create(r.Context(), owner, req.Title, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, d)
}

func (h *Document) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, d)
}

func (h *Document) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.CreateDocument
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Update(r.Context(), id, req.Title, req.Description); err != nil {
		writeServiceError(w, err)
		return
	}

	d, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, d)
}

func (h *Document) Delete(w http.ResponseWriter, r *http.Request) {
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

// ---------- Attachments ----------

func (h *Document) AttachmentOp(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.AttachmentOp
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch req.Operator {
	case "ADD":
		err = h.attachments.Link(r.Context(), core.TargetDocument, id, req.FileID)
	case "REMOVE":
		err = h.attachments.Unlink(r.Context(), core.TargetDocument, id, req.FileID)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Document) ListAttachments(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	files, err := h.attachments.List(r.Context(), core.TargetDocument, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, files)
}
