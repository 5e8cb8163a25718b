package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/delivery/internal/api/request"
	"github.com/edvin/delivery/internal/api/response"
	"github.com/edvin/delivery/internal/core"
)

// maxUploadBytes caps one complete-phase request body (32 MiB).
const maxUploadBytes = 32 << 20

// Phase serves single-phase operations: dates, start/complete, membership,
// and the attachment ledger.
type Phase struct {
	phases      *core.PhaseService
	membership  *core.MembershipService
	attachments *core.AttachmentService
}

func NewPhase(phases *core.PhaseService, membership *core.MembershipService, attachments *core.AttachmentService) *Phase {
	return &Phase{phases: phases, membership: membership, attachments: attachments}
}

func (h *Phase) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	phase, err := h.phases.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, phase)
}

func (h *Phase) UpdateDates(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdatePhaseDates
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.phases.UpdatePlannedDates(r.Context(), id, req.PlannedStartDate, req.PlannedEndDate); err != nil {
		writeServiceError(w, err)
		return
	}

	phase, err := h.phases.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, phase)
}

func (h *Phase) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.phases.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Phase) Start(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	phase, err := h.phases.Start(r.Context(), id, actor)
	if err != nil && !core.IsPartialFailure(err) {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, phase)
}

// Complete closes out a phase. The request is either JSON referencing
// already-stored file ids, or multipart/form-data carrying the evidence files
// inline next to the form fields.
func (h *Phase) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	var description string
	var uploads []core.EvidenceFile
	var attachmentIDs []int64

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			response.WriteError(w, http.StatusBadRequest, "invalid multipart body: "+err.Error())
			return
		}
		description = r.FormValue("description")
		for _, s := range r.MultipartForm.Value["attachment_ids"] {
			fid, err := strconv.ParseInt(s, 10, 64)
			if err != nil || fid <= 0 {
				response.WriteError(w, http.StatusBadRequest, "invalid attachment id "+s)
				return
			}
			attachmentIDs = append(attachmentIDs, fid)
		}
		for _, fh := range r.MultipartForm.File["files"] {
			f, err := fh.Open()
			if err != nil {
				response.WriteError(w, http.StatusBadRequest, "read upload "+fh.Filename+": "+err.Error())
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				response.WriteError(w, http.StatusBadRequest, "read upload "+fh.Filename+": "+err.Error())
				return
			}
			uploads = append(uploads, core.EvidenceFile{
				Name:     fh.Filename,
				MimeType: fh.Header.Get("Content-Type"),
				Data:     data,
			})
		}
	} else {
		var req request.CompletePhase
		if err := request.Decode(r, &req); err != nil {
			response.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		description = req.Description
		attachmentIDs = req.AttachmentIDs
	}

	result, err := h.phases.Complete(r.Context(), id, actor, description, uploads, attachmentIDs)
	if err != nil && !core.IsPartialFailure(err) {
		writeServiceError(w, err)
		return
	}

	// Partial failures still return the result; files_linked vs files_total
	// tells the caller what to retry.
	body := map[string]any{"result": result}
	if err != nil {
		body["partial_error"] = err.Error()
	}
	response.WriteJSON(w, http.StatusOK, body)
}

// ---------- Members ----------

func (h *Phase) MemberOp(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.MemberOp
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch req.Operator {
	case "ADD":
		err = h.membership.AddPhaseMember(r.Context(), id, req.UserID)
	case "REMOVE":
		err = h.membership.RemovePhaseMember(r.Context(), id, req.UserID)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Phase) ListMembers(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	users, err := h.membership.PhaseMembers(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, users)
}

func (h *Phase) MemberCandidates(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	phase, err := h.phases.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	users, err := h.membership.UnassignedPhaseCandidates(r.Context(), phase.ProcessID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, users)
}

// ---------- Attachments ----------

func (h *Phase) AttachmentOp(w http.ResponseWriter, r *http.Request) {
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
		err = h.attachments.Link(r.Context(), core.TargetPhase, id, req.FileID)
	case "REMOVE":
		err = h.attachments.Unlink(r.Context(), core.TargetPhase, id, req.FileID)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Phase) ListAttachments(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	files, err := h.attachments.List(r.Context(), core.TargetPhase, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, files)
}

func (h *Phase) History(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.phases.History(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, entries)
}
