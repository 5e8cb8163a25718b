package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/delivery/internal/api/request"
	"github.com/edvin/delivery/internal/api/response"
	"github.com/edvin/delivery/internal/core"
	"github.com/edvin/delivery/internal/model"
)

// Process serves the deployment process lifecycle plus its nested phase,
// membership, and license collections.
type Process struct {
	processes  *core.ProcessService
	phases     *core.PhaseService
	membership *core.MembershipService
	licenses   *core.LicenseService
}

func NewProcess(processes *core.ProcessService, phases *core.PhaseService, membership *core.MembershipService, licenses *core.LicenseService) *Process {
	return &Process{processes: processes, phases: phases, membership: membership, licenses: licenses}
}

func (h *Process) List(w http.ResponseWriter, r *http.Request) {
	page := request.ParsePageable(r)
	procs, total, err := h.processes.List(r.Context(), page.Number, page.Size)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WritePage(w, http.StatusOK, procs, len(procs), page.Number, page.Size, total)
}

func (h *Process) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	var req request.CreateProcess
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	proc, err := h.processes.Create(r.Context(), req.CustomerID, req.SoftwareVersionID, req.ModuleVersionIDs, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, proc)
}

func (h *Process) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	proc, err := h.processes.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, proc)
}

func (h *Process) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.processes.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Process) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateProcessStatus
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	force := req.Force || r.URL.Query().Get("force") == "true"
	if err := h.processes.SetStatus(r.Context(), id, model.ProcessStatus(req.Status), force); err != nil {
		writeServiceError(w, err)
		return
	}

	proc, err := h.processes.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, proc)
}

// ---------- Members ----------

func (h *Process) ListMembers(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	users, err := h.membership.ProcessMembers(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, users)
}

func (h *Process) MemberOp(w http.ResponseWriter, r *http.Request) {
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
		err = h.membership.AddProcessMember(r.Context(), id, req.UserID)
	case "REMOVE":
		err = h.membership.RemoveProcessMember(r.Context(), id, req.UserID)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Process) MemberCandidates(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	users, err := h.membership.UnassignedCandidates(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, users)
}

// ---------- Phases ----------

func (h *Process) ListPhases(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	phases, err := h.phases.ListByProcess(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, phases)
}

func (h *Process) AddPhase(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.CreatePhase
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	phase, err := h.phases.Add(r.Context(), id, req.TypeID, req.NumOrder, req.PlannedStartDate, req.PlannedEndDate, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, phase)
}

func (h *Process) CurrentStep(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	phase, err := h.phases.CurrentStep(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if phase == nil {
		// All phases done.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	response.WriteJSON(w, http.StatusOK, phase)
}

func (h *Process) History(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.phases.HistoryByProcess(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, entries)
}

// ---------- Licenses ----------

func (h *Process) ListLicenses(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	page := request.ParsePageable(r)
	licenses, total, err := h.licenses.ListByProcess(r.Context(), id, page.Number, page.Size)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WritePage(w, http.StatusOK, licenses, len(licenses), page.Number, page.Size, total)
}

func (h *Process) CanIssueLicense(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := h.licenses.CanIssue(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]bool{"can_issue": ok})
}

func (h *Process) CreateLicense(w http.ResponseWriter, r *http.Request) {
	id, err := request.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	var req request.CreateLicense
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	license, err := h.licenses.Create(r.Context(), id, req.StartTimeMs, req.EndTimeMs, *req.ExpireAlertIntervalDay, req.Description, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, license)
}
