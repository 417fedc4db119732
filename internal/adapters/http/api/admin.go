package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/hackreg/internal/app"
	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/model"
	"github.com/okian/hackreg/pkg/logger"
)

// AdminHandler serves administrator views and mutations.
type AdminHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps Dependencies, log logger.Logger) *AdminHandler {
	return &AdminHandler{deps: deps, logger: log}
}

// HandleOverview handles GET /api/admin/overview.
func (h *AdminHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	stats, err := h.deps.ApplicationStatistics(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "api.admin_overview", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleStatistics handles GET /api/admin/statistics.
func (h *AdminHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.GeneralStatistics(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "api.admin_statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleStatisticsExport handles GET /api/admin/statistics.xlsx.
func (h *AdminHandler) HandleStatisticsExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_statistics_export"
	entries, err := h.deps.GeneralStatistics(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	data, err := statisticsWorkbook(entries)
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="statistics.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleApplicants handles GET /api/admin/applicants?branch=&accepted=.
func (h *AdminHandler) HandleApplicants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.deps.Applicants(r.Context(), service.ApplicantFilter{
		Branch:   q.Get("branch"),
		Accepted: q.Get("accepted"),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, "api.admin_applicants", err)
		return
	}
	if users == nil {
		users = []*model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleUserStatus handles POST /api/user/{id}/status. The status is read
// from a JSON body or a "status" form field.
func (h *AdminHandler) HandleUserStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.user_status"
	var req statusRequest
	if isJSON(r) {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		req.Status = r.FormValue("status")
	}
	accepted, err := strconv.ParseBool(strings.TrimSpace(req.Status))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: status must be true or false", ErrBadRequest))
		return
	}
	u, err := h.deps.SetAccepted(r.Context(), chi.URLParam(r, "id"), accepted)
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type confirmationBranchRequest struct {
	Branch   string          `json:"branch"`
	Deadline *model.Deadline `json:"deadline,omitempty"`
}

// HandleConfirmationBranch handles PUT /api/user/{id}/confirmation_branch.
func (h *AdminHandler) HandleConfirmationBranch(w http.ResponseWriter, r *http.Request) {
	var req confirmationBranchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	u, err := h.deps.AssignConfirmationBranch(r.Context(), chi.URLParam(r, "id"), req.Branch, req.Deadline)
	if err != nil {
		writeServiceError(w, r, h.logger, "api.user_confirmation_branch", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type branchResponse struct {
	Name string      `json:"name"`
	Kind branch.Kind `json:"kind"`
	branch.Schedule
	Questions int  `json:"questions"`
	IsOpen    bool `json:"isOpen"`
}

func newBranchResponse(b branch.Branch, now time.Time) branchResponse {
	br := branchResponse{
		Name:      b.Common().Name,
		Kind:      b.Kind(),
		Schedule:  branch.ScheduleOf(b),
		Questions: len(b.Common().Questions),
	}
	switch v := b.(type) {
	case *branch.ApplicationBranch:
		br.IsOpen = v.IsOpen(now)
	case *branch.ConfirmationBranch:
		br.IsOpen = v.IsOpen(now)
	}
	return br
}

type settingsResponse struct {
	model.Settings
	Branches []branchResponse `json:"branches"`
	Admins   []string         `json:"admins"`
}

// HandleGetSettings handles GET /api/settings.
func (h *AdminHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_settings"
	st, err := h.deps.Settings(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	set, err := h.deps.Branches(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	now := h.deps.Now()
	resp := settingsResponse{Settings: st, Admins: h.deps.AdminEmails()}
	for _, b := range set.All() {
		resp.Branches = append(resp.Branches, newBranchResponse(b, now))
	}
	writeJSON(w, http.StatusOK, resp)
}

type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

func readToggle(w http.ResponseWriter, r *http.Request) (bool, error) {
	if isJSON(r) {
		var req toggleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return false, err
		}
		return req.Enabled, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	enabled, err := strconv.ParseBool(r.FormValue("enabled"))
	if err != nil {
		return false, fmt.Errorf("%w: enabled must be true or false", ErrBadRequest)
	}
	return enabled, nil
}

// HandleTeamsEnabled handles PUT /api/settings/teams_enabled.
func (h *AdminHandler) HandleTeamsEnabled(w http.ResponseWriter, r *http.Request) {
	enabled, err := readToggle(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	st, err := h.deps.SetTeamsEnabled(r.Context(), enabled)
	if err != nil {
		writeServiceError(w, r, h.logger, "api.teams_enabled", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleQREnabled handles PUT /api/settings/qr_enabled.
func (h *AdminHandler) HandleQREnabled(w http.ResponseWriter, r *http.Request) {
	enabled, err := readToggle(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	st, err := h.deps.SetQREnabled(r.Context(), enabled)
	if err != nil {
		writeServiceError(w, r, h.logger, "api.qr_enabled", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleBranchSchedule handles PUT /api/settings/branches/{branch}.
func (h *AdminHandler) HandleBranchSchedule(w http.ResponseWriter, r *http.Request) {
	var sch branch.Schedule
	if err := decodeJSON(w, r, &sch); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	b, err := h.deps.UpdateSchedule(r.Context(), chi.URLParam(r, "branch"), sch)
	if err != nil {
		writeServiceError(w, r, h.logger, "api.branch_schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, newBranchResponse(b, h.deps.Now()))
}
