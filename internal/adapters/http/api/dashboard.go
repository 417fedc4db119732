package api

import (
	"net/http"

	"github.com/okian/hackreg/pkg/logger"
)

// SessionHandler handles sign in, sign out and the per-user dashboard.
type SessionHandler struct {
	deps     Dependencies
	auth     *Authenticator
	sessions *Sessions
	logger   logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps Dependencies, auth *Authenticator, log logger.Logger) *SessionHandler {
	return &SessionHandler{deps: deps, auth: auth, sessions: auth.Sessions(), logger: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	AdminKey string `json:"adminKey,omitempty"`
}

// HandleLogin handles POST /api/session.
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "api.login"
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	u, err := h.deps.Login(r.Context(), req.Email, req.Name, h.auth.VerifyKey(req.AdminKey))
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	if err := h.sessions.Issue(w, u.ID); err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// HandleLogout handles DELETE /api/session.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, _ *http.Request) {
	h.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleCurrent handles GET /api/session.
func (h *SessionHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, u)
}

// HandleDashboard handles GET /api/dashboard.
func (h *SessionHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	view, err := h.deps.Dashboard(r.Context(), u)
	if err != nil {
		writeServiceError(w, r, h.logger, "api.dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
