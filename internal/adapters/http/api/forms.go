package api

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/hackreg/internal/app"
	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/model"
	"github.com/okian/hackreg/pkg/logger"
)

// FormHandler serves application, confirmation and anonymous registration
// forms as JSON.
type FormHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewFormHandler creates a new form handler.
func NewFormHandler(deps Dependencies, log logger.Logger) *FormHandler {
	return &FormHandler{deps: deps, logger: log}
}

type choicesResponse struct {
	Branches []string `json:"branches"`
}

type fieldResponse struct {
	branch.Question
	Value      model.Answer `json:"value"`
	OtherValue string       `json:"otherValue,omitempty"`
	Text       string       `json:"text,omitempty"`
}

type formResponse struct {
	Kind      branch.Kind     `json:"kind"`
	Branch    string          `json:"branch"`
	Anonymous bool            `json:"anonymous"`
	Fields    []fieldResponse `json:"fields"`
	EndText   string          `json:"endText,omitempty"`
}

func newFormResponse(v *service.FormView, saved []model.FormItem) formResponse {
	out := formResponse{
		Kind:      v.Kind,
		Branch:    v.Branch,
		Anonymous: v.Anonymous,
		Fields:    make([]fieldResponse, 0, len(v.Form.Fields)),
		EndText:   string(v.Form.EndText),
	}
	for _, f := range v.Form.Fields {
		fr := fieldResponse{Question: f.Question, OtherValue: f.OtherValue, Text: string(f.TextContent)}
		if item, ok := model.FindItem(saved, f.Question.Name); ok {
			fr.Value = item.Value
		}
		out.Fields = append(out.Fields, fr)
	}
	return out
}

type submitRequest struct {
	Email   string                  `json:"email,omitempty"`
	Answers map[string]model.Answer `json:"answers"`
}

func (s submitRequest) items() []model.FormItem {
	names := make([]string, 0, len(s.Answers))
	for name := range s.Answers {
		names = append(names, name)
	}
	sort.Strings(names)
	items := make([]model.FormItem, 0, len(names))
	for _, name := range names {
		items = append(items, model.FormItem{Name: name, Value: s.Answers[name]})
	}
	return items
}

// HandleApplicationChoices handles GET /api/application.
func (h *FormHandler) HandleApplicationChoices(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	names, err := h.deps.ApplicationChoices(r.Context(), u)
	if err != nil {
		writeServiceError(w, r, h.logger, "api.application_choices", err)
		return
	}
	writeJSON(w, http.StatusOK, choicesResponse{Branches: names})
}

// HandleConfirmationChoices handles GET /api/confirmation.
func (h *FormHandler) HandleConfirmationChoices(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	names := h.deps.ConfirmationChoices(r.Context(), u)
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, choicesResponse{Branches: names})
}

// HandleGetApplication handles GET /api/application/{branch}.
func (h *FormHandler) HandleGetApplication(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	v, err := h.deps.ApplicationForm(r.Context(), u, chi.URLParam(r, "branch"))
	if err != nil {
		writeServiceError(w, r, h.logger, "api.get_application", err)
		return
	}
	var saved []model.FormItem
	if u.ApplicationBranch == v.Branch {
		saved = u.ApplicationData
	}
	writeJSON(w, http.StatusOK, newFormResponse(v, saved))
}

// HandlePostApplication handles POST /api/application/{branch}.
func (h *FormHandler) HandlePostApplication(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_application"
	u, _ := UserFromContext(r.Context())
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	saved, err := h.deps.SubmitApplication(r.Context(), u.ID, chi.URLParam(r, "branch"), req.items())
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// HandleGetConfirmation handles GET /api/confirmation/{branch}.
func (h *FormHandler) HandleGetConfirmation(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	v, err := h.deps.ConfirmationForm(r.Context(), u, chi.URLParam(r, "branch"))
	if err != nil {
		writeServiceError(w, r, h.logger, "api.get_confirmation", err)
		return
	}
	writeJSON(w, http.StatusOK, newFormResponse(v, u.ConfirmationData))
}

// HandlePostConfirmation handles POST /api/confirmation/{branch}.
func (h *FormHandler) HandlePostConfirmation(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_confirmation"
	u, _ := UserFromContext(r.Context())
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	saved, err := h.deps.SubmitConfirmation(r.Context(), u.ID, chi.URLParam(r, "branch"), req.items())
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// HandleGetAnonymous handles GET /api/register/{branch}.
func (h *FormHandler) HandleGetAnonymous(w http.ResponseWriter, r *http.Request) {
	admin, _ := UserFromContext(r.Context())
	v, err := h.deps.AnonymousForm(r.Context(), admin, chi.URLParam(r, "branch"))
	if err != nil {
		writeServiceError(w, r, h.logger, "api.get_register", err)
		return
	}
	writeJSON(w, http.StatusOK, newFormResponse(v, nil))
}

// HandlePostAnonymous handles POST /api/register/{branch}.
func (h *FormHandler) HandlePostAnonymous(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_register"
	admin, _ := UserFromContext(r.Context())
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	created, err := h.deps.RegisterAnonymous(r.Context(), admin, chi.URLParam(r, "branch"), req.Email, req.items())
	if err != nil {
		writeServiceError(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
