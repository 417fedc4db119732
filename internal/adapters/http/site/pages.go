package site

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/hackreg/internal/adapters/http/api"
	service "github.com/okian/hackreg/internal/app"
	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/form"
	"github.com/okian/hackreg/internal/domain/model"
	"github.com/okian/hackreg/internal/domain/statistics"
	"github.com/okian/hackreg/pkg/logger"
)

const maxFormBytes = 1 << 20

func currentUser(r *http.Request) *model.User {
	u, _ := api.UserFromContext(r.Context())
	return u
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := api.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", "Sign in", nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	u, err := s.deps.Login(r.Context(), r.FormValue("email"), r.FormValue("name"), s.auth.VerifyKey(r.FormValue("admin_key")))
	if err != nil {
		status, _ := api.StatusFor(err)
		if status >= http.StatusInternalServerError {
			s.renderError(w, r, err)
			return
		}
		s.render(w, r, status, "login.html", "Sign in", errorData{Status: status, Message: err.Error()})
		return
	}
	if err := s.auth.Sessions().Issue(w, u.ID); err != nil {
		s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Sessions().Clear(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type indexData struct {
	*service.DashboardView
	MaxTeamSize int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Dashboard(r.Context(), currentUser(r))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "index.html", "Dashboard", indexData{DashboardView: view, MaxTeamSize: s.deps.MaxTeamSize()})
}

type chooseData struct {
	Action   string
	Heading  string
	Branches []string
}

// chooseOrRedirect skips the chooser when there is exactly one branch.
func (s *Server) chooseOrRedirect(w http.ResponseWriter, r *http.Request, d chooseData) {
	switch len(d.Branches) {
	case 0:
		if d.Action == "confirm" {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
	case 1:
		http.Redirect(w, r, "/"+d.Action+"/"+url.PathEscape(d.Branches[0]), http.StatusFound)
		return
	}
	s.render(w, r, http.StatusOK, "choose.html", d.Heading, d)
}

func (s *Server) handleApplyChoices(w http.ResponseWriter, r *http.Request) {
	names, err := s.deps.ApplicationChoices(r.Context(), currentUser(r))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.chooseOrRedirect(w, r, chooseData{Action: "apply", Heading: "Choose an application type", Branches: names})
}

func (s *Server) handleConfirmChoices(w http.ResponseWriter, r *http.Request) {
	names := s.deps.ConfirmationChoices(r.Context(), currentUser(r))
	s.chooseOrRedirect(w, r, chooseData{Action: "confirm", Heading: "Confirm your attendance", Branches: names})
}

type formData struct {
	Action    string
	View      *service.FormView
	Anonymous bool
	Email     string
	Message   string
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, d formData) {
	title := d.View.Branch
	if d.Anonymous {
		title = "Register for " + d.View.Branch
	}
	s.render(w, r, status, "form.html", title, d)
}

func (d formData) errorMessage() string { return d.Message }

func (s *Server) handleApplyForm(w http.ResponseWriter, r *http.Request) {
	v, err := s.deps.ApplicationForm(r.Context(), currentUser(r), chi.URLParam(r, "branch"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.renderForm(w, r, http.StatusOK, formData{Action: "/apply/" + url.PathEscape(v.Branch), View: v})
}

func (s *Server) handleConfirmForm(w http.ResponseWriter, r *http.Request) {
	v, err := s.deps.ConfirmationForm(r.Context(), currentUser(r), chi.URLParam(r, "branch"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.renderForm(w, r, http.StatusOK, formData{Action: "/confirm/" + url.PathEscape(v.Branch), View: v})
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	v, err := s.deps.AnonymousForm(r.Context(), currentUser(r), chi.URLParam(r, "branch"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.renderForm(w, r, http.StatusOK, formData{Action: "/register/" + url.PathEscape(v.Branch), View: v, Anonymous: true})
}

// postedItems decodes the submitted form against the definition of the
// named branch.
func (s *Server) postedItems(w http.ResponseWriter, r *http.Request, name string) (branch.Base, []model.FormItem, error) {
	set, err := s.deps.Branches(r.Context())
	if err != nil {
		return branch.Base{}, nil, err
	}
	b, ok := set.Find(name)
	if !ok {
		return branch.Base{}, nil, fmt.Errorf("%w: %s", service.ErrBranchNotFound, name)
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return branch.Base{}, nil, fmt.Errorf("%w: %v", api.ErrBadRequest, err)
	}
	def := b.Common()
	return def, form.FromValues(def, r.PostForm), nil
}

func isValidationError(err error) bool {
	return errors.Is(err, form.ErrInvalidAnswer) ||
		errors.Is(err, form.ErrMissingAnswer) ||
		errors.Is(err, form.ErrUnknownQuestion) ||
		errors.Is(err, api.ErrBadRequest)
}

// resubmit re-renders the form with the posted answers and the error.
func (s *Server) resubmit(w http.ResponseWriter, r *http.Request, d formData, def branch.Base, items []model.FormItem, err error) {
	f, buildErr := form.Build(def, items, form.NewRenderer())
	if buildErr != nil {
		s.renderError(w, r, buildErr)
		return
	}
	d.View.Form = f
	d.Message = err.Error()
	s.renderForm(w, r, http.StatusBadRequest, d)
}

func (s *Server) handleApplySubmit(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	name := chi.URLParam(r, "branch")
	def, items, err := s.postedItems(w, r, name)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if _, err := s.deps.SubmitApplication(r.Context(), u.ID, name, items); err != nil {
		if isValidationError(err) {
			d := formData{Action: "/apply/" + url.PathEscape(def.Name), View: &service.FormView{Kind: branch.KindApplication, Branch: def.Name}}
			s.resubmit(w, r, d, def, items, err)
			return
		}
		s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleConfirmSubmit(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	name := chi.URLParam(r, "branch")
	def, items, err := s.postedItems(w, r, name)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if _, err := s.deps.SubmitConfirmation(r.Context(), u.ID, name, items); err != nil {
		if isValidationError(err) {
			d := formData{Action: "/confirm/" + url.PathEscape(def.Name), View: &service.FormView{Kind: branch.KindConfirmation, Branch: def.Name}}
			s.resubmit(w, r, d, def, items, err)
			return
		}
		s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	admin := currentUser(r)
	name := chi.URLParam(r, "branch")
	def, items, err := s.postedItems(w, r, name)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("registrant-email"))
	created, err := s.deps.RegisterAnonymous(r.Context(), admin, name, email, items)
	if err != nil {
		if isValidationError(err) {
			d := formData{
				Action:    "/register/" + url.PathEscape(def.Name),
				View:      &service.FormView{Kind: branch.KindApplication, Branch: def.Name, Anonymous: true},
				Anonymous: true,
				Email:     email,
			}
			s.resubmit(w, r, d, def, items, err)
			return
		}
		s.renderError(w, r, err)
		return
	}
	s.logger.Info(r.Context(), "walk-in registered", logger.String("user", created.ID))
	http.Redirect(w, r, "/register/"+url.PathEscape(def.Name), http.StatusSeeOther)
}

type adminData struct {
	Stats       *service.ApplicationStatistics
	General     []statistics.Entry
	Applicants  []*model.User
	Filter      service.ApplicantFilter
	Settings    model.Settings
	Branches    []adminBranch
	AppBranches []string
	Admins      []string
	MaxTeamSize int
}

type adminBranch struct {
	Name     string
	Kind     branch.Kind
	Schedule branch.Schedule
	IsOpen   bool
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	d := adminData{
		Filter:      service.ApplicantFilter{Branch: q.Get("branch"), Accepted: q.Get("accepted")},
		Admins:      s.deps.AdminEmails(),
		MaxTeamSize: s.deps.MaxTeamSize(),
	}
	var err error
	if d.Stats, err = s.deps.ApplicationStatistics(ctx); err != nil {
		s.renderError(w, r, err)
		return
	}
	if d.General, err = s.deps.GeneralStatistics(ctx); err != nil {
		s.renderError(w, r, err)
		return
	}
	if d.Applicants, err = s.deps.Applicants(ctx, d.Filter); err != nil {
		s.renderError(w, r, err)
		return
	}
	if d.Settings, err = s.deps.Settings(ctx); err != nil {
		s.renderError(w, r, err)
		return
	}
	set, err := s.deps.Branches(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	now := s.deps.Now()
	for _, b := range set.All() {
		ab := adminBranch{Name: b.Common().Name, Kind: b.Kind(), Schedule: branch.ScheduleOf(b)}
		switch v := b.(type) {
		case *branch.ApplicationBranch:
			ab.IsOpen = v.IsOpen(now)
			d.AppBranches = append(d.AppBranches, v.Name)
		case *branch.ConfirmationBranch:
			ab.IsOpen = v.IsOpen(now)
		}
		d.Branches = append(d.Branches, ab)
	}
	s.render(w, r, http.StatusOK, "admin.html", "Admin", d)
}
