// Package site renders the HTML registration site: dashboard, forms and the
// admin console.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"

	"github.com/okian/hackreg/internal/adapters/http/api"
	service "github.com/okian/hackreg/internal/app"
	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/model"
	"github.com/okian/hackreg/internal/domain/statistics"
	"github.com/okian/hackreg/pkg/logger"
)

// Error constants
var (
	ErrTemplate = errors.New("site template failed")
	ErrServe    = errors.New("site serve failed")
)

// Dependencies are the service operations the site renders.
type Dependencies interface {
	Login(ctx context.Context, email, name string, keyVerified bool) (*model.User, error)
	Dashboard(ctx context.Context, u *model.User) (*service.DashboardView, error)
	Branches(ctx context.Context) (*branch.Set, error)

	ApplicationChoices(ctx context.Context, u *model.User) ([]string, error)
	ConfirmationChoices(ctx context.Context, u *model.User) []string
	ApplicationForm(ctx context.Context, u *model.User, name string) (*service.FormView, error)
	ConfirmationForm(ctx context.Context, u *model.User, name string) (*service.FormView, error)
	AnonymousForm(ctx context.Context, admin *model.User, name string) (*service.FormView, error)
	SubmitApplication(ctx context.Context, userID, name string, items []model.FormItem) (*model.User, error)
	SubmitConfirmation(ctx context.Context, userID, name string, items []model.FormItem) (*model.User, error)
	RegisterAnonymous(ctx context.Context, admin *model.User, name, email string, items []model.FormItem) (*model.User, error)

	ApplicationStatistics(ctx context.Context) (*service.ApplicationStatistics, error)
	GeneralStatistics(ctx context.Context) ([]statistics.Entry, error)
	Applicants(ctx context.Context, f service.ApplicantFilter) ([]*model.User, error)
	Settings(ctx context.Context) (model.Settings, error)
	AdminEmails() []string
	MaxTeamSize() int
	Now() time.Time
}

var pages = []string{
	"login.html",
	"index.html",
	"choose.html",
	"form.html",
	"admin.html",
	"unsupported.html",
	"error.html",
}

// Server renders the site.
type Server struct {
	deps      Dependencies
	auth      *api.Authenticator
	logger    logger.Logger
	eventName string
	location  *time.Location
	csrfKey   []byte
	csrfOpts  []csrf.Option
	templates map[string]*template.Template
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEventName sets the title shown on every page.
func WithEventName(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.eventName = name
		}
	}
}

// WithLocation sets the time zone of admin date inputs.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithCSRF sets the 32-byte CSRF key and whether the token cookie is
// restricted to HTTPS.
func WithCSRF(key []byte, secure bool) Option {
	return func(s *Server) {
		s.csrfKey = key
		s.csrfOpts = []csrf.Option{csrf.Secure(secure), csrf.Path("/")}
	}
}

// New parses the embedded templates.
func New(deps Dependencies, auth *api.Authenticator, opts ...Option) (*Server, error) {
	s := &Server{
		deps:      deps,
		auth:      auth,
		eventName: "HackGT",
		location:  time.UTC,
		csrfOpts:  []csrf.Option{csrf.Path("/")},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("site")
	}
	if len(s.csrfKey) != 32 {
		return nil, fmt.Errorf("%w: csrf key must be 32 bytes", ErrTemplate)
	}

	s.templates = make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New(page).Funcs(s.funcs()).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTemplate, page, err)
		}
		s.templates[page] = t
	}
	return s, nil
}

// Register attaches the site routes to r. The authenticator middleware
// must already be installed on r.
func (s *Server) Register(r chi.Router) {
	if r == nil {
		panic("router is nil")
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(FS())))

	r.Group(func(r chi.Router) {
		r.Use(s.UnsupportedBrowser)
		r.Use(csrf.Protect(s.csrfKey, s.csrfOpts...))

		r.Get("/login", api.MetricsMiddleware(s.handleLoginPage, "site_login"))
		r.Post("/login", api.MetricsMiddleware(s.handleLogin, "site_login"))
		r.Post("/logout", api.MetricsMiddleware(s.handleLogout, "site_logout"))

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Get("/", api.MetricsMiddleware(s.handleIndex, "site_index"))
			r.Get("/apply", api.MetricsMiddleware(s.handleApplyChoices, "site_apply"))
			r.Get("/apply/{branch}", api.MetricsMiddleware(s.handleApplyForm, "site_apply"))
			r.Post("/apply/{branch}", api.MetricsMiddleware(s.handleApplySubmit, "site_apply"))
			r.Get("/confirm", api.MetricsMiddleware(s.handleConfirmChoices, "site_confirm"))
			r.Get("/confirm/{branch}", api.MetricsMiddleware(s.handleConfirmForm, "site_confirm"))
			r.Post("/confirm/{branch}", api.MetricsMiddleware(s.handleConfirmSubmit, "site_confirm"))
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/register/{branch}", api.MetricsMiddleware(s.handleRegisterForm, "site_register"))
			r.Post("/register/{branch}", api.MetricsMiddleware(s.handleRegisterSubmit, "site_register"))
			r.Get("/admin", api.MetricsMiddleware(s.handleAdmin, "site_admin"))
		})
	})
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := api.UserFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := api.UserFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		if !u.Admin {
			s.renderError(w, r, api.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// pageData is the root value of every template.
type pageData struct {
	Title     string
	EventName string
	User      *model.User
	CSRF      template.HTML
	Error     string
	Data      any
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	t, ok := s.templates[page]
	if !ok {
		s.logger.Error(r.Context(), "unknown template", logger.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	pd := pageData{Title: title, EventName: s.eventName, CSRF: csrf.TemplateField(r), Data: data}
	pd.User, _ = api.UserFromContext(r.Context())
	if e, ok := data.(interface{ errorMessage() string }); ok {
		pd.Error = e.errorMessage()
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", pd); err != nil {
		s.logger.Error(r.Context(), "render template", logger.String("page", page), logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorData struct {
	Status  int
	Message string
}

func (d errorData) errorMessage() string { return d.Message }

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := api.StatusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "page failed", logger.String("path", r.URL.Path), logger.Error(err))
		msg = http.StatusText(status)
	}
	s.render(w, r, status, "error.html", http.StatusText(status), errorData{Status: status, Message: msg})
}
