// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/hackreg/internal/app"
	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/model"
	"github.com/okian/hackreg/internal/domain/statistics"
	"github.com/okian/hackreg/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	UserLoader
	StatsProvider

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
	SetAccepted(ctx context.Context, id string, accepted bool) (*model.User, error)
	AssignConfirmationBranch(ctx context.Context, id, name string, deadline *model.Deadline) (*model.User, error)

	Settings(ctx context.Context) (model.Settings, error)
	SetTeamsEnabled(ctx context.Context, enabled bool) (model.Settings, error)
	SetQREnabled(ctx context.Context, enabled bool) (model.Settings, error)
	UpdateSchedule(ctx context.Context, name string, s branch.Schedule) (branch.Branch, error)
	AdminEmails() []string
	Now() time.Time
}

// Server wires HTTP routes for the registration API.
type Server struct {
	deps   Dependencies
	auth   *Authenticator
	logger logger.Logger

	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	sessionHandler *SessionHandler
	formHandler    *FormHandler
	adminHandler   *AdminHandler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, auth *Authenticator, opts ...Option) *Server {
	s := &Server{deps: deps, auth: auth}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.sessionHandler = NewSessionHandler(deps, auth, s.logger)
	s.formHandler = NewFormHandler(deps, s.logger)
	s.adminHandler = NewAdminHandler(deps, s.logger)
	return s
}

// Register attaches all API routes to r. The authenticator middleware must
// already be installed on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))

	r.Route("/api", func(r chi.Router) {
		r.Post("/session", MetricsMiddleware(s.sessionHandler.HandleLogin, "session"))
		r.Delete("/session", MetricsMiddleware(s.sessionHandler.HandleLogout, "session"))

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)
			r.Get("/session", MetricsMiddleware(s.sessionHandler.HandleCurrent, "session"))
			r.Get("/dashboard", MetricsMiddleware(s.sessionHandler.HandleDashboard, "dashboard"))
			r.Get("/application", MetricsMiddleware(s.formHandler.HandleApplicationChoices, "application"))
			r.Get("/application/{branch}", MetricsMiddleware(s.formHandler.HandleGetApplication, "application"))
			r.Post("/application/{branch}", MetricsMiddleware(s.formHandler.HandlePostApplication, "application"))
			r.Get("/confirmation", MetricsMiddleware(s.formHandler.HandleConfirmationChoices, "confirmation"))
			r.Get("/confirmation/{branch}", MetricsMiddleware(s.formHandler.HandleGetConfirmation, "confirmation"))
			r.Post("/confirmation/{branch}", MetricsMiddleware(s.formHandler.HandlePostConfirmation, "confirmation"))
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/register/{branch}", MetricsMiddleware(s.formHandler.HandleGetAnonymous, "register"))
			r.Post("/register/{branch}", MetricsMiddleware(s.formHandler.HandlePostAnonymous, "register"))

			r.Get("/admin/overview", MetricsMiddleware(s.adminHandler.HandleOverview, "admin_overview"))
			r.Get("/admin/statistics", MetricsMiddleware(s.adminHandler.HandleStatistics, "admin_statistics"))
			r.Get("/admin/statistics.xlsx", MetricsMiddleware(s.adminHandler.HandleStatisticsExport, "admin_statistics_export"))
			r.Get("/admin/applicants", MetricsMiddleware(s.adminHandler.HandleApplicants, "admin_applicants"))
			r.Get("/admin/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

			r.Post("/user/{id}/status", MetricsMiddleware(s.adminHandler.HandleUserStatus, "user_status"))
			r.Put("/user/{id}/confirmation_branch", MetricsMiddleware(s.adminHandler.HandleConfirmationBranch, "user_confirmation_branch"))

			r.Get("/settings", MetricsMiddleware(s.adminHandler.HandleGetSettings, "settings"))
			r.Put("/settings/teams_enabled", MetricsMiddleware(s.adminHandler.HandleTeamsEnabled, "settings"))
			r.Put("/settings/qr_enabled", MetricsMiddleware(s.adminHandler.HandleQREnabled, "settings"))
			r.Put("/settings/branches/{branch}", MetricsMiddleware(s.adminHandler.HandleBranchSchedule, "settings"))
		})
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps err to a response. Server errors are logged and
// their detail withheld from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, log logger.Logger, op string, err error) {
	status, code := StatusFor(err)
	if status >= statusInternalError {
		log.Error(r.Context(), "request failed", logger.String("op", op), logger.Error(err))
		writeError(w, status, code, nil)
		return
	}
	writeError(w, status, code, err)
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}
