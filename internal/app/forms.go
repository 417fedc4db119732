package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/hackreg/internal/adapters/repository"
	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/form"
	"github.com/okian/hackreg/internal/domain/model"
	"github.com/okian/hackreg/internal/domain/timeline"
	"github.com/okian/hackreg/pkg/logger"
	"github.com/okian/hackreg/pkg/metrics"
)

// FormView is a branch form prepared for one user.
type FormView struct {
	Kind      branch.Kind `json:"kind"`
	Branch    string      `json:"branch"`
	Anonymous bool        `json:"anonymous"`
	Form      form.Form   `json:"-"`
}

// ApplicationChoices lists the branches u may apply to: the branch already
// applied to, otherwise every open application branch.
func (s *Service) ApplicationChoices(ctx context.Context, u *model.User) ([]string, error) {
	if u.Applied && u.ApplicationBranch != "" {
		return []string{u.ApplicationBranch}, nil
	}
	set, err := s.Branches(ctx)
	if err != nil {
		return nil, err
	}
	open := set.OpenApplications(s.now())
	names := make([]string, 0, len(open))
	for _, b := range open {
		names = append(names, b.Name)
	}
	return names, nil
}

// ConfirmationChoices returns the assigned confirmation branch, if any.
func (s *Service) ConfirmationChoices(_ context.Context, u *model.User) []string {
	if !u.HasConfirmationBranch() {
		return nil
	}
	return []string{u.ConfirmationBranch}
}

func (s *Service) applicationBranch(ctx context.Context, name string) (*branch.ApplicationBranch, *branch.Set, error) {
	set, err := s.Branches(ctx)
	if err != nil {
		return nil, nil, err
	}
	b, ok := set.Find(name)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrBranchNotFound, name)
	}
	app, ok := b.(*branch.ApplicationBranch)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s is a %s branch", ErrWrongBranchKind, b.Common().Name, b.Kind())
	}
	return app, set, nil
}

func (s *Service) confirmationBranch(ctx context.Context, name string) (*branch.ConfirmationBranch, *branch.Set, error) {
	set, err := s.Branches(ctx)
	if err != nil {
		return nil, nil, err
	}
	b, ok := set.Find(name)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrBranchNotFound, name)
	}
	conf, ok := b.(*branch.ConfirmationBranch)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s is a %s branch", ErrWrongBranchKind, b.Common().Name, b.Kind())
	}
	return conf, set, nil
}

func checkApplicationAccess(u *model.User, app *branch.ApplicationBranch, now time.Time) error {
	if u.Applied && u.ApplicationBranch != "" && u.ApplicationBranch != app.Name {
		return fmt.Errorf("%w: already applied to %s", ErrForbidden, u.ApplicationBranch)
	}
	if !app.IsOpen(now) {
		return fmt.Errorf("%w: %s", ErrBranchClosed, app.Name)
	}
	return nil
}

// The first confirmation record decides whether confirmation is open, so a
// per-user deadline takes precedence over the branch window.
func checkConfirmationAccess(u *model.User, conf *branch.ConfirmationBranch, set *branch.Set, now time.Time) error {
	if u.ConfirmationBranch != conf.Name {
		return fmt.Errorf("%w: not assigned to %s", ErrForbidden, conf.Name)
	}
	windows := timeline.ConfirmationWindows(u, set)
	if len(windows) == 0 || !windows[0].Contains(now) {
		return fmt.Errorf("%w: %s", ErrBranchClosed, conf.Name)
	}
	return nil
}

// ApplicationForm prepares the application form of branch name for u and
// records the application start time on first view.
func (s *Service) ApplicationForm(ctx context.Context, u *model.User, name string) (*FormView, error) {
	app, _, err := s.applicationBranch(ctx, name)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := checkApplicationAccess(u, app, now); err != nil {
		return nil, err
	}
	var saved []model.FormItem
	if u.ApplicationBranch == app.Name {
		saved = u.ApplicationData
	}
	f, err := form.Build(app.Base, saved, s.renderer)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if u.ApplicationStartTime == nil {
		u.ApplicationStartTime = &now
		if err := s.store.UpdateUser(ctx, u); err != nil {
			return nil, fmt.Errorf("record start time: %w", err)
		}
	}
	return &FormView{Kind: branch.KindApplication, Branch: app.Name, Form: f}, nil
}

// ConfirmationForm prepares the confirmation form of branch name for u and
// records the confirmation start time on first view.
func (s *Service) ConfirmationForm(ctx context.Context, u *model.User, name string) (*FormView, error) {
	conf, set, err := s.confirmationBranch(ctx, name)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := checkConfirmationAccess(u, conf, set, now); err != nil {
		return nil, err
	}
	f, err := form.Build(conf.Base, u.ConfirmationData, s.renderer)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if u.ConfirmationStartTime == nil {
		u.ConfirmationStartTime = &now
		if err := s.store.UpdateUser(ctx, u); err != nil {
			return nil, fmt.Errorf("record start time: %w", err)
		}
	}
	return &FormView{Kind: branch.KindConfirmation, Branch: conf.Name, Form: f}, nil
}

// AnonymousForm prepares a blank application form for an administrator
// registering someone on the spot.
func (s *Service) AnonymousForm(ctx context.Context, admin *model.User, name string) (*FormView, error) {
	app, _, err := s.applicationBranch(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := checkAnonymousAccess(admin, app); err != nil {
		return nil, err
	}
	f, err := form.Build(app.Base, nil, s.renderer)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	return &FormView{Kind: branch.KindApplication, Branch: app.Name, Anonymous: true, Form: f}, nil
}

func checkAnonymousAccess(admin *model.User, app *branch.ApplicationBranch) error {
	if admin == nil || !admin.Admin {
		return fmt.Errorf("%w: anonymous registration requires an admin", ErrForbidden)
	}
	if !app.AllowAnonymous {
		return fmt.Errorf("%w: %s does not allow anonymous registration", ErrForbidden, app.Name)
	}
	return nil
}

func submissionReason(err error) string {
	switch {
	case errors.Is(err, ErrBranchNotFound):
		return "unknown_branch"
	case errors.Is(err, ErrWrongBranchKind):
		return "wrong_kind"
	case errors.Is(err, ErrBranchClosed):
		return "closed"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, form.ErrMissingAnswer):
		return "missing_answer"
	case errors.Is(err, form.ErrUnknownQuestion):
		return "unknown_question"
	case errors.Is(err, form.ErrInvalidAnswer):
		return "invalid_answer"
	default:
		return "internal"
	}
}

// SubmitApplication validates and stores u's application to branch name.
// Auto-accept branches accept the applicant immediately.
func (s *Service) SubmitApplication(ctx context.Context, userID, name string, items []model.FormItem) (_ *model.User, err error) {
	defer func() {
		if err != nil {
			metrics.RecordSubmissionError(string(branch.KindApplication), submissionReason(err))
		}
	}()

	app, _, err := s.applicationBranch(ctx, name)
	if err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	now := s.now()
	if err = checkApplicationAccess(u, app, now); err != nil {
		return nil, err
	}
	answers, err := form.Validate(app.Base, items)
	if err != nil {
		return nil, err
	}

	applyApplication(u, app, answers, now)
	if err = s.store.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}
	metrics.RecordSubmission(string(branch.KindApplication), app.Name)
	s.logger.Info(ctx, "application submitted",
		logger.String("user", u.ID),
		logger.String("branch", app.Name),
		logger.Bool("accepted", u.Accepted),
	)
	return u, nil
}

func applyApplication(u *model.User, app *branch.ApplicationBranch, answers []model.FormItem, now time.Time) {
	u.Applied = true
	u.ApplicationBranch = app.Name
	u.ApplicationData = answers
	u.ApplicationSubmitTime = &now
	if u.ApplicationStartTime == nil {
		u.ApplicationStartTime = &now
	}
	if app.AutoAccept {
		u.Accepted = true
	}
}

// RegisterAnonymous creates a new applicant with a generated id and submits
// the application on their behalf. email may be empty.
func (s *Service) RegisterAnonymous(ctx context.Context, admin *model.User, name, email string, items []model.FormItem) (_ *model.User, err error) {
	defer func() {
		if err != nil {
			metrics.RecordSubmissionError(string(branch.KindApplication), submissionReason(err))
		}
	}()

	app, _, err := s.applicationBranch(ctx, name)
	if err != nil {
		return nil, err
	}
	if err = checkAnonymousAccess(admin, app); err != nil {
		return nil, err
	}
	answers, err := form.Validate(app.Base, items)
	if err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	if email != "" {
		if _, lookupErr := s.store.GetUserByEmail(ctx, email); lookupErr == nil {
			return nil, fmt.Errorf("%w: %s", repository.ErrConflict, email)
		} else if !errors.Is(lookupErr, repository.ErrNotFound) {
			return nil, fmt.Errorf("lookup email: %w", lookupErr)
		}
	}

	now := s.now()
	u := &model.User{ID: uuid.NewString(), Email: email, CreatedAt: now}
	applyApplication(u, app, answers, now)
	if err = s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create anonymous user: %w", err)
	}
	metrics.RecordSubmission(string(branch.KindApplication), app.Name)
	s.logger.Info(ctx, "anonymous registration",
		logger.String("user", u.ID),
		logger.String("branch", app.Name),
		logger.String("admin", admin.ID),
	)
	return u, nil
}

// SubmitConfirmation validates and stores u's confirmation and marks them
// confirmed.
func (s *Service) SubmitConfirmation(ctx context.Context, userID, name string, items []model.FormItem) (_ *model.User, err error) {
	defer func() {
		if err != nil {
			metrics.RecordSubmissionError(string(branch.KindConfirmation), submissionReason(err))
		}
	}()

	conf, set, err := s.confirmationBranch(ctx, name)
	if err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	now := s.now()
	if err = checkConfirmationAccess(u, conf, set, now); err != nil {
		return nil, err
	}
	answers, err := form.Validate(conf.Base, items)
	if err != nil {
		return nil, err
	}

	u.Confirmed = true
	u.ConfirmationData = answers
	u.ConfirmationSubmitTime = &now
	if u.ConfirmationStartTime == nil {
		u.ConfirmationStartTime = &now
	}
	if err = s.store.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("save confirmation: %w", err)
	}
	metrics.RecordSubmission(string(branch.KindConfirmation), conf.Name)
	s.logger.Info(ctx, "confirmation submitted",
		logger.String("user", u.ID),
		logger.String("branch", conf.Name),
	)
	return u, nil
}
