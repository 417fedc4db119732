package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/hackreg/internal/adapters/repository"
	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/model"
	"github.com/okian/hackreg/internal/domain/statistics"
	"github.com/okian/hackreg/pkg/logger"
	"github.com/okian/hackreg/pkg/metrics"
)

// Counts is the registration funnel.
type Counts struct {
	TotalUsers        int `json:"totalUsers"`
	AppliedUsers      int `json:"appliedUsers"`
	AcceptedUsers     int `json:"acceptedUsers"`
	ConfirmedUsers    int `json:"confirmedUsers"`
	NonConfirmedUsers int `json:"nonConfirmedUsers"`
}

// BranchCount is the number of applicants in one application branch.
type BranchCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ConfirmationCount is the confirmed and assigned totals of one
// confirmation branch.
type ConfirmationCount struct {
	Name      string `json:"name"`
	Confirmed int    `json:"confirmed"`
	Count     int    `json:"count"`
}

// ApplicationStatistics summarises applicants for the admin overview.
type ApplicationStatistics struct {
	Counts
	ApplicationBranches  []BranchCount       `json:"applicationBranches"`
	ConfirmationBranches []ConfirmationCount `json:"confirmationBranches"`
}

func (s *Service) counts(ctx context.Context) (Counts, error) {
	var (
		c   Counts
		err error
	)
	if c.TotalUsers, err = s.store.CountUsers(ctx, repository.Filter{}); err != nil {
		return c, err
	}
	if c.AppliedUsers, err = s.store.CountUsers(ctx, repository.Filter{Applied: repository.Bool(true)}); err != nil {
		return c, err
	}
	if c.AcceptedUsers, err = s.store.CountUsers(ctx, repository.Filter{Accepted: repository.Bool(true)}); err != nil {
		return c, err
	}
	if c.ConfirmedUsers, err = s.store.CountUsers(ctx, repository.Filter{
		Accepted:  repository.Bool(true),
		Confirmed: repository.Bool(true),
	}); err != nil {
		return c, err
	}
	c.NonConfirmedUsers = c.AcceptedUsers - c.ConfirmedUsers
	return c, nil
}

// ApplicationStatistics counts applicants overall and per branch.
func (s *Service) ApplicationStatistics(ctx context.Context) (*ApplicationStatistics, error) {
	set, err := s.Branches(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	stats := &ApplicationStatistics{Counts: c}

	for _, b := range set.Applications() {
		n, err := s.store.CountUsers(ctx, repository.Filter{Applied: repository.Bool(true), ApplicationBranch: b.Name})
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", b.Name, err)
		}
		stats.ApplicationBranches = append(stats.ApplicationBranches, BranchCount{Name: b.Name, Count: n})
	}
	for _, b := range set.Confirmations() {
		total, err := s.store.CountUsers(ctx, repository.Filter{ConfirmationBranch: b.Name})
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", b.Name, err)
		}
		confirmed, err := s.store.CountUsers(ctx, repository.Filter{ConfirmationBranch: b.Name, Confirmed: repository.Bool(true)})
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", b.Name, err)
		}
		stats.ConfirmationBranches = append(stats.ConfirmationBranches, ConfirmationCount{Name: b.Name, Confirmed: confirmed, Count: total})
	}
	return stats, nil
}

// GeneralStatistics aggregates the choice answers of every applicant.
func (s *Service) GeneralStatistics(ctx context.Context) ([]statistics.Entry, error) {
	set, err := s.Branches(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx, repository.Filter{Applied: repository.Bool(true)})
	if err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}

	start := time.Now()
	res := statistics.Run(users, set.ApplicationsByName(), statistics.NewOrder(set.All()...))
	metrics.RecordStatisticsAggregation(float64(time.Since(start).Microseconds())/1000, len(res.Entries), res.SkippedUsers)
	if res.SkippedUsers > 0 {
		s.logger.Warn(ctx, "applicants reference missing branches",
			logger.Int("skipped", res.SkippedUsers),
		)
	}
	return res.Entries, nil
}

// ApplicantFilter selects applicants by application branch and acceptance.
// "*" or "" means any.
type ApplicantFilter struct {
	Branch   string
	Accepted string
}

func (f ApplicantFilter) storeFilter() (repository.Filter, error) {
	rf := repository.Filter{Applied: repository.Bool(true)}
	if b := strings.TrimSpace(f.Branch); b != "" && b != "*" {
		rf.ApplicationBranch = b
	}
	switch strings.ToLower(strings.TrimSpace(f.Accepted)) {
	case "", "*":
	case "true":
		rf.Accepted = repository.Bool(true)
	case "false":
		rf.Accepted = repository.Bool(false)
	default:
		return rf, fmt.Errorf("%w: accepted must be true, false or *", ErrInvalidFilter)
	}
	return rf, nil
}

// Applicants lists applicants matching f in registration order.
func (s *Service) Applicants(ctx context.Context, f ApplicantFilter) ([]*model.User, error) {
	rf, err := f.storeFilter()
	if err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx, rf)
	if err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}
	return users, nil
}

// User returns a user by id.
func (s *Service) User(ctx context.Context, id string) (*model.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	return u, nil
}

// SetAccepted sets the acceptance decision of one applicant.
func (s *Service) SetAccepted(ctx context.Context, id string, accepted bool) (*model.User, error) {
	u, err := s.User(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Accepted = accepted
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("save status: %w", err)
	}
	change := "unaccepted"
	if accepted {
		change = "accepted"
	}
	metrics.RecordStatusChange(change)
	s.logger.Info(ctx, "applicant status changed",
		logger.String("user", u.ID),
		logger.String("change", change),
	)
	return u, nil
}

// AssignConfirmationBranch moves a user to a confirmation branch, optionally
// with a personal deadline. An empty name clears the assignment. Acceptance
// follows the branch's isAcceptance flag and auto-confirm branches confirm
// immediately.
func (s *Service) AssignConfirmationBranch(ctx context.Context, id, name string, deadline *model.Deadline) (*model.User, error) {
	u, err := s.User(ctx, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(name) == "" {
		u.ConfirmationBranch = ""
		u.ConfirmationDeadline = nil
		u.Confirmed = false
	} else {
		conf, _, err := s.confirmationBranch(ctx, name)
		if err != nil {
			return nil, err
		}
		if deadline != nil && deadline.Close.Before(deadline.Open) {
			return nil, fmt.Errorf("%w: deadline closes before it opens", ErrInvalidSchedule)
		}
		if u.ConfirmationBranch != conf.Name {
			u.ConfirmationData = nil
			u.ConfirmationStartTime = nil
			u.ConfirmationSubmitTime = nil
		}
		u.ConfirmationBranch = conf.Name
		u.ConfirmationDeadline = deadline
		u.Accepted = conf.IsAcceptance
		u.Confirmed = conf.AutoConfirm
	}

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("save confirmation branch: %w", err)
	}
	metrics.RecordStatusChange("confirmation_branch")
	s.logger.Info(ctx, "confirmation branch assigned",
		logger.String("user", u.ID),
		logger.String("branch", u.ConfirmationBranch),
	)
	return u, nil
}

// Settings returns the site settings.
func (s *Service) Settings(ctx context.Context) (model.Settings, error) {
	st, err := s.store.Settings(ctx)
	if err != nil {
		return st, fmt.Errorf("load settings: %w", err)
	}
	return st, nil
}

// SetTeamsEnabled toggles team formation.
func (s *Service) SetTeamsEnabled(ctx context.Context, enabled bool) (model.Settings, error) {
	return s.updateSettings(ctx, "teams_enabled", func(st *model.Settings) { st.TeamsEnabled = enabled })
}

// SetQREnabled toggles check-in QR codes.
func (s *Service) SetQREnabled(ctx context.Context, enabled bool) (model.Settings, error) {
	return s.updateSettings(ctx, "qr_enabled", func(st *model.Settings) { st.QREnabled = enabled })
}

func (s *Service) updateSettings(ctx context.Context, name string, apply func(*model.Settings)) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.Settings(ctx)
	if err != nil {
		return st, fmt.Errorf("load settings: %w", err)
	}
	apply(&st)
	if err := s.store.PutSettings(ctx, st); err != nil {
		return st, fmt.Errorf("save settings: %w", err)
	}
	metrics.RecordSettingsUpdate(name)
	s.logger.Info(ctx, "settings updated", logger.String("setting", name))
	return st, nil
}

// UpdateSchedule stores the window and flags of branch name. Flags that do
// not apply to the branch's kind are cleared.
func (s *Service) UpdateSchedule(ctx context.Context, name string, sch branch.Schedule) (branch.Branch, error) {
	set, err := s.Branches(ctx)
	if err != nil {
		return nil, err
	}
	b, ok := set.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBranchNotFound, name)
	}
	if sch.Close.Before(sch.Open) {
		return nil, fmt.Errorf("%w: close is before open", ErrInvalidSchedule)
	}
	switch b.Kind() {
	case branch.KindApplication:
		sch.UsesRollingDeadline, sch.AutoConfirm, sch.IsAcceptance = false, false, false
	case branch.KindConfirmation:
		sch.AllowAnonymous, sch.AutoAccept = false, false
	default:
		return nil, fmt.Errorf("%w: %s has no schedule", ErrWrongBranchKind, b.Common().Name)
	}

	if err := s.store.PutSchedule(ctx, b.Common().Name, sch); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}
	metrics.RecordSettingsUpdate("branch_schedule")
	s.logger.Info(ctx, "branch schedule updated",
		logger.String("branch", b.Common().Name),
		logger.Time("open", sch.Open),
		logger.Time("close", sch.Close),
	)

	updated, err := s.Branches(ctx)
	if err != nil {
		return nil, err
	}
	out, _ := updated.Get(b.Common().Name)
	return out, nil
}

// AdminEmails lists the configured administrator emails.
func (s *Service) AdminEmails() []string {
	return append([]string(nil), s.admins...)
}

// MaxTeamSize returns the configured team size limit.
func (s *Service) MaxTeamSize() int { return s.maxTeamSize }
