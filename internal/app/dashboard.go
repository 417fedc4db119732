package service

import (
	"context"
	"fmt"

	"github.com/okian/hackreg/internal/domain/model"
	"github.com/okian/hackreg/internal/domain/timeline"
	"github.com/okian/hackreg/pkg/metrics"
)

// DashboardView is the rendered state of the home page for one user.
type DashboardView struct {
	User *model.User `json:"user"`
	timeline.Dashboard

	Settings model.Settings `json:"settings"`

	ApplicationOpen   string `json:"applicationOpen"`
	ApplicationClose  string `json:"applicationClose"`
	ConfirmationOpen  string `json:"confirmationOpen"`
	ConfirmationClose string `json:"confirmationClose"`

	AllApplicationTimes  []timeline.BranchTimes `json:"allApplicationTimes"`
	AllConfirmationTimes []timeline.BranchTimes `json:"allConfirmationTimes"`
}

// Dashboard resolves the status, timeline and schedules shown to u.
func (s *Service) Dashboard(ctx context.Context, u *model.User) (*DashboardView, error) {
	set, err := s.Branches(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	now := s.now()
	d := timeline.Resolve(timeline.BuildInput(u, set, now))
	metrics.RecordStatusResolution(string(d.Rule))

	view := &DashboardView{
		User:                 u,
		Dashboard:            d,
		Settings:             settings,
		AllApplicationTimes:  timeline.DisplayWindows(d.ApplicationWindows, now, s.location),
		AllConfirmationTimes: timeline.DisplayWindows(d.ConfirmationWindows, now, s.location),
	}
	view.ApplicationOpen, view.ApplicationClose = d.Application.Display(s.location)
	view.ConfirmationOpen, view.ConfirmationClose = d.Confirmation.Display(s.location)
	return view, nil
}
