// Package repository persists applicants, branch schedules and settings.
//
// Two implementations satisfy Store: MemoryStore for development and tests,
// and SQLStore for SQLite and PostgreSQL. Both hand out copies, so callers
// may mutate what they receive without affecting stored state.
package repository

import (
	"context"
	"strings"

	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/model"
)

// Filter narrows user queries. Nil pointers and empty strings match anything.
type Filter struct {
	Applied            *bool
	Accepted           *bool
	Confirmed          *bool
	Admin              *bool
	ApplicationBranch  string
	ConfirmationBranch string
}

// Bool returns a pointer to v for building filters.
func Bool(v bool) *bool { return &v }

// Match reports whether u satisfies f.
func (f Filter) Match(u *model.User) bool {
	switch {
	case f.Applied != nil && u.Applied != *f.Applied:
		return false
	case f.Accepted != nil && u.Accepted != *f.Accepted:
		return false
	case f.Confirmed != nil && u.Confirmed != *f.Confirmed:
		return false
	case f.Admin != nil && u.Admin != *f.Admin:
		return false
	case f.ApplicationBranch != "" && u.ApplicationBranch != f.ApplicationBranch:
		return false
	case f.ConfirmationBranch != "" && u.ConfirmationBranch != f.ConfirmationBranch:
		return false
	}
	return true
}

// Store provides read/write access to registration state.
type Store interface {
	// CreateUser inserts u. Returns ErrConflict if the id is taken.
	CreateUser(ctx context.Context, u *model.User) error
	// UpdateUser replaces the stored user with the same id.
	// Returns ErrNotFound if the user is unknown.
	UpdateUser(ctx context.Context, u *model.User) error
	// GetUser returns ErrNotFound if the user is unknown.
	GetUser(ctx context.Context, id string) (*model.User, error)
	// GetUserByEmail matches case-insensitively. Returns ErrNotFound if none.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// ListUsers returns matching users ordered by creation time.
	ListUsers(ctx context.Context, f Filter) ([]*model.User, error)
	// CountUsers returns the number of matching users.
	CountUsers(ctx context.Context, f Filter) (int, error)

	// Schedules returns every stored schedule keyed by branch name.
	Schedules(ctx context.Context) (map[string]branch.Schedule, error)
	// PutSchedule inserts or replaces the schedule of one branch.
	PutSchedule(ctx context.Context, name string, s branch.Schedule) error

	// Settings returns the site settings, or the defaults if never saved.
	Settings(ctx context.Context) (model.Settings, error)
	// PutSettings stores the site settings.
	PutSettings(ctx context.Context, s model.Settings) error

	Close() error
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
