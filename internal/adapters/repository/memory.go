package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/model"
)

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	opts      options
	users     map[string]*model.User
	order     []string
	schedules map[string]branch.Schedule
	settings  *model.Settings
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		opts:      o,
		users:     make(map[string]*model.User),
		schedules: make(map[string]branch.Schedule),
	}
}

func validateUser(u *model.User) error {
	if u == nil || strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidUser)
	}
	return nil
}

// CreateUser inserts u, stamping CreatedAt when unset.
func (s *MemoryStore) CreateUser(_ context.Context, u *model.User) (err error) {
	defer func(start time.Time) { observe("create_user", start, err) }(time.Now())
	if err = validateUser(u); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.ID]; exists {
		return fmt.Errorf("%w: user %s", ErrConflict, u.ID)
	}
	if s.emailTaken(u.Email, u.ID) {
		return fmt.Errorf("%w: email %s", ErrConflict, u.Email)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.opts.now().UTC()
	}
	s.users[u.ID] = cloneUser(u)
	s.order = append(s.order, u.ID)
	return nil
}

// UpdateUser replaces the stored copy of u.
func (s *MemoryStore) UpdateUser(_ context.Context, u *model.User) (err error) {
	defer func(start time.Time) { observe("update_user", start, err) }(time.Now())
	if err = validateUser(u); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.ID]; !exists {
		return fmt.Errorf("%w: user %s", ErrNotFound, u.ID)
	}
	if s.emailTaken(u.Email, u.ID) {
		return fmt.Errorf("%w: email %s", ErrConflict, u.Email)
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

// emailTaken reports whether a user other than id holds email. Empty emails
// never collide. Callers hold s.mu.
func (s *MemoryStore) emailTaken(email, id string) bool {
	want := normaliseEmail(email)
	if want == "" {
		return false
	}
	for other, u := range s.users {
		if other != id && normaliseEmail(u.Email) == want {
			return true
		}
	}
	return false
}

// GetUser returns a copy of the user with id.
func (s *MemoryStore) GetUser(_ context.Context, id string) (u *model.User, err error) {
	defer func(start time.Time) { observe("get_user", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return cloneUser(stored), nil
}

// GetUserByEmail returns a copy of the user with email, ignoring case.
func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (u *model.User, err error) {
	defer func(start time.Time) { observe("get_user_by_email", start, err) }(time.Now())
	want := normaliseEmail(email)
	if want == "" {
		return nil, fmt.Errorf("%w: empty email", ErrNotFound)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if normaliseEmail(s.users[id].Email) == want {
			return cloneUser(s.users[id]), nil
		}
	}
	return nil, fmt.Errorf("%w: email %s", ErrNotFound, email)
}

// ListUsers returns copies of matching users in creation order.
func (s *MemoryStore) ListUsers(_ context.Context, f Filter) ([]*model.User, error) {
	defer observe("list_users", time.Now(), nil)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.User, 0, len(s.order))
	for _, id := range s.order {
		if u := s.users[id]; f.Match(u) {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

// CountUsers counts matching users.
func (s *MemoryStore) CountUsers(_ context.Context, f Filter) (int, error) {
	defer observe("count_users", time.Now(), nil)
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if f.Match(u) {
			n++
		}
	}
	return n, nil
}

// Schedules returns a copy of every stored schedule.
func (s *MemoryStore) Schedules(_ context.Context) (map[string]branch.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]branch.Schedule, len(s.schedules))
	for k, v := range s.schedules {
		out[k] = v
	}
	return out, nil
}

// PutSchedule stores the schedule for name.
func (s *MemoryStore) PutSchedule(_ context.Context, name string, sch branch.Schedule) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: missing branch name", ErrInvalidSchedule)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[name] = sch
	return nil
}

// Settings returns the stored settings or the configured defaults.
func (s *MemoryStore) Settings(_ context.Context) (model.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return s.opts.defaults, nil
	}
	return *s.settings, nil
}

// PutSettings stores st.
func (s *MemoryStore) PutSettings(_ context.Context, st model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &st
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
