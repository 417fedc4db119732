// Package service provides the registration service that implements the
// dependencies required by the HTTP API and site.
package service

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/okian/hackreg/internal/adapters/repository"
	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/form"
	"github.com/okian/hackreg/pkg/logger"
	"github.com/okian/hackreg/pkg/metrics"
)

// Service implements registration use cases over a Store and a Catalog.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	catalog  *branch.Catalog
	renderer *form.Renderer

	// Configuration
	location        *time.Location
	now             func() time.Time
	admins          []string
	maxTeamSize     int
	metricsInterval time.Duration

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence backend. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCatalog sets the branch catalog.
func WithCatalog(c *branch.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithLocation sets the time zone used for displayed dates.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAdmins sets the emails promoted to admin when they sign in with the
// admin key verified.
func WithAdmins(emails []string) Option {
	return func(s *Service) {
		s.admins = append([]string(nil), emails...)
	}
}

// WithMaxTeamSize sets the team size shown to administrators.
func WithMaxTeamSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTeamSize = n
		}
	}
}

// WithMetricsInterval sets how often applicant gauges are refreshed.
func WithMetricsInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.metricsInterval = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		location:        time.UTC,
		now:             time.Now,
		maxTeamSize:     4,
		metricsInterval: 15 * time.Second,
		stopCh:          make(chan struct{}),
		renderer:        form.NewRenderer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start fills in defaults and starts the metrics refresher.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.catalog == nil {
		empty, err := branch.NewCatalog()
		if err != nil {
			return fmt.Errorf("empty catalog: %w", err)
		}
		s.catalog = empty
		s.logger.Warn(ctx, "no branch catalog configured")
	}
	metrics.UpdateCatalogBranches(s.catalog.Len())

	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.refreshMetricsLoop()

	s.started = true
	s.logger.Info(ctx, "registration service started",
		logger.Int("branches", s.catalog.Len()),
		logger.String("timezone", s.location.String()),
		logger.Duration("metricsInterval", s.metricsInterval),
	)
	return nil
}

// Stop halts background work and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping registration service...")
	close(s.stopCh)
	s.wg.Wait()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "close store", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "registration service stopped")
}

func (s *Service) refreshMetricsLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.metricsInterval)
	defer ticker.Stop()
	s.refreshMetrics(context.Background())
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.refreshMetrics(context.Background())
		}
	}
}

// refreshMetrics updates the applicant funnel gauges.
func (s *Service) refreshMetrics(ctx context.Context) {
	counts, err := s.counts(ctx)
	if err != nil {
		s.logger.Warn(ctx, "refresh applicant metrics", logger.Error(err))
		return
	}
	metrics.UpdateUserCounts(counts.TotalUsers, counts.AppliedUsers, counts.AcceptedUsers, counts.ConfirmedUsers)
}

// IsStarted reports whether Start has run.
func (s *Service) IsStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":    s.started,
		"goroutines": runtime.NumGoroutine(),
	}
	if s.started {
		stats["branches"] = s.catalog.Len()
		stats["timezone"] = s.location.String()
	}
	return stats
}

// Location returns the display time zone.
func (s *Service) Location() *time.Location { return s.location }

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.now() }

// Branches joins the catalog with the stored schedules.
func (s *Service) Branches(ctx context.Context) (*branch.Set, error) {
	if !s.IsStarted() {
		return nil, ErrNotStarted
	}
	schedules, err := s.store.Schedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}
	return s.catalog.Join(schedules), nil
}

func (s *Service) isAdminEmail(email string) bool {
	for _, a := range s.admins {
		if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}
