package seed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/hackreg/pkg/logger"
)

// Error constants.
var (
	ErrInvalidConfig = errors.New("invalid seed config")
	ErrNoBranches    = errors.New("no open application branches")
	ErrVerification  = errors.New("seed verification failed")
)

const percentageMultiplier = 100

// Run registers cfg.Applicants synthetic applicants through the public API,
// records admin decisions when an admin key is configured and verifies the
// admin overview reflects them.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if cfg.Applicants <= 0 || cfg.Workers <= 0 {
		return nil, fmt.Errorf("%w: applicants and workers must be positive", ErrInvalidConfig)
	}
	if cfg.EmailDomain == "" {
		cfg.EmailDomain = defaultEmailDomain
	}
	stats := &Stats{StartTime: time.Now(), Applicants: cfg.Applicants}

	logger.Get().Info(ctx, "starting hackreg seed",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("applicants", cfg.Applicants),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Bool("admin", cfg.AdminKey != ""),
		logger.Any("verbose", cfg.Verbose))

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	applied, err := registerApplicants(ctx, cfg, stats)
	if err != nil {
		return stats, fmt.Errorf("registration failed: %w", err)
	}

	if cfg.AdminKey != "" {
		if err := recordDecisions(ctx, cfg, applied, stats); err != nil {
			return stats, fmt.Errorf("decisions failed: %w", err)
		}
		if err := verifyResults(ctx, cfg, stats); err != nil {
			return stats, err
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "seed completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	logger.Get().Info(ctx, "checking service health")
	client := newAdminClient(cfg.BaseURL, "", cfg.Timeout)
	if err := client.Get(ctx, "/healthz", nil); err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// registerApplicants signs in and submits an application for every
// applicant using a pool of workers. Applicants that failed are logged and
// counted; the returned slice holds the applied users in index order.
func registerApplicants(ctx context.Context, cfg *Config, stats *Stats) ([]user, error) {
	logger.Get().Info(ctx, "registering applicants", logger.Int("count", cfg.Applicants), logger.Int("workers", cfg.Workers))

	var (
		applied   int64
		failed    int64
		noBranch  atomic.Bool
		results   = make([]*user, cfg.Applicants)
		indexChan = make(chan int, cfg.Workers*WorkerChannelMultiplier)
		wg        sync.WaitGroup
	)

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexChan {
				if ctx.Err() != nil {
					return
				}
				u, err := registerOne(ctx, cfg, newApplicant(cfg.Seed, i, cfg.EmailDomain))
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if errors.Is(err, ErrNoBranches) {
						noBranch.Store(true)
					}
					logger.Get().Warn(ctx, "applicant failed", logger.Int("index", i), logger.Error(err))
					continue
				}
				results[i] = u
				n := atomic.AddInt64(&applied, 1)
				if cfg.Verbose {
					logger.Get().Debug(ctx, "applicant registered", logger.Int("index", i), logger.String("branch", u.ApplicationBranch))
				}
				if n%100 == 0 {
					logger.Get().Info(ctx, "progress", logger.Int64("applied", n), logger.Int("total", cfg.Applicants))
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := 0; i < cfg.Applicants; i++ {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	stats.Applied = int(atomic.LoadInt64(&applied))
	stats.Failed = int(atomic.LoadInt64(&failed))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled during registration: %w", err)
	}
	if stats.Applied == 0 && noBranch.Load() {
		return nil, ErrNoBranches
	}

	out := make([]user, 0, stats.Applied)
	for _, u := range results {
		if u != nil {
			out = append(out, *u)
		}
	}
	logger.Get().Info(ctx, "registration completed", logger.Int("applied", stats.Applied), logger.Int("failed", stats.Failed))
	return out, nil
}

// registerOne walks one applicant through sign in, branch choice and the
// application form.
func registerOne(ctx context.Context, cfg *Config, a applicant) (*user, error) {
	client, err := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	var me user
	if err := client.Post(ctx, "/api/session", map[string]string{"email": a.email, "name": a.name}, &me); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	var c choices
	if err := client.Get(ctx, "/api/application", &c); err != nil {
		return nil, fmt.Errorf("choices: %w", err)
	}
	if len(c.Branches) == 0 {
		return nil, ErrNoBranches
	}
	path := "/api/application/" + url.PathEscape(c.Branches[a.rng.IntN(len(c.Branches))])

	var f formDoc
	if err := client.Get(ctx, path, &f); err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}
	var saved user
	if err := client.Post(ctx, path, submission{Answers: a.answers(f)}, &saved); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	return &saved, nil
}

// recordDecisions accepts every cfg.AcceptEvery-th applicant and assigns
// the configured confirmation branch to them.
func recordDecisions(ctx context.Context, cfg *Config, applied []user, stats *Stats) error {
	if cfg.AcceptEvery <= 0 {
		return nil
	}
	client := newAdminClient(cfg.BaseURL, cfg.AdminKey, cfg.Timeout)
	for i, u := range applied {
		if i%cfg.AcceptEvery != 0 {
			continue
		}
		var updated user
		if err := client.Post(ctx, "/api/user/"+url.PathEscape(u.ID)+"/status", map[string]string{"status": "true"}, &updated); err != nil {
			return fmt.Errorf("accept %s: %w", u.Email, err)
		}
		if cfg.ConfirmationBranch != "" {
			body := map[string]string{"branch": cfg.ConfirmationBranch}
			if err := client.Put(ctx, "/api/user/"+url.PathEscape(u.ID)+"/confirmation_branch", body, &updated); err != nil {
				return fmt.Errorf("assign %s: %w", u.Email, err)
			}
			stats.Assigned++
		}
		if updated.Accepted {
			stats.Accepted++
		}
	}
	logger.Get().Info(ctx, "decisions recorded", logger.Int("accepted", stats.Accepted), logger.Int("assigned", stats.Assigned))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(stats *Stats) {
	var successRate, perSecond float64
	if stats.Applicants > 0 {
		successRate = float64(stats.Applied) / float64(stats.Applicants) * percentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Applied) / stats.Duration.Seconds()
	}
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("applicants", stats.Applicants),
		logger.Int("applied", stats.Applied),
		logger.Int("failed", stats.Failed),
		logger.Int("accepted", stats.Accepted),
		logger.Int("assigned", stats.Assigned),
		logger.Int("statisticsEntries", stats.StatsEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("applicantsPerSecond", perSecond))
}
