package seed

import (
	"context"
	"fmt"

	"github.com/okian/hackreg/pkg/logger"
)

// verifyResults checks the admin overview counts at least what this run
// created. Earlier runs against the same store only raise the totals.
func verifyResults(ctx context.Context, cfg *Config, stats *Stats) error {
	client := newAdminClient(cfg.BaseURL, cfg.AdminKey, cfg.Timeout)

	var ov overview
	if err := client.Get(ctx, "/api/admin/overview", &ov); err != nil {
		return fmt.Errorf("%w: overview: %v", ErrVerification, err)
	}
	if ov.AppliedUsers < stats.Applied {
		return fmt.Errorf("%w: overview reports %d applied, seeded %d", ErrVerification, ov.AppliedUsers, stats.Applied)
	}
	if ov.AcceptedUsers < stats.Accepted {
		return fmt.Errorf("%w: overview reports %d accepted, seeded %d", ErrVerification, ov.AcceptedUsers, stats.Accepted)
	}

	var entries []map[string]any
	if err := client.Get(ctx, "/api/admin/statistics", &entries); err != nil {
		return fmt.Errorf("%w: statistics: %v", ErrVerification, err)
	}
	stats.StatsEntries = len(entries)

	logger.Get().Info(ctx, "verification passed",
		logger.Int("totalUsers", ov.TotalUsers),
		logger.Int("appliedUsers", ov.AppliedUsers),
		logger.Int("acceptedUsers", ov.AcceptedUsers),
		logger.Int("statisticsEntries", stats.StatsEntries))
	return nil
}
