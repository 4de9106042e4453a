package sweepers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Expirer expires every submission past its expiry time.
type Expirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

// TaskMaintainer is the maintenance surface of the task queue.
type TaskMaintainer interface {
	RecoverOrphanedTasks(ctx context.Context, timeout time.Duration) (recovered, failed int32, err error)
	CleanupOldTasks(ctx context.Context, daysToKeep int) (int, error)
}

// Config configures the periodic maintenance passes
type Config struct {
	ExpiryInterval    time.Duration `mapstructure:"expiry_interval"`
	TaskQueueInterval time.Duration `mapstructure:"task_queue_interval"`
	OrphanTimeout     time.Duration `mapstructure:"orphan_timeout"`
	TaskRetentionDays int           `mapstructure:"task_retention_days"`
}

// DefaultConfig returns the maintenance defaults
func DefaultConfig() Config {
	return Config{
		ExpiryInterval:    15 * time.Minute,
		TaskQueueInterval: 5 * time.Minute,
		OrphanTimeout:     10 * time.Minute,
		TaskRetentionDays: 7,
	}
}

// ExpireSubmissions moves submissions past their expiry to expired.
func ExpireSubmissions(expirer Expirer, logger zerolog.Logger) Job {
	return func(ctx context.Context) error {
		n, err := expirer.ExpireDue(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info().Int("expired", n).Msg("Expired stale submissions")
		}
		return nil
	}
}

// MaintainTaskQueue recovers orphaned tasks and removes finished ones older
// than the retention period.
func MaintainTaskQueue(queue TaskMaintainer, cfg Config, logger zerolog.Logger) Job {
	return func(ctx context.Context) error {
		var errs []error

		recovered, failed, err := queue.RecoverOrphanedTasks(ctx, cfg.OrphanTimeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to recover orphaned tasks: %w", err))
		} else if recovered > 0 || failed > 0 {
			logger.Info().
				Int32("recovered", recovered).
				Int32("failed", failed).
				Msg("Recovered orphaned tasks")
		}

		removed, err := queue.CleanupOldTasks(ctx, cfg.TaskRetentionDays)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to cleanup old tasks: %w", err))
		} else if removed > 0 {
			logger.Info().Int("removed", removed).Msg("Removed old tasks")
		}

		return errors.Join(errs...)
	}
}
