package sweepers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Job is one maintenance pass.
type Job func(ctx context.Context) error

// Sweeper runs a job on a fixed interval until stopped
type Sweeper struct {
	name     string
	job      Job
	interval time.Duration
	logger   zerolog.Logger
	stopChan chan struct{}
	stopOnce sync.Once
}

// New creates a sweeper named name
func New(name string, interval time.Duration, job Job, logger zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		name:     name,
		job:      job,
		interval: interval,
		logger:   logger.With().Str("component", "sweeper").Str("sweeper", name).Logger(),
		stopChan: make(chan struct{}),
	}
}

// Start runs the job every interval. It blocks until ctx is done or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Msg("Starting sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// Stop signals the sweeper to stop
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// RunOnce runs a single pass and logs its failure.
func (s *Sweeper) RunOnce(ctx context.Context) {
	start := time.Now()
	if err := s.job(ctx); err != nil {
		sweepRuns.WithLabelValues(s.name, "error").Inc()
		s.logger.Error().Err(err).Msg("Sweep failed")
		return
	}
	sweepRuns.WithLabelValues(s.name, "ok").Inc()
	sweepDuration.WithLabelValues(s.name).Observe(time.Since(start).Seconds())
}
