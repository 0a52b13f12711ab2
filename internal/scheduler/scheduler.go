// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"byteplus-functions/internal/common/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic jobs in a fixed time zone.
type Scheduler struct {
	cron   *cron.Cron
	logger logger.Logger
}

func New(log logger.Logger, timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		logger: log,
	}, nil
}

// AddJob registers a named job on a cron schedule. Each run gets its own
// timeout context; failures are logged and never stop the schedule.
func (s *Scheduler) AddJob(spec, name string, timeout time.Duration, job func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			s.logger.Error("scheduled job failed", map[string]interface{}{
				"job":      name,
				"error":    err.Error(),
				"duration": time.Since(start).String(),
			})
			return
		}
		s.logger.Info("scheduled job completed", map[string]interface{}{
			"job":      name,
			"duration": time.Since(start).String(),
		})
	})
	if err != nil {
		return fmt.Errorf("register job %q: %w", name, err)
	}

	s.logger.Info("scheduled job registered", map[string]interface{}{
		"job":      name,
		"schedule": spec,
	})
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and returns a context that completes once any
// running job has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
