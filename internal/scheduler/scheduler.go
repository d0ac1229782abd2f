package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// Sweeper removes expired verification records.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	sched  gocron.Scheduler
	logger *logrus.Logger
}

func New(logger *logrus.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Scheduler{sched: sched, logger: logger}, nil
}

// ScheduleSweep runs sweeper every interval. Overlapping runs are skipped.
func (s *Scheduler) ScheduleSweep(sweeper Sweeper, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}
	_, err := s.sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func(ctx context.Context) {
			s.sweep(ctx, sweeper)
		}),
		gocron.WithName("verification-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule verification sweep: %w", err)
	}
	return nil
}

func (s *Scheduler) sweep(ctx context.Context, sweeper Sweeper) {
	removed, err := sweeper.SweepExpired(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("sweep expired verifications")
		return
	}
	if removed > 0 {
		s.logger.WithField("removed", removed).Info("expired verifications swept")
	}
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
