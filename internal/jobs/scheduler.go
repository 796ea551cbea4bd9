package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/saeid-a/CounselPracticeBack/internal/logger"
	"github.com/saeid-a/CounselPracticeBack/internal/services"
	"github.com/sirupsen/logrus"
)

const (
	purgeTimeout    = 4 * time.Minute
	dispatchTimeout = 50 * time.Second
)

type trashSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type reminderDispatcher interface {
	DispatchDue(ctx context.Context) (services.DispatchReport, error)
}

// Scheduler runs periodic maintenance jobs. A run that is still going when its next
// tick fires is skipped.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler() *Scheduler {
	cronLogger := cron.PrintfLogger(logger.Logger)
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
	}
}

func (s *Scheduler) Register(name, spec string, timeout time.Duration, run func(ctx context.Context) error) error {
	if _, err := s.cron.AddFunc(spec, wrap(name, timeout, run)); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	logger.Logger.WithFields(logrus.Fields{"job": name, "schedule": spec}).Info("job scheduled")
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits up to ctx for running jobs.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		logger.Logger.Warn("jobs still running at shutdown")
	}
}

// RegisterDefaults wires the trash purge and, when given, the reminder dispatch.
func RegisterDefaults(
	s *Scheduler,
	purgeSpec string,
	sweeper trashSweeper,
	dispatchSpec string,
	dispatcher reminderDispatcher,
) error {
	if err := s.Register("trash_purge", purgeSpec, purgeTimeout, func(ctx context.Context) error {
		_, err := sweeper.Sweep(ctx)
		return err
	}); err != nil {
		return err
	}
	if dispatcher == nil {
		return nil
	}
	return s.Register("reminder_dispatch", dispatchSpec, dispatchTimeout, func(ctx context.Context) error {
		_, err := dispatcher.DispatchDue(ctx)
		return err
	})
}

func wrap(name string, timeout time.Duration, run func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		started := time.Now()
		if err := run(ctx); err != nil {
			logger.Logger.WithError(err).WithField("job", name).Error("job failed")
			return
		}
		logger.Logger.WithFields(logrus.Fields{
			"job":      name,
			"duration": time.Since(started).String(),
		}).Debug("job finished")
	}
}
