// Package scheduler runs periodic jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule validates a five-field cron schedule string.
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// NextRunTime returns the first activation of schedule after from.
func NextRunTime(schedule string, from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// ExpiryEnqueuer puts an announcement expiry task on the queue.
type ExpiryEnqueuer interface {
	EnqueueCloseExpired(trigger string) (string, error)
}

// ExpiryScheduler enqueues the expiry task on a cron schedule. The task
// itself runs on the queue workers.
type ExpiryScheduler struct {
	enqueuer ExpiryEnqueuer
	schedule string
	logger   zerolog.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewExpiryScheduler creates a scheduler; call Start to activate it.
func NewExpiryScheduler(enqueuer ExpiryEnqueuer, schedule string, logger zerolog.Logger) *ExpiryScheduler {
	return &ExpiryScheduler{
		enqueuer: enqueuer,
		schedule: schedule,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the job and starts the cron loop. It stops when ctx is done.
func (s *ExpiryScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.RunNow)
	if err != nil {
		return fmt.Errorf("failed to schedule expiry job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	next, _ := NextRunTime(s.schedule, time.Now())
	s.logger.Info().Str("schedule", s.schedule).Time("next_run", next).Msg("announcement expiry scheduler started")

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the cron loop and waits for a running job to return.
func (s *ExpiryScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	s.logger.Info().Msg("announcement expiry scheduler stopped")
}

// RunNow enqueues an expiry task immediately.
func (s *ExpiryScheduler) RunNow() {
	id, err := s.enqueuer.EnqueueCloseExpired("schedule")
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to enqueue expiry task")
		return
	}
	s.logger.Debug().Str("task_id", id).Msg("expiry task enqueued")
}

// IsRunning returns whether the scheduler is active.
func (s *ExpiryScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the job fires next, or nil when stopped.
func (s *ExpiryScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() {
		return nil
	}
	return &entry.Next
}
