package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SessionPurger removes sessions past their expiry
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// CronService manages scheduled background jobs
type CronService struct {
	cron     *cron.Cron
	sessions SessionPurger
	timeout  time.Duration
	logger   *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(sessions SessionPurger, logger *logrus.Logger) *CronService {
	// Cron format with seconds: second minute hour day month weekday
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:     c,
		sessions: sessions,
		timeout:  time.Minute,
		logger:   logger,
	}
}

// Start schedules the session purge and starts the scheduler
func (s *CronService) Start(purgeSchedule string) error {
	if _, err := s.cron.AddFunc(purgeSchedule, s.purgeSessionsJob); err != nil {
		return fmt.Errorf("failed to schedule session purge job: %w", err)
	}
	s.logger.WithField("schedule", purgeSchedule).Info("Scheduled: purge expired sessions")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop waits for running jobs and stops the scheduler
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) purgeSessionsJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	startTime := time.Now()
	purged, err := s.sessions.PurgeExpiredSessions(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to purge expired sessions")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"purged":      purged,
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Info("Purged expired sessions")
}

// JobCount returns the number of scheduled jobs
func (s *CronService) JobCount() int {
	return len(s.cron.Entries())
}
