package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DailyScheduler runs a job once a day at a wall-clock time in a fixed timezone
type DailyScheduler struct {
	name   string
	loc    *time.Location
	hour   int
	minute int
	job    func(ctx context.Context)
}

// NewDailyScheduler creates a scheduler firing at hour:minute in loc
func NewDailyScheduler(name string, loc *time.Location, hour, minute int, job func(ctx context.Context)) *DailyScheduler {
	return &DailyScheduler{name: name, loc: loc, hour: hour, minute: minute, job: job}
}

// NextRun returns the first firing time strictly after t
func (s *DailyScheduler) NextRun(t time.Time) time.Time {
	local := t.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, s.hour, s.minute, 0, 0, s.loc)
	}
	return next
}

// Run blocks until ctx is cancelled, invoking the job at each firing time
func (s *DailyScheduler) Run(ctx context.Context) {
	for {
		next := s.NextRun(time.Now())
		log.Info().
			Str("job", s.name).
			Time("next_run", next).
			Msg("Job scheduled")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info().Str("job", s.name).Msg("Scheduler stopped")
			return
		case <-timer.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce invokes the job immediately, recovering from panics
func (s *DailyScheduler) RunOnce(ctx context.Context) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("job", s.name).Str("panic", fmt.Sprint(r)).Msg("Scheduled job panicked")
		}
	}()

	s.job(ctx)
	log.Info().Str("job", s.name).Dur("took", time.Since(start)).Msg("Scheduled job completed")
}
