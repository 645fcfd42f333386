// Package worker drives the daily vtb list refresh.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/tartampluch/go-ddcheck/internal/config"
)

// DailyScheduler runs Job once a day at Hour:00 local time.
// Runs are independent of request traffic and never overlap each other.
type DailyScheduler struct {
	Clock Clock
	Hour  int
	Job   func(ctx context.Context)
}

// NewDailyScheduler creates a scheduler running job every day at hour.
func NewDailyScheduler(hour int, job func(ctx context.Context)) *DailyScheduler {
	return &DailyScheduler{
		Clock: RealClock{},
		Hour:  hour,
		Job:   job,
	}
}

// NextRun returns the first occurrence of Hour:00:00 strictly after now.
func (s *DailyScheduler) NextRun(now time.Time) (time.Time, error) {
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.DAILY,
		Dtstart:  now.Truncate(time.Second),
		Byhour:   []int{s.Hour},
		Byminute: []int{0},
		Bysecond: []int{0},
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", config.ErrScheduleRule, err)
	}
	return rule.After(now, false), nil
}

// Run blocks until ctx is cancelled, invoking Job at each scheduled time.
func (s *DailyScheduler) Run(ctx context.Context) error {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	clock := s.Clock
	if clock == nil {
		clock = RealClock{}
	}

	log.Info(config.MsgWorkerStart, config.LogKeyHour, s.Hour)

	for {
		now := clock.Now()
		next, err := s.NextRun(now)
		if err != nil {
			return err
		}
		log.Debug(config.MsgWorkerNext, config.LogKeyNext, next)

		select {
		case <-ctx.Done():
			log.Info(config.MsgWorkerStop)
			return nil
		case <-clock.After(next.Sub(now)):
			s.Job(ctx)
		}
	}
}
