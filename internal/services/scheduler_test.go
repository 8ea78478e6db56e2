package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyScheduler_NextRun(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	s := NewDailyScheduler("cleanup", loc, 0, 0, func(context.Context) {})

	// 23:59 local on the 15th fires at midnight on the 16th.
	next := s.NextRun(time.Date(2026, 6, 15, 23, 59, 0, 0, loc))
	assert.Equal(t, time.Date(2026, 6, 16, 0, 0, 0, 0, loc), next)

	// Exactly at the firing time schedules the next day.
	next = s.NextRun(time.Date(2026, 6, 16, 0, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2026, 6, 17, 0, 0, 0, 0, loc), next)

	// 06:00 UTC on the 16th is 23:00 on the 15th in Los Angeles.
	next = s.NextRun(time.Date(2026, 6, 16, 6, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 6, 16, 0, 0, 0, 0, loc), next)
}

func TestDailyScheduler_NextRunLaterToday(t *testing.T) {
	s := NewDailyScheduler("job", time.UTC, 3, 30, func(context.Context) {})
	next := s.NextRun(time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 1, 1, 3, 30, 0, 0, time.UTC), next)
}

func TestDailyScheduler_RunOnceRecoversPanic(t *testing.T) {
	s := NewDailyScheduler("job", time.UTC, 0, 0, func(context.Context) { panic("boom") })
	assert.NotPanics(t, func() { s.RunOnce(context.Background()) })
}

func TestDailyScheduler_RunStopsOnCancel(t *testing.T) {
	s := NewDailyScheduler("job", time.UTC, 0, 0, func(context.Context) {})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
