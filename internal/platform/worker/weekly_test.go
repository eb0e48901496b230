package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/reading-bot/internal/platform/schedule"
)

func newTestScheduler(now *time.Time) *WeeklyScheduler {
	logger := zerolog.Nop()
	ws := NewWeeklyScheduler(&logger)
	ws.SetClock(func() time.Time { return *now })

	return ws
}

func TestWeeklyScheduler_RunsOncePerSlot(t *testing.T) {
	// Friday 2026-10-16 09:30 UTC
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	ws := newTestScheduler(&now)

	runs := 0
	ws.AddTask(&WeeklyTask{
		Name: "newsletter",
		Slot: schedule.Weekly{Day: time.Friday, Hour: 9},
		Run: func(context.Context, *zerolog.Logger) error {
			runs++
			return nil
		},
	})

	ws.CheckAndRun(context.Background())
	ws.CheckAndRun(context.Background())

	if runs != 1 {
		t.Fatalf("runs = %d, want 1", runs)
	}

	now = now.Add(7 * 24 * time.Hour)
	ws.CheckAndRun(context.Background())

	if runs != 2 {
		t.Fatalf("runs after a week = %d, want 2", runs)
	}
}

func TestWeeklyScheduler_PersistedLastRun(t *testing.T) {
	now := time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC)
	ws := newTestScheduler(&now)

	runs := 0
	ws.AddTask(&WeeklyTask{
		Name: "newsletter",
		Slot: schedule.Weekly{Day: time.Friday, Hour: 9},
		Run: func(context.Context, *zerolog.Logger) error {
			runs++
			return nil
		},
	})

	ws.SetLastRun("newsletter", time.Date(2026, 10, 16, 9, 1, 0, 0, time.UTC))
	ws.CheckAndRun(context.Background())

	if runs != 0 {
		t.Fatalf("runs = %d, want 0 after restart within the same slot", runs)
	}

	last, ok := ws.GetLastRun("newsletter")
	if !ok || last.Hour() != 9 {
		t.Fatalf("GetLastRun = %v, %v", last, ok)
	}
}

func TestWeeklyScheduler_FailureRetriesAndDisabled(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 5, 0, 0, time.UTC)
	ws := newTestScheduler(&now)

	var (
		calls    int
		failures int
		enabled  = true
	)

	ws.AddTask(&WeeklyTask{
		Name:      "newsletter",
		Slot:      schedule.Weekly{Day: time.Friday, Hour: 9},
		IsEnabled: func(context.Context) bool { return enabled },
		Run: func(context.Context, *zerolog.Logger) error {
			calls++
			if calls == 1 {
				return errors.New("archive down")
			}

			return nil
		},
		OnError: func(error) { failures++ },
	})

	ws.CheckAndRun(context.Background())
	ws.CheckAndRun(context.Background())

	if calls != 2 || failures != 1 {
		t.Fatalf("calls = %d, failures = %d; want 2 and 1", calls, failures)
	}

	enabled = false
	now = now.Add(7 * 24 * time.Hour)
	ws.CheckAndRun(context.Background())

	if calls != 2 {
		t.Fatalf("disabled task ran: calls = %d", calls)
	}
}

func TestWait(t *testing.T) {
	if err := Wait(context.Background(), 0); err != nil {
		t.Fatalf("Wait(0) = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Wait(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait on canceled ctx = %v, want context.Canceled", err)
	}
}

func TestTickerLoop_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ticks := 0
	stopped := false

	err := TickerLoop(ctx, TickerConfig{
		Name:       "test",
		Interval:   time.Hour,
		RunOnStart: true,
		OnTick: func(context.Context) {
			ticks++
			cancel()
		},
		OnStop: func() { stopped = true },
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("TickerLoop error = %v, want context.Canceled", err)
	}

	if ticks != 1 || !stopped {
		t.Fatalf("ticks = %d, stopped = %v", ticks, stopped)
	}
}
