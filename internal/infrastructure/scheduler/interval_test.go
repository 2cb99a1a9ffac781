package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
)

func TestIntervalFiresOnEachPeriod(t *testing.T) {
	t.Parallel()

	clk := testclock.NewClock(time.Now())
	s := NewInterval(time.Minute, clk, slog.New(slog.DiscardHandler))

	var runs atomic.Int32
	fired := make(chan struct{}, 8)
	err := s.Start(context.Background(), func(time.Time) {
		runs.Add(1)
		fired <- struct{}{}
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := clk.WaitAdvance(time.Minute, time.Second, 1); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		select {
		case <-fired:
		case <-time.After(time.Second):
			t.Fatalf("job did not fire on tick %d", i)
		}
	}

	if got := runs.Load(); got != 2 {
		t.Fatalf("runs = %d, want 2", got)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestIntervalDoubleStart(t *testing.T) {
	t.Parallel()

	clk := testclock.NewClock(time.Now())
	s := NewInterval(time.Minute, clk, slog.New(slog.DiscardHandler))

	if err := s.Start(context.Background(), func(time.Time) {}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(context.Background(), func(time.Time) {}); err == nil {
		t.Fatal("second start should fail")
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestStopBeforeStart(t *testing.T) {
	t.Parallel()

	s := NewInterval(time.Minute, testclock.NewClock(time.Now()), slog.New(slog.DiscardHandler))
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
