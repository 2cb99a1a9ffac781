package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/juju/clock"

	"paperscribe/internal/ports"
)

// Interval triggers a job at a fixed period. The first run happens one full
// period after Start; overlapping runs cannot happen because the next tick
// is only armed after the job returns.
type Interval struct {
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

var _ ports.Scheduler = (*Interval)(nil)

func NewInterval(interval time.Duration, clk clock.Clock, logger *slog.Logger) *Interval {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Interval{
		interval: interval,
		clock:    clk,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start launches the trigger loop. Calling Start twice is an error.
func (s *Interval) Start(ctx context.Context, job func(time.Time)) error {
	if s.done != nil {
		return errors.New("scheduler already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.logger.Info("scheduler started", "interval", s.interval)
		for {
			select {
			case <-runCtx.Done():
				s.logger.Info("scheduler stopped")
				return
			case t := <-s.clock.After(s.interval):
				job(t)
			}
		}
	}()
	return nil
}

// Stop cancels the loop and waits for the in-flight run to finish.
func (s *Interval) Stop(ctx context.Context) error {
	if s.done == nil {
		return nil
	}
	s.cancel()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
