package readiness

import (
	"context"
	"errors"
	"time"
)

// ErrWaitTimeout indicates the polling budget was exhausted before the probe
// succeeded.
var ErrWaitTimeout = errors.New("readiness: wait budget exhausted")

// Probe reports whether the awaited condition holds.
type Probe func(ctx context.Context) (bool, error)

const (
	defaultInterval = 250 * time.Millisecond
	defaultCap      = 10 * time.Second
)

// Waiter polls a probe at a fixed interval up to a fixed cap. The clock and
// sleeper are injectable so tests never touch real timers.
type Waiter struct {
	interval time.Duration
	cap      time.Duration
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option allows customizing the behaviour of a waiter.
type Option func(*Waiter)

// WithClock overrides the internal clock, used mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(w *Waiter) {
		if clock != nil {
			w.now = clock
		}
	}
}

// WithSleeper overrides the pause between polls, used mainly for tests.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(w *Waiter) {
		if sleep != nil {
			w.sleep = sleep
		}
	}
}

// NewWaiter constructs a waiter with the given poll interval and total cap.
// Non-positive values fall back to defaults.
func NewWaiter(interval, cap time.Duration, opts ...Option) *Waiter {
	w := &Waiter{
		interval: interval,
		cap:      cap,
		now:      time.Now,
		sleep:    sleepContext,
	}
	if w.interval <= 0 {
		w.interval = defaultInterval
	}
	if w.cap <= 0 {
		w.cap = defaultCap
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Wait polls the probe until it succeeds, the cap elapses (ErrWaitTimeout),
// the context is cancelled, or the probe itself fails.
func (w *Waiter) Wait(ctx context.Context, probe Probe) error {
	if probe == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	deadline := w.now().Add(w.cap)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := probe(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !w.now().Add(w.interval).Before(deadline) {
			return ErrWaitTimeout
		}
		if err := w.sleep(ctx, w.interval); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
