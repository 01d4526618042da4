// Package task runs a function on a schedule: immediately (unless told to
// skip the first round), then again after whatever interval the schedule
// function returns, until stopped.
package task

import (
	"context"
	"errors"
	"time"
)

// Func is a unit of work driven by a schedule.
type Func func(context.Context)

// Schedule returns how long to wait before the next round and whether this
// round's call to Func should be skipped. A non-nil error skips running
// Func this round without otherwise changing the wait behavior; an
// interval of zero means "wait indefinitely for a reset or stop" rather
// than busy-looping.
type Schedule func() (time.Duration, error)

var errSkipFirst = errors.New("task: first round skipped")

type everyConfig struct {
	skipFirst bool
}

// EveryOption tweaks the behavior of Every.
type EveryOption func(*everyConfig)

// SkipFirst makes Every skip running the task on its first round, so the
// task's body only ever runs after a full interval has elapsed.
func SkipFirst(c *everyConfig) {
	c.skipFirst = true
}

// Every returns a Schedule that fires at a fixed interval. An interval of
// zero means the task never runs.
func Every(interval time.Duration, options ...EveryOption) Schedule {
	cfg := everyConfig{}
	for _, opt := range options {
		opt(&cfg)
	}

	skip := cfg.skipFirst

	return func() (time.Duration, error) {
		if skip {
			skip = false
			return interval, errSkipFirst
		}

		return interval, nil
	}
}

// Start begins running f on the given schedule in a background goroutine.
// It returns a stop function that signals the goroutine to exit and blocks
// up to timeout for it to acknowledge, and a reset function that wakes the
// task up immediately, as if its current wait interval had just elapsed.
func Start(f Func, schedule Schedule) (stop func(timeout time.Duration) error, reset func()) {
	resetCh := make(chan struct{}, 1)
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		defer close(doneCh)
		defer cancel()

		for {
			interval, err := schedule()
			if err == nil && interval != 0 {
				f(ctx)
			}

			if interval == 0 {
				select {
				case <-resetCh:
					continue
				case <-stopCh:
					return
				}
			}

			timer := time.NewTimer(interval)

			select {
			case <-timer.C:
			case <-resetCh:
				timer.Stop()
			case <-stopCh:
				timer.Stop()
				return
			}
		}
	}()

	stop = func(timeout time.Duration) error {
		close(stopCh)

		select {
		case <-doneCh:
			return nil
		case <-time.After(timeout):
			return errStopTimeout
		}
	}

	reset = func() {
		select {
		case resetCh <- struct{}{}:
		default:
		}
	}

	return stop, reset
}

var errStopTimeout = errors.New("task: stop timed out waiting for task to finish")
