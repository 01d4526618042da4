package task_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurae.example/auraed/internal/task"
)

// tracker counts invocations of a task.Func and lets a test block until the
// next one lands, failing the test outright if it's ever called more times
// than expected.
type tracker struct {
	t       *testing.T
	max     int
	calls   int
	fired   chan struct{}
}

func newTracker(t *testing.T, max int) *tracker {
	return &tracker{t: t, max: max, fired: make(chan struct{})}
}

func (tr *tracker) run(context.Context) {
	if tr.calls == tr.max {
		tr.t.Fatalf("task fired more than the expected %d times", tr.max)
	}

	tr.calls++
	tr.fired <- struct{}{}
}

func (tr *tracker) awaitFire(within time.Duration) {
	select {
	case <-tr.fired:
	case <-time.After(within):
		tr.t.Fatalf("task did not fire within %s", within)
	}
}

func runUntilStopped(t *testing.T, f task.Func, schedule task.Schedule) func() {
	stop, _ := task.Start(f, schedule)
	return func() { assert.NoError(t, stop(time.Second)) }
}

func TestStart_RunsOnceImmediatelyBeforeFirstInterval(t *testing.T) {
	tr := newTracker(t, 1)
	defer runUntilStopped(t, tr.run, task.Every(time.Second))()

	tr.awaitFire(100 * time.Millisecond)
}

func TestStart_RepeatsOnEveryInterval(t *testing.T) {
	tr := newTracker(t, 2)
	defer runUntilStopped(t, tr.run, task.Every(250*time.Millisecond))()

	tr.awaitFire(100 * time.Millisecond)
	tr.awaitFire(400 * time.Millisecond)
}

func TestReset_RestartsTheWaitImmediately(t *testing.T) {
	tr := newTracker(t, 3)
	stop, reset := task.Start(tr.run, task.Every(250*time.Millisecond))
	defer stop(time.Second)

	tr.awaitFire(50 * time.Millisecond)
	reset()
	tr.awaitFire(50 * time.Millisecond)
	tr.awaitFire(400 * time.Millisecond)
}

func TestEvery_ZeroIntervalNeverFires(t *testing.T) {
	tr := newTracker(t, 0)
	defer runUntilStopped(t, tr.run, task.Every(0))()

	time.Sleep(100 * time.Millisecond)
}

func TestStart_ScheduleErrorSuppressesThatRoundsRun(t *testing.T) {
	alwaysErrors := func() (time.Duration, error) {
		return 0, errors.New("refresh source unavailable")
	}

	tr := newTracker(t, 0)
	defer runUntilStopped(t, tr.run, alwaysErrors)()

	time.Sleep(100 * time.Millisecond)
}

func TestStart_RecoversAfterATransientScheduleError(t *testing.T) {
	var failedOnce bool
	recoveringSchedule := func() (time.Duration, error) {
		if !failedOnce {
			failedOnce = true
			return time.Millisecond, errors.New("refresh source briefly unavailable")
		}

		return time.Second, nil
	}

	tr := newTracker(t, 1)
	defer runUntilStopped(t, tr.run, recoveringSchedule)()

	tr.awaitFire(50 * time.Millisecond)
}

func TestSkipFirst_SuppressesTheInitialRunOnly(t *testing.T) {
	var runs int
	count := func(context.Context) { runs++ }

	defer runUntilStopped(t, count, task.Every(250*time.Millisecond, task.SkipFirst))()

	time.Sleep(400 * time.Millisecond)
	require.Equal(t, 1, runs)
}
