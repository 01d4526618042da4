package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Group owns a set of scheduled tasks started and stopped together, the
// way a daemon bundles its periodic maintenance jobs (such as the cgroup
// path-cache refresh) under one shutdown call.
type Group struct {
	mu    sync.Mutex
	tasks []*groupTask
}

type groupTask struct {
	id       int
	f        Func
	schedule Schedule
	stop     func(time.Duration) error
}

// NewGroup returns an empty Group.
func NewGroup() *Group {
	return &Group{}
}

// Add registers a task under the group, returning the ID it will be
// reported under if Stop later times out waiting for it.
func (g *Group) Add(f Func, schedule Schedule) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := len(g.tasks)
	g.tasks = append(g.tasks, &groupTask{id: id, f: f, schedule: schedule})

	return id
}

// Start launches every task added so far. Each task's Func is called with
// ctx, so cancelling ctx is a second way (alongside Stop) tasks can learn
// they should wind down.
func (g *Group) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, t := range g.tasks {
		t := t
		wrapped := func(context.Context) { t.f(ctx) }
		stop, _ := Start(wrapped, t.schedule)
		t.stop = stop
	}
}

// Stop signals every task to stop and waits up to timeout for all of them
// together (not timeout per task). Tasks still running when the timeout
// elapses are reported by ID.
func (g *Group) Stop(timeout time.Duration) error {
	g.mu.Lock()
	tasks := append([]*groupTask(nil), g.tasks...)
	g.mu.Unlock()

	var (
		mu    sync.Mutex
		stuck []int
		wg    sync.WaitGroup
	)

	for _, t := range tasks {
		if t.stop == nil {
			continue
		}

		t := t

		wg.Add(1)

		go func() {
			defer wg.Done()

			if err := t.stop(timeout); err != nil {
				mu.Lock()
				stuck = append(stuck, t.id)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if len(stuck) > 0 {
		sort.Ints(stuck)
		return fmt.Errorf("Task(s) still running: IDs %v", stuck)
	}

	return nil
}
