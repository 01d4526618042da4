//go:build linux

package cgroup

import (
	"context"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"aurae.example/auraed/internal/task"
)

// PathCache resolves a cgroup directory's inode number back to its
// directory name, refreshing lazily on a cache miss. Useful so an
// eBPF-style observer resolving a cgroup.id on an event doesn't have to
// re-readdir cgroupfs for every event; the eBPF collector itself lives
// outside this package, which only provides the inode-to-name lookup it
// would call into.
type PathCache struct {
	mu    sync.Mutex
	root  string
	byIno map[uint64]string
}

// NewPathCache constructs a cache rooted at root (typically the daemon's
// cgroup prefix directory).
func NewPathCache(root string) *PathCache {
	return &PathCache{root: root, byIno: make(map[uint64]string)}
}

// Get returns the directory name owning inode ino, refreshing once on a
// miss before giving up.
func (c *PathCache) Get(ino uint64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if name, ok := c.byIno[ino]; ok {
		return name, true
	}

	c.refreshLocked()

	name, ok := c.byIno[ino]
	return name, ok
}

func (c *PathCache) refreshLocked() {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return
	}

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}

		stat, ok := info.Sys().(*syscall.Stat_t)
		if !ok {
			continue
		}

		c.byIno[stat.Ino] = entry.Name()
	}
}

// RefreshFunc returns a task.Func suitable for task.Group.Add, so a daemon
// can keep the cache warm on a fixed period instead of paying the readdir
// cost only on the first miss after a restart.
func (c *PathCache) RefreshFunc() task.Func {
	return func(context.Context) {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.refreshLocked()
	}
}

// RefreshSchedule returns the task.Schedule paired with RefreshFunc for a
// periodic full refresh every interval.
func (c *PathCache) RefreshSchedule(interval time.Duration) task.Schedule {
	return task.Every(interval)
}

// String implements fmt.Stringer for diagnostic logging.
func (c *PathCache) String() string {
	return fmt.Sprintf("cgroup.PathCache{root=%s}", c.root)
}
