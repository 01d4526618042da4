//go:build !linux

package cgroup

import (
	"context"
	"fmt"
	"time"

	"aurae.example/auraed/internal/task"
)

// PathCache stubs the inode-to-path lookup on non-Linux builds: cgroupfs is
// a Linux-only concept, so there's nothing to resolve or refresh here. Kept
// so callers like cmd/auraed can wire the cache unconditionally rather than
// build-tagging every call site.
type PathCache struct {
	root string
}

// NewPathCache constructs a no-op cache rooted at root.
func NewPathCache(root string) *PathCache {
	return &PathCache{root: root}
}

// Get always misses on non-Linux builds.
func (c *PathCache) Get(ino uint64) (string, bool) {
	return "", false
}

// RefreshFunc is a no-op task.Func on non-Linux builds.
func (c *PathCache) RefreshFunc() task.Func {
	return func(context.Context) {}
}

// RefreshSchedule still returns a real schedule so task.Group.Add behaves
// identically across platforms even though the refresh itself is a no-op.
func (c *PathCache) RefreshSchedule(interval time.Duration) task.Schedule {
	return task.Every(interval)
}

// String implements fmt.Stringer for diagnostic logging.
func (c *PathCache) String() string {
	return fmt.Sprintf("cgroup.PathCache{root=%s, unsupported platform}", c.root)
}
