package cells

import (
	"aurae.example/auraed/internal/cellname"
	"aurae.example/auraed/internal/logger"
	"aurae.example/auraed/internal/revert"
)

// lifecycle is a Cell's state: Unallocated, Allocated (with owned
// cgroup/daemon/children), or Freed (absorbing -- no further transitions).
type lifecycle int

const (
	stateUnallocated lifecycle = iota
	stateAllocated
	stateFreed
)

// Cell binds one CgroupHandle to one NestedDaemonHandle under a single
// CellName. Identity is (name, spec); neither is ever mutated after
// construction — NEVER add a setter for cellName or spec here.
type Cell struct {
	cellName cellname.Name
	spec     Spec
	log      logger.Logger

	cgroupFactory CgroupFactory
	daemonFactory DaemonFactory

	state    lifecycle
	cgroup   CgroupHandle
	daemon   NestedDaemonHandle
	children *Cache
}

// New constructs an Unallocated Cell. Side-effect-free.
func New(name cellname.Name, spec Spec, cgroupFactory CgroupFactory, daemonFactory DaemonFactory, log logger.Logger) *Cell {
	return &Cell{
		cellName:      name,
		spec:          spec.Clone(),
		log:           log,
		cgroupFactory: cgroupFactory,
		daemonFactory: daemonFactory,
		state:         stateUnallocated,
	}
}

// Name returns the Cell's CellName.
func (c *Cell) Name() cellname.Name {
	return c.cellName
}

// Spec returns the Cell's immutable CellSpec.
func (c *Cell) Spec() Spec {
	return c.spec
}

// IsAllocated reports whether the Cell currently owns kernel resources.
func (c *Cell) IsAllocated() bool {
	return c.state == stateAllocated
}

// IsFreed reports whether the Cell has reached the absorbing terminal state.
func (c *Cell) IsFreed() bool {
	return c.state == stateFreed
}

// Allocate constructs the nested daemon and cgroup handle, attaches the
// daemon's PID to the cgroup, and transitions Unallocated -> Allocated with
// a fresh, empty child Cache. A no-op returning success on Allocated or
// Freed -- Freed never revives.
func (c *Cell) Allocate() error {
	if c.state != stateUnallocated {
		return nil
	}

	if err := c.spec.IsoCtl.Validate(); err != nil {
		return newFailedToAllocateCell(c.cellName, err)
	}

	daemon, err := c.daemonFactory(c.cellName.Leaf(), c.spec.IsoCtl)
	if err != nil {
		return newFailedToAllocateCell(c.cellName, err)
	}

	rb := revert.New()
	defer rb.Fail()

	rb.Add(func() { _, _ = daemon.Kill() })

	pid := daemon.PID()

	cgroup, err := c.cgroupFactory(c.cellName, c.spec.CgroupSpec)
	if err != nil {
		return newAbortedAllocateCell(c.cellName, err)
	}

	if err := cgroup.Create(); err != nil {
		return newAbortedAllocateCell(c.cellName, err)
	}

	rb.Add(func() { _ = cgroup.Delete() })

	if err := cgroup.AddTask(pid); err != nil {
		return newAbortedAllocateCell(c.cellName, err)
	}

	c.log.Info("attached nested daemon to cgroup", logger.Fields{"cell": c.cellName.String(), "pid": pid})

	rb.Success()

	c.cgroup = cgroup
	c.daemon = daemon
	c.children = NewCache(c.cellName)
	c.state = stateAllocated

	return nil
}

// Free broadcasts a graceful free to children, gracefully shuts down the
// nested daemon, deletes the cgroup, and always ends in Freed -- even if a
// sub-step errors.
func (c *Cell) Free() error {
	return c.teardown(func(d NestedDaemonHandle) (ExitStatus, error) { return d.Shutdown() }, (*Cache).broadcastFree)
}

// Kill forcefully shuts down the nested daemon (SIGKILL) and always ends in
// Freed.
func (c *Cell) Kill() error {
	return c.teardown(func(d NestedDaemonHandle) (ExitStatus, error) { return d.Kill() }, (*Cache).broadcastKill)
}

func (c *Cell) teardown(stop func(NestedDaemonHandle) (ExitStatus, error), broadcastChildren func(*Cache)) error {
	if c.state != stateAllocated {
		c.state = stateFreed
		return nil
	}

	broadcastChildren(c.children)

	var firstErr error

	if _, err := stop(c.daemon); err != nil {
		firstErr = newFailedToKillCellChildren(c.cellName, err)
	}

	if err := c.cgroup.Delete(); err != nil && firstErr == nil {
		firstErr = newFailedToFreeCell(c.cellName, err)
	}

	// State transitions to Freed unconditionally -- reconciliation with
	// any kernel state a failed sub-step left behind is the operator's
	// responsibility from here on.
	c.state = stateFreed
	c.cgroup = nil
	c.daemon = nil

	return firstErr
}

// ClientConfig returns the nested daemon's client configuration, failing
// unless the Cell is Allocated.
func (c *Cell) ClientConfig() (ClientConfig, error) {
	if c.state != stateAllocated {
		return ClientConfig{}, newCellNotAllocated(c.cellName)
	}

	return c.daemon.ClientConfig()
}

// V2 reports whether the cell's cgroup is v2-backed, or false with ok=false
// if the Cell is not Allocated.
func (c *Cell) V2() (v2 bool, ok bool) {
	if c.state != stateAllocated {
		return false, false
	}

	return c.cgroup.V2(), true
}

// Children exposes the Cell's inner Cache for delegation of deeper
// hierarchical operations. Returns CellNotAllocated if the Cell isn't
// Allocated.
func (c *Cell) Children() (*Cache, error) {
	if c.state != stateAllocated {
		return nil, newCellNotAllocated(c.cellName)
	}

	return c.children, nil
}

// Finalize is the explicit reconciliation backstop called by the owning
// Cache's Finalize when the Cache itself is torn down (a Cell removed via
// Cache.Free or Cache.Kill has already been driven to Freed). Go has no
// deterministic destructors, so this must be called explicitly rather
// than relying on a drop/finalizer to kill a lingering daemon.
func (c *Cell) Finalize() {
	if c.state != stateAllocated {
		return
	}

	if err := c.Kill(); err != nil {
		c.log.Error("best-effort finalize failed", logger.Fields{"cell": c.cellName.String(), "err": err.Error()})
	}
}
