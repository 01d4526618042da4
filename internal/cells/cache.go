package cells

import (
	"fmt"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"

	"aurae.example/auraed/internal/cellname"
	"aurae.example/auraed/internal/logger"
)

// GraphNode is the tree-shaped accumulator produced by CellGraph, used by
// List() to render the live cell tree.
type GraphNode struct {
	Name     string     `yaml:"name"`
	Spec     Spec       `yaml:"spec"`
	Children []GraphNode `yaml:"children,omitempty"`
}

// YAML renders the node and its full subtree as a human-readable
// cell_graph snapshot, the same shape an operator would dump for a List()
// call or for diagnostics.
func (n GraphNode) YAML() ([]byte, error) {
	out, err := yaml.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("cells: marshal graph to yaml: %w", err)
	}

	return out, nil
}

// Cache is a name-keyed map of live Cells at one level of the tree. It
// owns its Cells: removing an entry, or tearing down the Cache itself,
// finalizes the corresponding Cell.
type Cache struct {
	scope cellname.Name
	log   logger.Logger

	cgroupFactory CgroupFactory
	daemonFactory DaemonFactory

	cells map[string]*Cell
}

// NewCache constructs an empty Cache scoped to the given parent name (the
// root cache is scoped to the empty name and is never itself addressed).
func NewCache(scope cellname.Name) *Cache {
	return &Cache{scope: scope, cells: make(map[string]*Cell)}
}

// NewRootCache constructs the process-wide root Cache, wired with the
// factories used to materialize cgroups and nested daemons.
func NewRootCache(cgroupFactory CgroupFactory, daemonFactory DaemonFactory, log logger.Logger) *Cache {
	c := NewCache(cellname.Name{})
	c.cgroupFactory = cgroupFactory
	c.daemonFactory = daemonFactory
	c.log = log

	return c
}

// withFactories propagates the root's factories down into a freshly
// constructed child Cell, since only the root Cache is built with
// NewRootCache -- every descendant Cache is built bare by Cell.Allocate.
func (c *Cache) withFactories(cgroupFactory CgroupFactory, daemonFactory DaemonFactory, log logger.Logger) {
	c.cgroupFactory = cgroupFactory
	c.daemonFactory = daemonFactory
	c.log = log
}

// Allocate inserts and allocates a new Cell at name, forwarding to a
// descendant Cache when name has more than one remaining segment.
// All-or-nothing: the map entry is committed only if the underlying
// Allocate() call succeeds.
func (c *Cache) Allocate(name cellname.Name, spec Spec) (*Cell, error) {
	head := name.Head()

	if rest, hasTail := name.Tail(); hasTail {
		child, ok := c.cells[head]
		if !ok {
			return nil, newCellNotFound(leafName(c.scope, head))
		}

		children, err := child.Children()
		if err != nil {
			return nil, err
		}

		children.withFactories(c.cgroupFactory, c.daemonFactory, c.log)

		return children.Allocate(rest, spec)
	}

	if _, exists := c.cells[head]; exists {
		return nil, newCellExists(name)
	}

	cell := New(leafName(c.scope, head), spec, c.cgroupFactory, c.daemonFactory, c.log)
	if err := cell.Allocate(); err != nil {
		return nil, err
	}

	c.cells[head] = cell

	return cell, nil
}

// Free locates the named Cell via path traversal, drives it to Freed, and
// removes it from the map.
func (c *Cache) Free(name cellname.Name) error {
	return c.teardownNamed(name, (*Cell).Free)
}

// Kill is the forceful counterpart to Free.
func (c *Cache) Kill(name cellname.Name) error {
	return c.teardownNamed(name, (*Cell).Kill)
}

func (c *Cache) teardownNamed(name cellname.Name, do func(*Cell) error) error {
	head := name.Head()

	if rest, hasTail := name.Tail(); hasTail {
		child, ok := c.cells[head]
		if !ok {
			return newCellNotFound(name)
		}

		children, err := child.Children()
		if err != nil {
			return err
		}

		return children.teardownNamed(rest, do)
	}

	cell, ok := c.cells[head]
	if !ok {
		return newCellNotFound(name)
	}

	err := do(cell)
	delete(c.cells, head)

	return err
}

// Get traverses to the named Cell and runs fn under a read-only view. fn
// must not mutate the Cell.
func (c *Cache) Get(name cellname.Name, fn func(*Cell) error) error {
	head := name.Head()

	if rest, hasTail := name.Tail(); hasTail {
		child, ok := c.cells[head]
		if !ok {
			return newCellNotFound(name)
		}

		children, err := child.Children()
		if err != nil {
			return err
		}

		return children.Get(rest, fn)
	}

	cell, ok := c.cells[head]
	if !ok {
		return newCellNotFound(name)
	}

	return fn(cell)
}

// broadcastFree drives every entry at this level (and, recursively, every
// descendant) to Freed via the graceful path, without removing entries --
// the Cache itself is presumed to be going out of scope. Individual
// failures are logged, never halting the broadcast; they are not returned
// to the caller.
func (c *Cache) broadcastFree() {
	c.broadcast("free", (*Cell).Free)
}

// broadcastKill is the forceful counterpart to broadcastFree.
func (c *Cache) broadcastKill() {
	c.broadcast("kill", (*Cell).Kill)
}

// maxBroadcastConcurrency bounds how many sibling teardowns run at once, so
// a cell with a very wide set of children doesn't spawn one goroutine per
// child unbounded.
const maxBroadcastConcurrency = 16

func (c *Cache) broadcast(label string, do func(*Cell) error) {
	var g errgroup.Group
	g.SetLimit(maxBroadcastConcurrency)

	for name, cell := range c.cells {
		name, cell := name, cell

		g.Go(func() error {
			if err := do(cell); err != nil {
				c.log.Error("broadcast "+label+" failed for cell", logger.Fields{
					"cell": name,
					"err":  err.Error(),
				})
			}

			return nil
		})
	}

	_ = g.Wait()
}

// CellGraph appends every Cell's (name, spec) reachable from this Cache,
// depth-first, to node. Used by List().
func (c *Cache) CellGraph(node GraphNode) (GraphNode, error) {
	for _, cell := range c.cells {
		child := GraphNode{Name: cell.Name().String(), Spec: cell.Spec()}

		if cell.IsAllocated() {
			grandchildren, err := cell.Children()
			if err != nil {
				return GraphNode{}, err
			}

			child, err = grandchildren.CellGraph(child)
			if err != nil {
				return GraphNode{}, err
			}
		}

		node.Children = append(node.Children, child)
	}

	return node, nil
}

// Shutdown gracefully frees every Cell this Cache directly owns (and,
// transitively, their descendants), the broadcast path a daemon's
// SIGTERM/SIGINT handler drives on the root Cache.
func (c *Cache) Shutdown() {
	c.broadcastFree()
}

// Finalize tears down every Cell this Cache owns without removing entries,
// used when the Cache itself is being discarded (e.g. the root cache on
// daemon shutdown). Go has no deterministic finalizers, so the owner must
// call this explicitly before letting the Cache go.
func (c *Cache) Finalize() {
	for _, cell := range c.cells {
		cell.Finalize()
	}
}

// Len reports the number of Cells directly owned at this level.
func (c *Cache) Len() int {
	return len(c.cells)
}

func leafName(scope cellname.Name, leaf string) cellname.Name {
	if scope.Empty() {
		n, _ := cellname.Parse(leaf)
		return n
	}

	n, err := scope.Child(leaf)
	if err != nil {
		return scope
	}

	return n
}
