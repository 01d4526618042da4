// Package revert provides a best-effort rollback stack: push a cleanup
// step after each part of a multi-step operation succeeds, then either
// Fail() to run them all in reverse, or Success() to disarm. Used
// throughout internal/cells for allocate-then-unwind-on-failure paths.
package revert

// Reverter holds an ordered stack of cleanup functions.
type Reverter struct {
	fns []func()
}

// New returns an empty Reverter.
func New() *Reverter {
	return &Reverter{}
}

// Add pushes a cleanup step, to be run (in reverse order with its peers)
// if Fail is called before Success.
func (r *Reverter) Add(fn func()) {
	r.fns = append(r.fns, fn)
}

// Fail runs every added step in reverse order. Safe to call unconditionally
// via defer; a no-op once Success has been called.
func (r *Reverter) Fail() {
	for i := len(r.fns) - 1; i >= 0; i-- {
		r.fns[i]()
	}

	r.fns = nil
}

// Success disarms the Reverter: a subsequent Fail() call (e.g. from a
// deferred call site) runs nothing.
func (r *Reverter) Success() {
	r.fns = nil
}
