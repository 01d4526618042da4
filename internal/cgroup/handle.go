// Package cgroup owns a single cgroup v2 directory: creating it, writing
// resource-limit control files, attaching task PIDs, and deleting it.
// Talks to cgroupfs v2 directly by reading and writing its control files;
// cgroup v1 is not supported.
package cgroup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"aurae.example/auraed/internal/cells"
	"aurae.example/auraed/internal/cellname"
)

// DefaultRoot is the well-known cgroupfs mount point.
const DefaultRoot = "/sys/fs/cgroup"

// ErrBusy is returned by Delete when the kernel refuses removal because
// member tasks are still alive. Callers get a structured failure rather
// than Delete looping on their behalf.
var ErrBusy = errors.New("cgroup: directory busy, member tasks still present")

// Handle represents one cgroup v2 directory under root/<cell-path>. It
// implements cells.CgroupHandle.
type Handle struct {
	root string
	path string
	spec cells.CgroupSpec

	created bool
}

var _ cells.CgroupHandle = (*Handle)(nil)

// New constructs the in-memory handle. Side-effect-free; Create() is a
// distinct step.
func New(root string, name cellname.Name, spec cells.CgroupSpec) *Handle {
	if root == "" {
		root = DefaultRoot
	}

	return &Handle{
		root: root,
		path: filepath.Join(root, filepath.FromSlash(name.String())),
		spec: spec,
	}
}

// Factory adapts New into a cells.CgroupFactory bound to a fixed root.
func Factory(root string) cells.CgroupFactory {
	return func(name cellname.Name, spec cells.CgroupSpec) (cells.CgroupHandle, error) {
		return New(root, name, spec), nil
	}
}

// Path returns the cgroup's directory on disk.
func (h *Handle) Path() string {
	return h.path
}

// Create makes the directory and writes every non-absent spec field to its
// control file. On any write failure it attempts to rmdir the directory
// before returning the original error.
func (h *Handle) Create() error {
	if err := os.MkdirAll(h.path, 0o755); err != nil {
		return fmt.Errorf("cgroup: create %s: %w", h.path, err)
	}

	h.created = true

	for _, w := range h.writes() {
		if err := h.writeFile(w.file, w.value); err != nil {
			_ = os.Remove(h.path)
			h.created = false

			return fmt.Errorf("cgroup: write %s: %w", w.file, err)
		}
	}

	return nil
}

type controlWrite struct {
	file  string
	value string
}

func (h *Handle) writes() []controlWrite {
	var out []controlWrite

	if h.spec.CPUWeight != nil {
		out = append(out, controlWrite{"cpu.weight", strconv.FormatInt(h.spec.CPUWeight.IntoInner(), 10)})
	}

	if h.spec.CPUMaxQuota != nil {
		period := int64(100000)
		if h.spec.CPUMaxPeriod != nil {
			period = h.spec.CPUMaxPeriod.IntoInner()
		}

		quota := "max"
		if h.spec.CPUMaxQuota.IntoInner() >= 0 {
			quota = strconv.FormatInt(h.spec.CPUMaxQuota.IntoInner(), 10)
		}

		out = append(out, controlWrite{"cpu.max", fmt.Sprintf("%s %d", quota, period)})
	}

	if h.spec.MemoryMax != nil {
		out = append(out, controlWrite{"memory.max", strconv.FormatInt(h.spec.MemoryMax.IntoInner(), 10)})
	}

	if h.spec.MemoryLow != nil {
		out = append(out, controlWrite{"memory.low", strconv.FormatInt(h.spec.MemoryLow.IntoInner(), 10)})
	}

	if h.spec.CpusetCpus != "" {
		out = append(out, controlWrite{"cpuset.cpus", h.spec.CpusetCpus})
	}

	if h.spec.CpusetMems != "" {
		out = append(out, controlWrite{"cpuset.mems", h.spec.CpusetMems})
	}

	return out
}

func (h *Handle) writeFile(name, value string) error {
	return os.WriteFile(filepath.Join(h.path, name), []byte(value), 0o600)
}

// AddTask writes pid to cgroup.procs -- the sole mechanism by which a
// process joins the cell.
func (h *Handle) AddTask(pid int) error {
	if !h.created {
		return fmt.Errorf("cgroup: %s: not created", h.path)
	}

	if pid <= 0 {
		return fmt.Errorf("cgroup: invalid pid %d", pid)
	}

	if err := h.writeFile("cgroup.procs", strconv.Itoa(pid)); err != nil {
		return fmt.Errorf("cgroup: add task %d: %w", pid, err)
	}

	return nil
}

// Delete removes the directory. Deleting an absent directory returns
// success (idempotent). EBUSY -- member tasks still alive -- is surfaced
// as ErrBusy rather than retried in a loop.
func (h *Handle) Delete() error {
	err := os.Remove(h.path)
	if err == nil || os.IsNotExist(err) {
		h.created = false
		return nil
	}

	if errors.Is(err, unixEBUSY) {
		return ErrBusy
	}

	return fmt.Errorf("cgroup: delete %s: %w", h.path, err)
}

// V2 is always true: v1 is not supported by this design.
func (h *Handle) V2() bool {
	return true
}
