package cells

import (
	"fmt"

	"aurae.example/auraed/internal/idmap"
)

// CgroupSpec is the declarative resource-limit portion of a Spec. Any
// field may be nil, meaning "inherit from parent cgroup".
type CgroupSpec struct {
	// CPUWeight is 1-10000, proportional CPU share (cpu.weight).
	CPUWeight *Allocation `yaml:"cpu_weight,omitempty"`
	// CPUMaxQuota and CPUMaxPeriod together form cpu.max ("quota period").
	CPUMaxQuota  *Allocation `yaml:"cpu_max_quota,omitempty"`
	CPUMaxPeriod *Allocation `yaml:"cpu_max_period,omitempty"`
	// MemoryMax is bytes, or nil meaning "max" (unbounded).
	MemoryMax *Allocation `yaml:"memory_max,omitempty"`
	// MemoryLow is bytes.
	MemoryLow  *Allocation `yaml:"memory_low,omitempty"`
	CpusetCpus string      `yaml:"cpuset_cpus,omitempty"`
	CpusetMems string      `yaml:"cpuset_mems,omitempty"`
}

// IsoFlag is one isolation-namespace control bit.
type IsoFlag int

const (
	NewPIDNamespace IsoFlag = iota
	NewNetNamespace
	NewMountNamespace
	NewUTSNamespace
	NewIPCNamespace
	NewUserNamespace
)

// IDMapEntry is a single UID or GID range mapping for a new user namespace.
type IDMapEntry struct {
	ContainerID int64 `yaml:"container_id"`
	HostID      int64 `yaml:"host_id"`
	Size        int64 `yaml:"size"`
}

// IsoCtl is the isolation-controls portion of a CellSpec: a set of
// namespace flags plus optional UID/GID maps.
type IsoCtl struct {
	Flags  map[IsoFlag]bool `yaml:"flags,omitempty"`
	UIDMap []IDMapEntry     `yaml:"uid_map,omitempty"`
	GIDMap []IDMapEntry     `yaml:"gid_map,omitempty"`
}

// Has reports whether a given isolation flag is requested.
func (i IsoCtl) Has(flag IsoFlag) bool {
	return i.Flags[flag]
}

// Validate rejects a UID/GID map containing overlapping namespace-ID
// ranges, which the kernel would refuse at clone(2) time anyway. Each entry
// is checked with idmap.Set.Intersects against the entries before it (then
// inserted with AddSafe), so the first overlap is reported instead of
// letting a malformed map reach the nested daemon spawn path.
func (i IsoCtl) Validate() error {
	if err := validateIDMap(i.UIDMap, true); err != nil {
		return err
	}

	return validateIDMap(i.GIDMap, false)
}

func validateIDMap(entries []IDMapEntry, isUID bool) error {
	var set idmap.Set

	for _, e := range entries {
		candidate := idmap.Entry{
			Isuid: isUID, Isgid: !isUID,
			Hostid: e.HostID, Nsid: e.ContainerID, Maprange: e.Size,
		}

		if set.Intersects(candidate) {
			kind := "gid"
			if isUID {
				kind = "uid"
			}

			return fmt.Errorf("cells: overlapping %s map entry for container id %d", kind, e.ContainerID)
		}

		if err := set.AddSafe(candidate); err != nil {
			return err
		}
	}

	return nil
}

// Clone returns a deep copy, used when handing IsoCtl to the nested daemon
// spawn path without aliasing the caller's maps/slices.
func (i IsoCtl) Clone() IsoCtl {
	out := IsoCtl{Flags: make(map[IsoFlag]bool, len(i.Flags))}
	for k, v := range i.Flags {
		out.Flags[k] = v
	}

	out.UIDMap = append([]IDMapEntry(nil), i.UIDMap...)
	out.GIDMap = append([]IDMapEntry(nil), i.GIDMap...)

	return out
}

// Spec is the immutable declarative desired-state of a Cell, set at
// allocation time. Cloned, never mutated, after a Cell is constructed.
type Spec struct {
	CgroupSpec CgroupSpec `yaml:"cgroup_spec"`
	IsoCtl     IsoCtl     `yaml:"iso_ctl"`
}

// Clone returns a deep copy.
func (s Spec) Clone() Spec {
	return Spec{
		CgroupSpec: s.CgroupSpec,
		IsoCtl:     s.IsoCtl.Clone(),
	}
}
