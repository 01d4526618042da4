// Package idmap represents UID/GID range mappings for a new user
// namespace: representing entries, rendering them for
// /proc/<pid>/{uid,gid}_map, and splitting an existing range when a more
// specific sub-range is added.
package idmap

import "fmt"

// Entry is a single UID or GID range mapping: Nsid inside the namespace
// maps to [Hostid, Hostid+Maprange) on the host.
type Entry struct {
	Isuid    bool
	Isgid    bool
	Hostid   int64
	Nsid     int64
	Maprange int64
}

// Set is an ordered collection of non-overlapping Entry values.
type Set struct {
	Idmap []Entry
}

// ToProcMapLines renders the set as lines suitable for writing to
// /proc/<pid>/uid_map or gid_map: "<nsid> <hostid> <maprange>".
func (s Set) ToProcMapLines(forUID bool) []string {
	lines := make([]string, 0, len(s.Idmap))

	for _, e := range s.Idmap {
		if (forUID && !e.Isuid) || (!forUID && !e.Isgid) {
			continue
		}

		lines = append(lines, fmt.Sprintf("%d %d %d", e.Nsid, e.Hostid, e.Maprange))
	}

	return lines
}

func isBetween(value, low, high int64) bool {
	return value >= low && value < high
}

// Intersects reports whether e's namespace-ID range overlaps any entry
// already in the set that shares e's uid/gid-ness.
func (s Set) Intersects(e Entry) bool {
	for _, existing := range s.Idmap {
		if existing.Isuid != e.Isuid || existing.Isgid != e.Isgid {
			continue
		}

		if e.Nsid < existing.Nsid+existing.Maprange && existing.Nsid < e.Nsid+e.Maprange {
			return true
		}
	}

	return false
}

// AddSafe adds e to the set, splitting any existing entry whose range
// contains e's first namespace ID: that entry's lower and upper remainders
// are kept as their own entries alongside e. An existing entry that e
// overlaps without containing e's first ID is left unchanged.
func (s *Set) AddSafe(e Entry) error {
	var out []Entry

	inserted := false

	for _, existing := range s.Idmap {
		if existing.Isuid != e.Isuid || existing.Isgid != e.Isgid || !isBetween(e.Nsid, existing.Nsid, existing.Nsid+existing.Maprange) {
			out = append(out, existing)
			continue
		}

		lowerLen := e.Nsid - existing.Nsid
		if lowerLen > 0 {
			out = append(out, Entry{
				Isuid: existing.Isuid, Isgid: existing.Isgid,
				Hostid: existing.Hostid, Nsid: existing.Nsid, Maprange: lowerLen,
			})
		}

		out = append(out, e)
		inserted = true

		upperStart := e.Nsid + e.Maprange
		upperLen := (existing.Nsid + existing.Maprange) - upperStart
		if upperLen > 0 {
			out = append(out, Entry{
				Isuid: existing.Isuid, Isgid: existing.Isgid,
				Hostid: existing.Hostid + (upperStart - existing.Nsid), Nsid: upperStart, Maprange: upperLen,
			})
		}
	}

	if !inserted {
		out = append(out, e)
	}

	s.Idmap = out

	return nil
}
