package cells

// Allocation is a validated non-negative quantity used for any quantified
// resource attribute (cpu_weight, cpu_max quota/period, memory_max,
// memory_low). Rejects negative input at construction so callers never
// have to re-check it downstream.
type Allocation struct {
	value int64
}

// NewAllocation validates value and names field/parent in the returned
// error.
func NewAllocation(field, parent string, value int64) (Allocation, error) {
	if value < 0 {
		return Allocation{}, &ValidationError{
			Field:  field,
			Parent: parent,
			Reason: "must be >= 0",
		}
	}

	return Allocation{value: value}, nil
}

// IntoInner returns the underlying i64.
func (a Allocation) IntoInner() int64 {
	return a.value
}

// MarshalYAML renders an Allocation as the bare integer it wraps, rather
// than its unexported field, so CgroupSpec yaml-marshals to a readable
// cell_graph snapshot.
func (a Allocation) MarshalYAML() (interface{}, error) {
	return a.value, nil
}
