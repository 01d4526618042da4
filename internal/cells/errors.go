package cells

import (
	"errors"
	"fmt"

	"aurae.example/auraed/internal/cellname"
)

// Sentinel error kinds surfaced by the Cell subsystem. Each is carried as
// the Source of a CellError that names the offending cell, so errors.Is
// still matches it.
var (
	ErrCellExists       = errors.New("cell already exists at this level")
	ErrCellNotFound     = errors.New("cell not found")
	ErrCellNotAllocated = errors.New("cell is not allocated")
)

// Kind identifies the machine-readable error kind for RPC status mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindCellExists
	KindCellNotFound
	KindCellNotAllocated
	KindFailedToAllocateCell
	KindAbortedAllocateCell
	KindFailedToFreeCell
	KindFailedToKillCellChildren
	KindValidationError
)

func (k Kind) String() string {
	switch k {
	case KindCellExists:
		return "CellExists"
	case KindCellNotFound:
		return "CellNotFound"
	case KindCellNotAllocated:
		return "CellNotAllocated"
	case KindFailedToAllocateCell:
		return "FailedToAllocateCell"
	case KindAbortedAllocateCell:
		return "AbortedAllocateCell"
	case KindFailedToFreeCell:
		return "FailedToFreeCell"
	case KindFailedToKillCellChildren:
		return "FailedToKillCellChildren"
	case KindValidationError:
		return "ValidationError"
	default:
		return "Unknown"
	}
}

// CellError is the structured error type this package returns: a kind,
// the cell it concerns, and the wrapped cause (if any).
type CellError struct {
	Kind     Kind
	CellName cellname.Name
	Source   error
}

func (e *CellError) Error() string {
	if e.Source != nil {
		return fmt.Sprintf("%s: cell %q: %v", e.Kind, e.CellName, e.Source)
	}

	return fmt.Sprintf("%s: cell %q", e.Kind, e.CellName)
}

func (e *CellError) Unwrap() error {
	return e.Source
}

func newCellExists(name cellname.Name) error {
	return &CellError{Kind: KindCellExists, CellName: name, Source: ErrCellExists}
}

func newCellNotFound(name cellname.Name) error {
	return &CellError{Kind: KindCellNotFound, CellName: name, Source: ErrCellNotFound}
}

func newCellNotAllocated(name cellname.Name) error {
	return &CellError{Kind: KindCellNotAllocated, CellName: name, Source: ErrCellNotAllocated}
}

func newFailedToAllocateCell(name cellname.Name, source error) error {
	return &CellError{Kind: KindFailedToAllocateCell, CellName: name, Source: source}
}

func newAbortedAllocateCell(name cellname.Name, source error) error {
	return &CellError{Kind: KindAbortedAllocateCell, CellName: name, Source: source}
}

func newFailedToFreeCell(name cellname.Name, source error) error {
	return &CellError{Kind: KindFailedToFreeCell, CellName: name, Source: source}
}

func newFailedToKillCellChildren(name cellname.Name, source error) error {
	return &CellError{Kind: KindFailedToKillCellChildren, CellName: name, Source: source}
}

// ValidationError reports a rejected field, qualified by its parent
// struct, so a nested CgroupSpec field names both itself and its owner.
type ValidationError struct {
	Field  string
	Parent string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Parent != "" {
		return fmt.Sprintf("validation: %s.%s: %s", e.Parent, e.Field, e.Reason)
	}

	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}
