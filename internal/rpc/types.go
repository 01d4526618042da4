// Package rpc carries the wire-level request/response shapes for the Cell
// Service and registers them on a *grpc.Server. This package does no
// credential loading and sets up no mTLS listener (the daemon entrypoint
// serves it over a plain unix socket); it only owns the service description
// and message shapes, the boundary the core's internal packages hand
// results across.
package rpc

import (
	"aurae.example/auraed/internal/cells"
	"aurae.example/auraed/internal/cellservice"
)

// AllocateRequest asks the Cell Service to allocate a new cell.
type AllocateRequest struct {
	CellName string
	Spec     cells.Spec
}

// AllocateResponse confirms the allocation.
type AllocateResponse struct {
	CellName  string
	Allocated bool
}

// FreeRequest asks the Cell Service to gracefully free a cell.
type FreeRequest struct {
	CellName string
}

// FreeResponse is empty; success is the absence of an error.
type FreeResponse struct{}

// StartRequest asks the Cell Service to start an executable inside a cell.
type StartRequest struct {
	CellName string
	Spec     cellservice.ExecutableSpec
}

// StartResponse carries the spawned process's PID.
type StartResponse struct {
	PID int
}

// StopRequest asks the Cell Service to stop a named executable in a cell.
type StopRequest struct {
	CellName       string
	ExecutableName string
}

// StopResponse carries the stopped process's exit status.
type StopResponse struct {
	ExitStatus cells.ExitStatus
}

// ListRequest has no fields; List always renders the entire tree.
type ListRequest struct{}

// ListResponse carries the live cell tree, both structured and as a
// human-readable YAML snapshot for CLI/log consumers that don't want to
// walk the graph themselves.
type ListResponse struct {
	Graph     cells.GraphNode
	GraphYAML string
}
