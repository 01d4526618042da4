package rpc

import (
	"context"

	"aurae.example/auraed/internal/cellservice"
)

// Adapter implements CellServiceServer on top of a *cellservice.Service,
// translating between the wire request/response shapes and the facade's
// plain Go method signatures.
type Adapter struct {
	svc *cellservice.Service
}

// NewAdapter wraps svc for gRPC registration.
func NewAdapter(svc *cellservice.Service) *Adapter {
	return &Adapter{svc: svc}
}

var _ CellServiceServer = (*Adapter)(nil)

func (a *Adapter) Allocate(_ context.Context, req *AllocateRequest) (*AllocateResponse, error) {
	name, allocated, err := a.svc.Allocate(req.CellName, req.Spec)
	if err != nil {
		return nil, err
	}

	return &AllocateResponse{CellName: name.String(), Allocated: allocated}, nil
}

func (a *Adapter) Free(_ context.Context, req *FreeRequest) (*FreeResponse, error) {
	if err := a.svc.Free(req.CellName); err != nil {
		return nil, err
	}

	return &FreeResponse{}, nil
}

func (a *Adapter) Start(ctx context.Context, req *StartRequest) (*StartResponse, error) {
	pid, err := a.svc.Start(ctx, req.CellName, req.Spec)
	if err != nil {
		return nil, err
	}

	return &StartResponse{PID: pid}, nil
}

func (a *Adapter) Stop(ctx context.Context, req *StopRequest) (*StopResponse, error) {
	status, err := a.svc.Stop(ctx, req.CellName, req.ExecutableName)
	if err != nil {
		return nil, err
	}

	return &StopResponse{ExitStatus: status}, nil
}

func (a *Adapter) List(_ context.Context, _ *ListRequest) (*ListResponse, error) {
	graph, err := a.svc.List()
	if err != nil {
		return nil, err
	}

	rendered, err := graph.YAML()
	if err != nil {
		return nil, err
	}

	return &ListResponse{Graph: graph, GraphYAML: string(rendered)}, nil
}
