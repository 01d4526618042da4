package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// CellServiceServer is the server-side contract for the Cell Service RPC
// surface, implemented by an adapter wrapping *cellservice.Service.
type CellServiceServer interface {
	Allocate(context.Context, *AllocateRequest) (*AllocateResponse, error)
	Free(context.Context, *FreeRequest) (*FreeResponse, error)
	Start(context.Context, *StartRequest) (*StartResponse, error)
	Stop(context.Context, *StopRequest) (*StopResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
}

// RegisterCellServiceServer registers srv on s, the same call site pattern
// protoc-gen-go-grpc generates for a service's Register<Name>Server
// function. The message codec for AllocateRequest and friends is a
// transport-layer concern left to the caller's grpc.Server configuration.
func RegisterCellServiceServer(s *grpc.Server, srv CellServiceServer) {
	s.RegisterService(&cellServiceDesc, srv)
}

var cellServiceDesc = grpc.ServiceDesc{
	ServiceName: "aurae.cells.CellService",
	HandlerType: (*CellServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Allocate", Handler: allocateHandler},
		{MethodName: "Free", Handler: freeHandler},
		{MethodName: "Start", Handler: startHandler},
		{MethodName: "Stop", Handler: stopHandler},
		{MethodName: "List", Handler: listHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cells.proto",
}

func allocateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AllocateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(CellServiceServer).Allocate(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/aurae.cells.CellService/Allocate"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CellServiceServer).Allocate(ctx, req.(*AllocateRequest))
	}

	return interceptor(ctx, in, info, handler)
}

func freeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(FreeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(CellServiceServer).Free(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/aurae.cells.CellService/Free"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CellServiceServer).Free(ctx, req.(*FreeRequest))
	}

	return interceptor(ctx, in, info, handler)
}

func startHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StartRequest)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(CellServiceServer).Start(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/aurae.cells.CellService/Start"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CellServiceServer).Start(ctx, req.(*StartRequest))
	}

	return interceptor(ctx, in, info, handler)
}

func stopHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StopRequest)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(CellServiceServer).Stop(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/aurae.cells.CellService/Stop"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CellServiceServer).Stop(ctx, req.(*StopRequest))
	}

	return interceptor(ctx, in, info, handler)
}

func listHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListRequest)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(CellServiceServer).List(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/aurae.cells.CellService/List"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CellServiceServer).List(ctx, req.(*ListRequest))
	}

	return interceptor(ctx, in, info, handler)
}
