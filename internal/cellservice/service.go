// Package cellservice is the RPC-facing facade in front of the root Cell
// Cache: it parses incoming hierarchical names, validates specs, and
// routes every call through a single exclusive lock so tree mutations
// serialize and read operations never race a concurrent allocation.
package cellservice

import (
	"context"
	"sync"

	"aurae.example/auraed/internal/cellname"
	"aurae.example/auraed/internal/cells"
	"aurae.example/auraed/internal/logger"
)

// ExecutableSpec describes a process to start inside an already-allocated
// cell's nested daemon.
type ExecutableSpec struct {
	Name string
	Path string
	Args []string
	Env  []string
}

// ExecutableClient forwards Start/Stop calls into a nested daemon reached
// through its ClientConfig. The actual dial and wire call are a transport
// concern (internal/rpc provides the grpc-backed implementation); this
// package only needs the ability to forward, not the codec.
type ExecutableClient interface {
	Start(ctx context.Context, cfg cells.ClientConfig, spec ExecutableSpec) (pid int, err error)
	Stop(ctx context.Context, cfg cells.ClientConfig, executableName string) (cells.ExitStatus, error)
}

// Service is the Cell Service facade. One Service wraps one process-wide
// root Cache.
type Service struct {
	mu   sync.Mutex
	root *cells.Cache
	log  logger.Logger

	executables ExecutableClient
}

// New constructs a Service around a root Cache built by the caller with
// concrete cgroup/nested-daemon factories (internal/cgroup.Factory,
// internal/nesteddaemon.Factory).
func New(root *cells.Cache, executables ExecutableClient, log logger.Logger) *Service {
	return &Service{root: root, executables: executables, log: log}
}

// Allocate parses name, validates spec is well-formed isolation-wise, and
// allocates a new Cell under the root cache.
func (s *Service) Allocate(rawName string, spec cells.Spec) (cellname.Name, bool, error) {
	name, err := cellname.Parse(rawName)
	if err != nil {
		return cellname.Name{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.root.Allocate(name, spec); err != nil {
		return cellname.Name{}, false, err
	}

	return name, true, nil
}

// Free parses name and frees the corresponding Cell gracefully.
func (s *Service) Free(rawName string) error {
	name, err := cellname.Parse(rawName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.root.Free(name)
}

// Start forwards an executable-spawn request into the named cell's nested
// daemon and returns the resulting PID.
func (s *Service) Start(ctx context.Context, rawName string, spec ExecutableSpec) (int, error) {
	name, err := cellname.Parse(rawName)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	var cfg cells.ClientConfig
	getErr := s.root.Get(name, func(c *cells.Cell) error {
		var err error
		cfg, err = c.ClientConfig()
		return err
	})
	s.mu.Unlock()

	if getErr != nil {
		return 0, getErr
	}

	return s.executables.Start(ctx, cfg, spec)
}

// Stop forwards an executable-stop request into the named cell's nested
// daemon and returns its exit status.
func (s *Service) Stop(ctx context.Context, rawName string, executableName string) (cells.ExitStatus, error) {
	name, err := cellname.Parse(rawName)
	if err != nil {
		return cells.ExitStatus{}, err
	}

	s.mu.Lock()
	var cfg cells.ClientConfig
	getErr := s.root.Get(name, func(c *cells.Cell) error {
		var err error
		cfg, err = c.ClientConfig()
		return err
	})
	s.mu.Unlock()

	if getErr != nil {
		return cells.ExitStatus{}, getErr
	}

	return s.executables.Stop(ctx, cfg, executableName)
}

// List renders the full live cell tree rooted at the root cache.
func (s *Service) List() (cells.GraphNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.root.CellGraph(cells.GraphNode{Name: "/"})
}

// Shutdown broadcasts a graceful free across the entire tree, used on
// SIGTERM/SIGINT.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.root.Shutdown()
}
