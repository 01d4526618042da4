package rpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"aurae.example/auraed/internal/cells"
	"aurae.example/auraed/internal/cellservice"
)

// ExecutableClient forwards Start/Stop into a nested daemon's own Cell
// Service over its unix socket, satisfying cellservice.ExecutableClient.
// It dials with insecure transport credentials; ClientConfig's PKI paths
// are not used, since credential loading stays a transport-layer boundary
// outside this core.
type ExecutableClient struct {
	DialTimeout time.Duration
}

var _ cellservice.ExecutableClient = (*ExecutableClient)(nil)

func (c *ExecutableClient) dial(ctx context.Context, cfg cells.ClientConfig) (*grpc.ClientConn, error) {
	timeout := c.DialTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return grpc.DialContext(dialCtx, "unix:"+cfg.SocketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
		grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", cfg.SocketPath)
		}),
	)
}

// Start dials the nested daemon at cfg and invokes its own Start RPC.
func (c *ExecutableClient) Start(ctx context.Context, cfg cells.ClientConfig, spec cellservice.ExecutableSpec) (int, error) {
	conn, err := c.dial(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	req := &StartRequest{Spec: spec}
	resp := new(StartResponse)

	if err := conn.Invoke(ctx, "/aurae.cells.CellService/Start", req, resp); err != nil {
		return 0, err
	}

	return resp.PID, nil
}

// Stop dials the nested daemon at cfg and invokes its own Stop RPC.
func (c *ExecutableClient) Stop(ctx context.Context, cfg cells.ClientConfig, executableName string) (cells.ExitStatus, error) {
	conn, err := c.dial(ctx, cfg)
	if err != nil {
		return cells.ExitStatus{}, err
	}
	defer conn.Close()

	req := &StopRequest{ExecutableName: executableName}
	resp := new(StopResponse)

	if err := conn.Invoke(ctx, "/aurae.cells.CellService/Stop", req, resp); err != nil {
		return cells.ExitStatus{}, err
	}

	return resp.ExitStatus, nil
}
