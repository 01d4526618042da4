package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"aurae.example/auraed/internal/cells"
	"aurae.example/auraed/internal/cellservice"
	"aurae.example/auraed/internal/cgroup"
	"aurae.example/auraed/internal/logger"
	"aurae.example/auraed/internal/nesteddaemon"
	"aurae.example/auraed/internal/rpc"
	"aurae.example/auraed/internal/task"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type cmdDaemon struct {
	nested      bool
	cellName    string
	socket      string
	runtimeDir  string
	cgroupRoot  string
	logLevel    string
	pathCacheTTL time.Duration
}

func newRootCommand() *cobra.Command {
	d := &cmdDaemon{}

	cmd := &cobra.Command{
		Use:   "auraed",
		Short: "recursive cell-isolation daemon",
		RunE:  d.run,
	}

	cmd.Flags().BoolVar(&d.nested, "nested", false, "run as a nested daemon re-exec'd inside a cell's namespaces")
	cmd.Flags().StringVar(&d.cellName, "cell-name", "", "leaf cell name, required with --nested")
	cmd.Flags().StringVar(&d.socket, "socket", "", "listen socket path, required with --nested")
	cmd.Flags().StringVar(&d.runtimeDir, "runtime-dir", "/run/aurae", "root daemon socket/runtime directory")
	cmd.Flags().StringVar(&d.cgroupRoot, "cgroup-root", cgroup.DefaultRoot, "cgroupfs v2 mount point")
	cmd.Flags().StringVar(&d.logLevel, "log-level", "info", "debug, info, warn, error")
	cmd.Flags().DurationVar(&d.pathCacheTTL, "path-cache-refresh", 30*time.Second, "cgroup inode path cache refresh interval")

	return cmd
}

func (d *cmdDaemon) run(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(d.logLevel)
	if err != nil {
		return fmt.Errorf("auraed: parse log level: %w", err)
	}

	log := logger.New(level)

	socketPath := d.socket
	if socketPath == "" {
		socketPath = filepath.Join(d.runtimeDir, "aurae.sock")
	}

	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("auraed: prepare runtime dir: %w", err)
	}

	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("auraed: remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("auraed: listen on %s: %w", socketPath, err)
	}

	cgroupFactory := cgroup.Factory(d.cgroupRoot)
	daemonFactory := nesteddaemon.Factory(nesteddaemon.DefaultConfig(), log)

	root := cells.NewRootCache(cgroupFactory, daemonFactory, log)

	pathCache := cgroup.NewPathCache(d.cgroupRoot)
	tasks := task.NewGroup()
	tasks.Add(pathCache.RefreshFunc(), pathCache.RefreshSchedule(d.pathCacheTTL))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tasks.Start(ctx)

	svc := cellservice.New(root, &rpc.ExecutableClient{}, log)

	grpcServer := grpc.NewServer()
	rpc.RegisterCellServiceServer(grpcServer, rpc.NewAdapter(svc))

	serveErr := make(chan error, 1)
	go func() { serveErr <- grpcServer.Serve(listener) }()

	log.Info("auraed ready", logger.Fields{"socket": socketPath, "nested": d.nested, "cell": d.cellName})

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, freeing cell tree", logger.Fields{})
		svc.Shutdown()
		grpcServer.GracefulStop()

		if err := tasks.Stop(5 * time.Second); err != nil {
			log.Warn("background tasks did not stop cleanly", logger.Fields{"err": err.Error()})
		}

		return nil
	case err := <-serveErr:
		return fmt.Errorf("auraed: serve: %w", err)
	}
}
