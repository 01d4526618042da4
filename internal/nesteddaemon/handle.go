// Package nesteddaemon owns a child process that re-execs the daemon
// binary inside fresh Linux namespaces, and the client endpoint a caller
// uses to reach it: fork/exec, signal delivery, and wait, generalized to a
// recursive nested-daemon-as-child pattern where each cell runs its own
// supervised daemon.
package nesteddaemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/strategy"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"aurae.example/auraed/internal/cells"
	"aurae.example/auraed/internal/logger"
)

// Config carries the readiness and shutdown timing knobs for a nested
// daemon: how long to wait for readiness, and how long a graceful
// shutdown gets before escalating to SIGKILL.
type Config struct {
	// DaemonBinaryPath is the executable re-exec'd into the new
	// namespaces. Defaults to the current process's own binary.
	DaemonBinaryPath string
	// SocketDir is where each nested daemon's listen socket is created.
	SocketDir string
	// ReadinessTimeout bounds how long New() waits for the child's
	// socket to appear before declaring the spawn failed.
	ReadinessTimeout time.Duration
	// ReadinessPollInterval is the delay between readiness polls.
	ReadinessPollInterval time.Duration
	// GracefulTimeout bounds how long Shutdown() waits after SIGTERM
	// before escalating to SIGKILL.
	GracefulTimeout time.Duration
}

// DefaultConfig picks conservative defaults for the timers above.
func DefaultConfig() Config {
	return Config{
		DaemonBinaryPath:      "",
		SocketDir:             "/run/aurae",
		ReadinessTimeout:      5 * time.Second,
		ReadinessPollInterval: 25 * time.Millisecond,
		GracefulTimeout:       10 * time.Second,
	}
}

// Handle owns one nested daemon child process.
type Handle struct {
	cfg Config
	log logger.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	pid    int
	config cells.ClientConfig
}

var _ cells.NestedDaemonHandle = (*Handle)(nil)

// Factory adapts New into a cells.DaemonFactory bound to a fixed Config.
func Factory(cfg Config, log logger.Logger) cells.DaemonFactory {
	return func(leafName string, isoCtl cells.IsoCtl) (cells.NestedDaemonHandle, error) {
		return New(cfg, log, leafName, isoCtl)
	}
}

// New forks/execs the daemon in nested mode inside the namespaces
// requested by isoCtl, and waits for its readiness signal. On any failure
// it terminates a partially started child and returns a structured error.
func New(cfg Config, log logger.Logger, leafName string, isoCtl cells.IsoCtl) (*Handle, error) {
	binary := cfg.DaemonBinaryPath
	if binary == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("nesteddaemon: resolve self binary: %w", err)
		}

		binary = self
	}

	socketName := fmt.Sprintf("%s-%s.sock", leafName, uuid.New().String())
	socketPath := filepath.Join(cfg.SocketDir, socketName)

	cmd := exec.Command(binary, "--nested", "--cell-name", leafName, "--socket", socketPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: cloneFlags(isoCtl),
		// Kill-on-drop: the nested daemon dies if this process dies
		// without an explicit Shutdown()/Kill().
		Pdeathsig: unix.SIGKILL,
	}

	if isoCtl.Has(cells.NewUserNamespace) {
		cmd.SysProcAttr.UidMappings = toSysProcIDMap(isoCtl.UIDMap)
		cmd.SysProcAttr.GidMappings = toSysProcIDMap(isoCtl.GIDMap)
		cmd.SysProcAttr.GidMappingsEnableSetgroups = false
	}

	if err := os.MkdirAll(cfg.SocketDir, 0o755); err != nil {
		return nil, fmt.Errorf("nesteddaemon: prepare socket dir: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("nesteddaemon: spawn %s: %w", leafName, err)
	}

	h := &Handle{
		cfg: cfg,
		log: log,
		cmd: cmd,
		pid: cmd.Process.Pid,
		config: cells.ClientConfig{
			SocketPath: socketPath,
		},
	}

	if err := h.waitReady(socketPath); err != nil {
		_, _ = h.Kill()
		return nil, fmt.Errorf("nesteddaemon: %s never became ready: %w", leafName, err)
	}

	log.Info("nested daemon ready", logger.Fields{"cell": leafName, "pid": h.pid, "socket": socketPath})

	return h, nil
}

func (h *Handle) waitReady(socketPath string) error {
	attempts := uint(h.cfg.ReadinessTimeout / h.cfg.ReadinessPollInterval)
	if attempts == 0 {
		attempts = 1
	}

	return retry.Retry(func(attempt uint) error {
		if _, err := os.Stat(socketPath); err == nil {
			return nil
		}

		return fmt.Errorf("socket %s not yet present", socketPath)
	}, strategy.Limit(attempts), strategy.Delay(h.cfg.ReadinessPollInterval))
}

// cloneFlags maps the requested isolation-control flags to their Linux
// clone flags.
func cloneFlags(isoCtl cells.IsoCtl) uintptr {
	var flags uintptr

	if isoCtl.Has(cells.NewPIDNamespace) {
		flags |= unix.CLONE_NEWPID
	}

	if isoCtl.Has(cells.NewNetNamespace) {
		flags |= unix.CLONE_NEWNET
	}

	if isoCtl.Has(cells.NewMountNamespace) {
		flags |= unix.CLONE_NEWNS
	}

	if isoCtl.Has(cells.NewUTSNamespace) {
		flags |= unix.CLONE_NEWUTS
	}

	if isoCtl.Has(cells.NewIPCNamespace) {
		flags |= unix.CLONE_NEWIPC
	}

	if isoCtl.Has(cells.NewUserNamespace) {
		flags |= unix.CLONE_NEWUSER
	}

	return flags
}

func toSysProcIDMap(entries []cells.IDMapEntry) []syscall.SysProcIDMap {
	out := make([]syscall.SysProcIDMap, 0, len(entries))

	for _, e := range entries {
		out = append(out, syscall.SysProcIDMap{
			ContainerID: int(e.ContainerID),
			HostID:      int(e.HostID),
			Size:        int(e.Size),
		})
	}

	return out
}

// PID is cached at New() and stable for the handle's lifetime.
func (h *Handle) PID() int {
	return h.pid
}

// ClientConfig returns a copy of the pre-generated config. Only SocketPath
// is set; the PKI path fields are left empty.
func (h *Handle) ClientConfig() (cells.ClientConfig, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.config, nil
}

// Shutdown sends SIGTERM, waits up to GracefulTimeout, and escalates to
// SIGKILL on timeout.
func (h *Handle) Shutdown() (cells.ExitStatus, error) {
	h.mu.Lock()
	cmd := h.cmd
	h.mu.Unlock()

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		h.log.Error("sigterm delivery failed, escalating to kill", logger.Fields{"pid": h.pid, "err": err.Error()})
		return h.Kill()
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return exitStatusFrom(cmd, err), nil
	case <-time.After(h.cfg.GracefulTimeout):
		h.log.Info("graceful shutdown timed out, escalating to kill", logger.Fields{"pid": h.pid})

		if err := cmd.Process.Kill(); err != nil && !isAlreadyExited(err) {
			return cells.ExitStatus{}, fmt.Errorf("nesteddaemon: kill pid %d: %w", h.pid, err)
		}

		return h.killAndWait(done)
	}
}

// Kill sends SIGKILL and waits for exit. Always returns an exit status
// barring a kernel bug.
func (h *Handle) Kill() (cells.ExitStatus, error) {
	h.mu.Lock()
	cmd := h.cmd
	h.mu.Unlock()

	if err := cmd.Process.Kill(); err != nil && !isAlreadyExited(err) {
		return cells.ExitStatus{}, fmt.Errorf("nesteddaemon: kill pid %d: %w", h.pid, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	return h.killAndWait(done)
}

func (h *Handle) killAndWait(done chan error) (cells.ExitStatus, error) {
	err := <-done
	return exitStatusFrom(h.cmd, err), nil
}

func exitStatusFrom(cmd *exec.Cmd, waitErr error) cells.ExitStatus {
	if cmd.ProcessState == nil {
		return cells.ExitStatus{Code: -1}
	}

	status := cells.ExitStatus{Code: cmd.ProcessState.ExitCode()}

	if ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		status.Signal = ws.Signal().String()
	}

	return status
}

func isAlreadyExited(err error) bool {
	return err == os.ErrProcessDone
}
