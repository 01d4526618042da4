package nesteddaemon

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"aurae.example/auraed/internal/cells"
	"aurae.example/auraed/internal/logger"
)

func TestCloneFlags_MapsEveryIsoFlag(t *testing.T) {
	isoCtl := cells.IsoCtl{Flags: map[cells.IsoFlag]bool{
		cells.NewPIDNamespace:  true,
		cells.NewNetNamespace:  true,
		cells.NewMountNamespace: true,
		cells.NewUTSNamespace:  true,
		cells.NewIPCNamespace:  true,
		cells.NewUserNamespace: true,
	}}

	want := uintptr(unix.CLONE_NEWPID | unix.CLONE_NEWNET | unix.CLONE_NEWNS |
		unix.CLONE_NEWUTS | unix.CLONE_NEWIPC | unix.CLONE_NEWUSER)

	assert.Equal(t, want, cloneFlags(isoCtl))
}

func TestCloneFlags_EmptyWhenNoFlagsSet(t *testing.T) {
	assert.Equal(t, uintptr(0), cloneFlags(cells.IsoCtl{}))
}

func TestToSysProcIDMap_ConvertsEachEntry(t *testing.T) {
	entries := []cells.IDMapEntry{
		{ContainerID: 0, HostID: 100000, Size: 1000},
		{ContainerID: 1000, HostID: 200000, Size: 1},
	}

	got := toSysProcIDMap(entries)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].ContainerID)
	assert.Equal(t, 100000, got[0].HostID)
	assert.Equal(t, 1000, got[0].Size)
	assert.Equal(t, 1000, got[1].ContainerID)
}

func TestNew_FailsWhenReadinessNeverSignaled(t *testing.T) {
	cfg := Config{
		DaemonBinaryPath:      "/bin/sleep",
		SocketDir:             t.TempDir(),
		ReadinessTimeout:      50 * time.Millisecond,
		ReadinessPollInterval: 5 * time.Millisecond,
		GracefulTimeout:       time.Second,
	}

	_, err := New(cfg, logger.Noop(), "leaf", cells.IsoCtl{})
	assert.Error(t, err)
}

func TestHandle_Shutdown_WaitsThenReportsExit(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	require.NoError(t, cmd.Start())

	h := &Handle{
		cfg: Config{GracefulTimeout: 2 * time.Second},
		log: logger.Noop(),
		cmd: cmd,
		pid: cmd.Process.Pid,
	}

	status, err := h.Shutdown()
	require.NoError(t, err)
	assert.Equal(t, "terminated", status.Signal)
}

func TestHandle_Shutdown_EscalatesToKillWhenSigtermIgnored(t *testing.T) {
	cmd := exec.Command("sh", "-c", "trap '' TERM; sleep 30")
	require.NoError(t, cmd.Start())

	h := &Handle{
		cfg: Config{GracefulTimeout: 50 * time.Millisecond},
		log: logger.Noop(),
		cmd: cmd,
		pid: cmd.Process.Pid,
	}

	done := make(chan struct{})
	var status cells.ExitStatus
	var err error

	go func() {
		status, err = h.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		require.NoError(t, err)
		assert.Equal(t, "killed", status.Signal)
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not escalate to SIGKILL and hung past the graceful timeout")
	}
}

func TestHandle_Kill_ReportsExitStatus(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	require.NoError(t, cmd.Start())

	h := &Handle{
		cfg: Config{},
		log: logger.Noop(),
		cmd: cmd,
		pid: cmd.Process.Pid,
	}

	status, err := h.Kill()
	require.NoError(t, err)
	assert.Equal(t, "killed", status.Signal)
}

func TestHandle_PID_ReturnsSpawnedPID(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	require.NoError(t, cmd.Start())
	defer func() { _ = cmd.Process.Kill(); _ = cmd.Wait() }()

	h := &Handle{cmd: cmd, pid: cmd.Process.Pid}
	assert.Equal(t, cmd.Process.Pid, h.PID())
}
