package cells

import "aurae.example/auraed/internal/cellname"

// ExitStatus mirrors the handful of facts callers need about how a nested
// daemon exited.
type ExitStatus struct {
	Code   int
	Signal string
}

// CgroupHandle is the subset of internal/cgroup.Handle that the Cell state
// machine depends on. Expressed as an interface, per Go idiom, so Cell can
// be tested with a fake and the real cgroupfs-backed implementation lives
// in its own package.
type CgroupHandle interface {
	Create() error
	AddTask(pid int) error
	Delete() error
	V2() bool
}

// NestedDaemonHandle is the subset of internal/nesteddaemon.Handle that the
// Cell state machine depends on.
type NestedDaemonHandle interface {
	PID() int
	ClientConfig() (ClientConfig, error)
	Shutdown() (ExitStatus, error)
	Kill() (ExitStatus, error)
}

// ClientConfig is the socket path + PKI material handed back to a caller so
// it can dial directly into a nested daemon. Loading the PKI material
// itself is a transport concern; this struct only carries the paths.
type ClientConfig struct {
	SocketPath string
	CACertPath string
	CertPath   string
	KeyPath    string
}

// CgroupFactory constructs a CgroupHandle for a cell given its name and
// desired resource spec. Side-effect-free: Create() is a separate step.
type CgroupFactory func(name cellname.Name, spec CgroupSpec) (CgroupHandle, error)

// DaemonFactory constructs and starts a NestedDaemonHandle for a cell's
// leaf name and isolation controls. Unlike CgroupFactory this does have the
// side effect of forking/exec'ing the nested daemon.
type DaemonFactory func(leafName string, isoCtl IsoCtl) (NestedDaemonHandle, error)
