//go:build linux

package cgroup

import "golang.org/x/sys/unix"

// unixEBUSY is the kernel errno wrapped by os.Remove when a directory still
// has member tasks attached.
var unixEBUSY = unix.EBUSY
