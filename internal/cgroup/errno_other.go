//go:build !linux

package cgroup

import "errors"

// unixEBUSY never matches on non-Linux builds; cgroups are a Linux-only
// concept.
var unixEBUSY = errors.New("cgroup: EBUSY is not defined on this platform")
