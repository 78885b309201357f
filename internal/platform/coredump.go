//go:build linux || darwin

// Package platform holds OS-level hardening for processes that carry raw
// key material in memory.
package platform

import "golang.org/x/sys/unix"

// DisableCoreDumps stops the kernel from writing process memory, and with
// it any resident keys, to a core file on crash.
func DisableCoreDumps() error {
	var rlim unix.Rlimit
	rlim.Cur = 0
	rlim.Max = 0
	return unix.Setrlimit(unix.RLIMIT_CORE, &rlim)
}
