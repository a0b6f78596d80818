//go:build linux || darwin || freebsd || netbsd || openbsd

// Package sysguard raises the process's open-file-descriptor limit before
// cmd/linkjump's -watch mode starts watching many files and accepting
// diagstream client connections, since each watched path and each HTTP/3
// connection consumes a descriptor. Build-tagged per OS like the teacher's
// internal/runtime/asyncio epoll/kqueue pollers; the syscall itself
// (RLIMIT_NOFILE, not epoll/kqueue) is ecosystem-standard golang.org/x/sys/unix.
package sysguard

import "golang.org/x/sys/unix"

// RaiseNoFileLimit raises RLIMIT_NOFILE's soft limit to the hard limit (or
// to want, if want is smaller than the hard limit), returning the resulting
// soft limit. It never lowers an already-higher limit.
func RaiseNoFileLimit(want uint64) (uint64, error) {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return 0, err
	}

	target := want
	if rlim.Max != unix.RLIM_INFINITY && target > rlim.Max {
		target = rlim.Max
	}

	if rlim.Cur >= target {
		return rlim.Cur, nil
	}

	rlim.Cur = target

	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return 0, err
	}

	return rlim.Cur, nil
}
