//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package multiplexer

import (
	"golang.org/x/sys/unix"
)

func maskToFilter(dir Mask) int {
	if dir == Writable {
		return unix.EVFILT_WRITE
	}
	return unix.EVFILT_READ
}

func filterToMask(event *unix.Kevent_t) Mask {
	switch event.Filter {
	case unix.EVFILT_READ:
		return Readable
	case unix.EVFILT_WRITE:
		return Writable
	default:
		return None
	}
}
