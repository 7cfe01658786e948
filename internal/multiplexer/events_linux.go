package multiplexer

import (
	"golang.org/x/sys/unix"
)

func maskToEpoll(mask Mask) uint32 {
	var events uint32
	if mask&Readable != 0 {
		events |= unix.EPOLLIN
	}
	if mask&Writable != 0 {
		events |= unix.EPOLLOUT
	}
	return events
}

// epollToMask reports error and hangup conditions as both directions, the
// callback finds out what happened on its next read or write.
func epollToMask(events uint32) Mask {
	var mask Mask
	if events&unix.EPOLLIN != 0 {
		mask |= Readable
	}
	if events&unix.EPOLLOUT != 0 {
		mask |= Writable
	}
	if events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		mask |= Readable | Writable
	}
	return mask
}
