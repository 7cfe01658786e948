package ae

import (
	"errors"
	"fmt"
	"math"

	mul "github.com/Viet-ph/redis-ae/internal/multiplexer"
	"golang.org/x/sys/unix"
)

// ApiName names the multiplexer this build polls with.
func ApiName() string {
	return mul.DefaultName
}

// Wait blocks until fd is ready for any direction in mask, or milliseconds
// have elapsed, without needing an event loop. It returns the directions
// that are ready, None on timeout. A negative timeout waits forever, one
// above math.MaxInt32 waits math.MaxInt32 milliseconds.
func Wait(fd int, mask Mask, milliseconds int64) (Mask, error) {
	pfd := unix.PollFd{Fd: int32(fd)}
	if mask&Readable != 0 {
		pfd.Events |= unix.POLLIN
	}
	if mask&Writable != 0 {
		pfd.Events |= unix.POLLOUT
	}

	fds := []unix.PollFd{pfd}
	n, err := unix.Poll(fds, pollTimeout(milliseconds))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return None, nil
		}
		return None, fmt.Errorf("poll fd %d: %w", fd, err)
	}
	if n == 0 {
		return None, nil
	}

	revents := fds[0].Revents
	if revents&unix.POLLNVAL != 0 {
		return None, fmt.Errorf("poll fd %d: %w", fd, unix.EBADF)
	}

	var retmask Mask
	if revents&unix.POLLIN != 0 {
		retmask |= Readable
	}
	if revents&unix.POLLOUT != 0 {
		retmask |= Writable
	}
	// Errors and hangups show up as whatever was asked for.
	if revents&(unix.POLLERR|unix.POLLHUP) != 0 {
		retmask |= mask & (Readable | Writable)
	}

	return retmask, nil
}

// pollTimeout converts a Wait timeout for poll(2), which takes a C int.
func pollTimeout(milliseconds int64) int {
	if milliseconds < 0 {
		return -1
	}
	return int(min(milliseconds, math.MaxInt32))
}
