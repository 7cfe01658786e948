//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package multiplexer

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	custom_err "github.com/Viet-ph/redis-ae/internal/error"
	"golang.org/x/sys/unix"
)

// fdSetSize is FD_SETSIZE, the number of fds a unix.FdSet can hold.
const fdSetSize = int(unsafe.Sizeof(unix.FdSet{})) * 8

// Select keeps the full interest set in user space and hands copies of it to
// the kernel on every Poll, select(2) clobbers the sets it is given.
type Select struct {
	rfds, wfds unix.FdSet
	setsize    int
}

func NewSelect(setsize int) (*Select, error) {
	if setsize <= 0 {
		return nil, fmt.Errorf("%w: invalid set size %d", custom_err.ErrorInit, setsize)
	}

	return &Select{setsize: min(setsize, fdSetSize)}, nil
}

func (sel *Select) Name() string {
	return "select"
}

func (sel *Select) AddEvent(fd int, _, add Mask) (Mask, error) {
	if fd < 0 || fd >= sel.setsize {
		return None, fmt.Errorf("%w: fd %d does not fit in an fd_set of %d", custom_err.ErrorRegistration, fd, sel.setsize)
	}

	if add&Readable != 0 {
		sel.rfds.Set(fd)
	}
	if add&Writable != 0 {
		sel.wfds.Set(fd)
	}

	return add, nil
}

func (sel *Select) DelEvent(fd int, _, del Mask) (Mask, error) {
	if fd < 0 || fd >= sel.setsize {
		return del, nil
	}

	if del&Readable != 0 {
		sel.rfds.Clear(fd)
	}
	if del&Writable != 0 {
		sel.wfds.Clear(fd)
	}

	return del, nil
}

// Poll scans every fd up to table.MaxFd(), so its cost tracks the highest
// registered fd rather than the number of ready ones.
func (sel *Select) Poll(timeout time.Duration, fired []FiredEvent, table Table) (int, error) {
	rfds, wfds := sel.rfds, sel.wfds

	var tv *unix.Timeval
	if timeout >= 0 {
		val := unix.NsecToTimeval(int64(clampTimeout(timeout)))
		tv = &val
	}

	maxfd := min(table.MaxFd(), sel.setsize-1)
	retval, err := unix.Select(maxfd+1, &rfds, &wfds, nil, tv)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, nil
		}
		return 0, fmt.Errorf("select: %w", err)
	}
	if retval <= 0 {
		return 0, nil
	}

	numEvents := 0
	for fd := 0; fd <= maxfd && numEvents < len(fired); fd++ {
		interest := table.Mask(fd)
		if interest == None {
			continue
		}

		var mask Mask
		if interest&Readable != 0 && rfds.IsSet(fd) {
			mask |= Readable
		}
		if interest&Writable != 0 && wfds.IsSet(fd) {
			mask |= Writable
		}
		if mask == None {
			continue
		}

		fired[numEvents] = FiredEvent{Fd: fd, Mask: mask}
		numEvents++
	}

	return numEvents, nil
}

func (sel *Select) Close() error {
	sel.rfds.Zero()
	sel.wfds.Zero()
	return nil
}
