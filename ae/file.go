package ae

import (
	"fmt"
	"unsafe"
)

// CreateFileEvent starts watching fd for mask and routes the matching
// readiness notifications to proc. Interests already registered for fd are
// kept, proc replaces the callback of every direction in mask only.
func (l *EventLoop) CreateFileEvent(fd int, mask Mask, proc FileProc, clientData any) error {
	if fd < 0 || fd >= l.setsize {
		return fmt.Errorf("%w: fd %d, set size %d", ErrCapacityExceeded, fd, l.setsize)
	}
	if proc == nil {
		return fmt.Errorf("%w: fd %d", ErrNilProc, fd)
	}
	fe := &l.events[fd]

	added, err := l.apidata.AddEvent(fd, fe.mask, mask)
	if added != None {
		fe.mask |= added
		if added&Readable != 0 {
			fe.rfileProc = proc
		}
		if added&Writable != 0 {
			fe.wfileProc = proc
		}
		fe.clientData = clientData

		if fd > l.maxfd {
			l.maxfd = fd
		}
	}

	return err
}

// DeleteFileEvent stops watching fd for mask. Removing an interest that was
// never registered is a no op.
func (l *EventLoop) DeleteFileEvent(fd int, mask Mask) error {
	if fd < 0 || fd >= l.setsize {
		return nil
	}
	fe := &l.events[fd]
	if fe.mask == None {
		return nil
	}

	mask &= fe.mask
	if mask == None {
		return nil
	}

	removed, err := l.apidata.DelEvent(fd, fe.mask, mask)
	fe.mask &^= removed
	if fe.mask&Readable == 0 {
		fe.rfileProc = nil
	}
	if fe.mask&Writable == 0 {
		fe.wfileProc = nil
	}
	if fe.mask == None {
		fe.clientData = nil
	}

	if fd == l.maxfd && fe.mask == None {
		j := l.maxfd - 1
		for ; j >= 0; j-- {
			if l.events[j].mask != None {
				break
			}
		}
		l.maxfd = j
	}

	return err
}

// GetFileEvents returns the interests currently registered for fd.
func (l *EventLoop) GetFileEvents(fd int) Mask {
	if fd < 0 || fd >= l.setsize {
		return None
	}
	return l.events[fd].mask
}

// MaxFd returns the highest registered fd, or -1 when none is.
func (l *EventLoop) MaxFd() int {
	return l.maxfd
}

// fdTable is the view of the fd table handed to the multiplexer.
type fdTable EventLoop

func (t *fdTable) MaxFd() int {
	return t.maxfd
}

func (t *fdTable) Mask(fd int) Mask {
	return t.events[fd].mask
}

// sameProc reports whether a and b are the same function value. Two
// evaluations of a method value are distinct closures and compare unequal.
func sameProc(a, b FileProc) bool {
	return *(*unsafe.Pointer)(unsafe.Pointer(&a)) == *(*unsafe.Pointer)(unsafe.Pointer(&b))
}
