// Package multiplexer wraps the kernel readiness-notification facilities
// (epoll, kqueue, select) behind a single polling contract.
//
// Exactly one backend is the default for a build, see New. epoll is picked on
// linux and kqueue on darwin and the BSDs. The select backend is always
// compiled where select(2) exists, and becomes the default when building with
// the aeselect tag.
package multiplexer

import (
	"math"
	"time"
)

// Mask is a set of readiness interests.
type Mask int

const (
	None     Mask = 0
	Readable Mask = 1
	Writable Mask = 2
)

// NoTimeout makes Poll block until at least one fd is ready.
const NoTimeout time.Duration = -1

// MaxTimeout is the longest single wait, the largest millisecond count a
// C int holds. Longer timeouts return after MaxTimeout with no events.
const MaxTimeout = math.MaxInt32 * time.Millisecond

func clampTimeout(timeout time.Duration) time.Duration {
	return min(timeout, MaxTimeout)
}

// timeoutMillis converts timeout for syscalls taking milliseconds, -1 for
// NoTimeout.
func timeoutMillis(timeout time.Duration) int {
	if timeout < 0 {
		return -1
	}
	return int(clampTimeout(timeout) / time.Millisecond)
}

func (m Mask) String() string {
	switch m {
	case None:
		return "none"
	case Readable:
		return "r"
	case Writable:
		return "w"
	case Readable | Writable:
		return "rw"
	default:
		return "invalid"
	}
}

// FiredEvent is a single (fd, mask) pair observed by the last Poll.
type FiredEvent struct {
	Fd   int
	Mask Mask
}

// Table is a read only view of the event loop's fd table.
type Table interface {
	// MaxFd returns the highest fd with a non empty mask, or -1.
	MaxFd() int
	Mask(fd int) Mask
}

type Iomultiplexer interface {
	Name() string

	// AddEvent registers add on top of old, the interest the fd currently
	// holds. It returns the directions the kernel accepted, which is all of
	// add unless err is non nil.
	AddEvent(fd int, old, add Mask) (Mask, error)

	// DelEvent removes del from old. It returns the directions that are no
	// longer registered with the kernel.
	DelEvent(fd int, old, del Mask) (Mask, error)

	// Poll waits up to timeout (NoTimeout blocks, zero returns at once,
	// anything above MaxTimeout waits MaxTimeout) and
	// fills fired with what became ready, returning the count. An
	// interrupted wait reports zero events and no error.
	Poll(timeout time.Duration, fired []FiredEvent, table Table) (int, error)

	Close() error
}
