//go:build linux

package multiplexer

import (
	"errors"
	"fmt"
	"time"

	custom_err "github.com/Viet-ph/redis-ae/internal/error"
	"golang.org/x/sys/unix"
)

type Epoll struct {
	fd         int
	pollEvents []unix.EpollEvent
}

func NewEpoll(setsize int) (*Epoll, error) {
	if setsize <= 0 {
		return nil, fmt.Errorf("%w: invalid set size %d", custom_err.ErrorInit, setsize)
	}

	epollFD, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("%w: epoll create: %w", custom_err.ErrorInit, err)
	}

	return &Epoll{
		fd:         epollFD,
		pollEvents: make([]unix.EpollEvent, setsize),
	}, nil
}

func (epoll *Epoll) Name() string {
	return "epoll"
}

func (epoll *Epoll) AddEvent(fd int, old, add Mask) (Mask, error) {
	// If the fd was already monitored for some event, we need a MOD
	// operation. Otherwise we need an ADD operation.
	op := unix.EPOLL_CTL_MOD
	if old == None {
		op = unix.EPOLL_CTL_ADD
	}

	err := unix.EpollCtl(epoll.fd, op, fd, &unix.EpollEvent{
		Events: maskToEpoll(old | add),
		Fd:     int32(fd),
	})
	if err != nil {
		return None, fmt.Errorf("%w: epoll ctl fd %d: %w", custom_err.ErrorRegistration, fd, err)
	}

	return add, nil
}

func (epoll *Epoll) DelEvent(fd int, old, del Mask) (Mask, error) {
	mask := old &^ del

	var err error
	if mask != None {
		err = unix.EpollCtl(epoll.fd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
			Events: maskToEpoll(mask),
			Fd:     int32(fd),
		})
	} else {
		// Kernels before 2.6.9 want a non nil event even for DEL.
		err = unix.EpollCtl(epoll.fd, unix.EPOLL_CTL_DEL, fd, &unix.EpollEvent{})
	}

	// The kernel drops closed fds from the interest list on its own.
	if err != nil && !errors.Is(err, unix.ENOENT) && !errors.Is(err, unix.EBADF) {
		return None, fmt.Errorf("%w: epoll ctl fd %d: %w", custom_err.ErrorRegistration, fd, err)
	}

	return del, nil
}

func (epoll *Epoll) Poll(timeout time.Duration, fired []FiredEvent, _ Table) (int, error) {
	msec := timeoutMillis(timeout)

	events := epoll.pollEvents
	if len(fired) < len(events) {
		events = events[:len(fired)]
	}

	numEvents, err := unix.EpollWait(epoll.fd, events, msec)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, nil
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}

	for i := 0; i < numEvents; i++ {
		fired[i] = FiredEvent{
			Fd:   int(events[i].Fd),
			Mask: epollToMask(events[i].Events),
		}
	}

	return numEvents, nil
}

func (epoll *Epoll) Close() error {
	return unix.Close(epoll.fd)
}
