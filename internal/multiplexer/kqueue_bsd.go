//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package multiplexer

import (
	"errors"
	"fmt"
	"time"

	custom_err "github.com/Viet-ph/redis-ae/internal/error"
	"golang.org/x/sys/unix"
)

type Kqueue struct {
	fd       int
	kqEvents []unix.Kevent_t
}

func NewKqueue(setsize int) (*Kqueue, error) {
	if setsize <= 0 {
		return nil, fmt.Errorf("%w: invalid set size %d", custom_err.ErrorInit, setsize)
	}

	kqFD, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("%w: kqueue: %w", custom_err.ErrorInit, err)
	}
	unix.CloseOnExec(kqFD)

	return &Kqueue{
		fd:       kqFD,
		kqEvents: make([]unix.Kevent_t, setsize),
	}, nil
}

func (kq *Kqueue) Name() string {
	return "kqueue"
}

// AddEvent issues one kevent per direction. The read filter may stick even
// if the write filter is then rejected, which is why the accepted mask is
// returned alongside the error.
func (kq *Kqueue) AddEvent(fd int, _, add Mask) (Mask, error) {
	var added Mask
	for _, dir := range []Mask{Readable, Writable} {
		if add&dir == 0 {
			continue
		}
		if err := kq.change(fd, dir, unix.EV_ADD); err != nil {
			return added, fmt.Errorf("%w: kevent add fd %d: %w", custom_err.ErrorRegistration, fd, err)
		}
		added |= dir
	}

	return added, nil
}

func (kq *Kqueue) DelEvent(fd int, _, del Mask) (Mask, error) {
	var removed Mask
	for _, dir := range []Mask{Readable, Writable} {
		if del&dir == 0 {
			continue
		}
		err := kq.change(fd, dir, unix.EV_DELETE)
		// Deleting a filter that was never added, or whose fd is gone, is fine.
		if err != nil && !errors.Is(err, unix.ENOENT) && !errors.Is(err, unix.EBADF) {
			return removed, fmt.Errorf("%w: kevent delete fd %d: %w", custom_err.ErrorRegistration, fd, err)
		}
		removed |= dir
	}

	return removed, nil
}

func (kq *Kqueue) change(fd int, dir Mask, flags int) error {
	var event unix.Kevent_t
	unix.SetKevent(&event, fd, maskToFilter(dir), flags)

	_, err := unix.Kevent(kq.fd, []unix.Kevent_t{event}, nil, nil)
	return err
}

func (kq *Kqueue) Poll(timeout time.Duration, fired []FiredEvent, _ Table) (int, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		spec := unix.NsecToTimespec(int64(clampTimeout(timeout)))
		ts = &spec
	}

	events := kq.kqEvents
	if len(fired) < len(events) {
		events = events[:len(fired)]
	}

	numEvents, err := unix.Kevent(kq.fd, nil, events, ts)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, nil
		}
		return 0, fmt.Errorf("kevent wait: %w", err)
	}

	for i := 0; i < numEvents; i++ {
		fired[i] = FiredEvent{
			Fd:   int(events[i].Ident),
			Mask: filterToMask(&events[i]),
		}
	}

	return numEvents, nil
}

func (kq *Kqueue) Close() error {
	return unix.Close(kq.fd)
}
