package ae

import (
	"testing"
	"time"

	mul "github.com/Viet-ph/redis-ae/internal/multiplexer"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// fakeMultiplexer keeps registrations in memory and reports whatever the
// test queued in ready on every Poll.
type fakeMultiplexer struct {
	masks   map[int]Mask
	ready   []mul.FiredEvent
	addErr  error
	delErr  error
	pollErr error

	polls    int
	timeouts []time.Duration
	closed   bool
}

func newFakeMultiplexer() *fakeMultiplexer {
	return &fakeMultiplexer{masks: make(map[int]Mask)}
}

func (f *fakeMultiplexer) Name() string { return "fake" }

func (f *fakeMultiplexer) AddEvent(fd int, old, add Mask) (Mask, error) {
	if f.addErr != nil {
		return None, f.addErr
	}
	f.masks[fd] = old | add
	return add, nil
}

func (f *fakeMultiplexer) DelEvent(fd int, old, del Mask) (Mask, error) {
	if f.delErr != nil {
		return None, f.delErr
	}
	f.masks[fd] = old &^ del
	return del, nil
}

func (f *fakeMultiplexer) Poll(timeout time.Duration, fired []mul.FiredEvent, _ mul.Table) (int, error) {
	f.polls++
	f.timeouts = append(f.timeouts, timeout)
	if f.pollErr != nil {
		return 0, f.pollErr
	}
	return copy(fired, f.ready), nil
}

func (f *fakeMultiplexer) Close() error {
	f.closed = true
	return nil
}

// fakeClock is a settable time source.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0)}
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeLoop(t *testing.T, setsize int) (*EventLoop, *fakeMultiplexer, *fakeClock) {
	t.Helper()
	fake := newFakeMultiplexer()
	clock := newFakeClock()
	l := newEventLoop(setsize, fake, &loopOptions{})
	l.now = clock.now
	t.Cleanup(func() { l.Close() })
	return l, fake, clock
}

// loopFactories builds loops over every multiplexer the platform offers.
func loopFactories() map[string]func(setsize int) (*EventLoop, error) {
	return map[string]func(setsize int) (*EventLoop, error){
		"default": func(setsize int) (*EventLoop, error) {
			return New(setsize)
		},
		"select": func(setsize int) (*EventLoop, error) {
			sel, err := mul.NewSelect(setsize)
			if err != nil {
				return nil, err
			}
			return newEventLoop(setsize, sel, &loopOptions{}), nil
		},
	}
}

func pipe(t *testing.T) (int, int) {
	t.Helper()
	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func socketpair(t *testing.T) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}
