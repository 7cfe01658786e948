// Package ae is a single threaded reactor: it watches a bounded set of file
// descriptors for readiness and runs callbacks when they become readable or
// writable, interleaved with one shot and repeating timers.
//
// An EventLoop is owned by exactly one goroutine. None of its methods are
// safe for concurrent use, and callbacks run on the goroutine that called
// ProcessEvents or Main. Callbacks are free to register and remove file and
// time events, changes are picked up by the next iteration.
//
// The kernel facility behind the loop is chosen at build time: epoll on
// linux, kqueue on darwin and the BSDs, or select(2) when building with the
// aeselect tag.
package ae

import (
	"time"

	mul "github.com/Viet-ph/redis-ae/internal/multiplexer"
	"github.com/google/uuid"
	"github.com/joeycumines/logiface"
)

type Mask = mul.Mask

const (
	None     = mul.None
	Readable = mul.Readable
	Writable = mul.Writable
)

// ProcessEvents flags.
const (
	FileEvents = 1 << iota
	TimeEvents
	DontWait

	AllEvents = FileEvents | TimeEvents
)

// NoMore is returned by a TimeProc that does not want to fire again.
const NoMore int64 = -1

type (
	FileProc        func(l *EventLoop, fd int, clientData any, mask Mask)
	TimeProc        func(l *EventLoop, id int64, clientData any) int64
	FinalizerProc   func(l *EventLoop, clientData any)
	BeforeSleepProc func(l *EventLoop)
)

type fileEvent struct {
	mask       Mask
	rfileProc  FileProc
	wfileProc  FileProc
	clientData any
}

type timeEvent struct {
	id            int64
	whenSec       int64
	whenMs        int64
	timeProc      TimeProc
	finalizerProc FinalizerProc
	clientData    any
	next          *timeEvent

	// sweep is the processTimeEvents pass this timer last fired in.
	sweep uint64
}

type EventLoop struct {
	setsize int
	maxfd   int
	events  []fileEvent
	fired   []mul.FiredEvent

	timeEventHead   *timeEvent
	timeEventNextId int64
	sweeps          uint64

	stop        bool
	closed      bool
	apidata     mul.Iomultiplexer
	beforesleep BeforeSleepProc

	id     uuid.UUID
	logger *logiface.Logger[logiface.Event]
	now    func() time.Time
}

// New creates an event loop able to track fds in [0, setsize).
func New(setsize int, opts ...Option) (*EventLoop, error) {
	options, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	apidata, err := mul.New(setsize)
	if err != nil {
		return nil, err
	}

	return newEventLoop(setsize, apidata, options), nil
}

func newEventLoop(setsize int, apidata mul.Iomultiplexer, options *loopOptions) *EventLoop {
	l := &EventLoop{
		setsize: setsize,
		maxfd:   -1,
		// Slots with a None mask are unset, which is the zero value.
		events:  make([]fileEvent, setsize),
		fired:   make([]mul.FiredEvent, setsize),
		apidata: apidata,
		id:      uuid.New(),
		logger:  options.logger,
		now:     time.Now,
	}

	l.logger.Debug().
		Str("loop", l.id.String()).
		Str("api", apidata.Name()).
		Int("setsize", setsize).
		Log("event loop created")

	return l
}

// Close releases the multiplexer. The loop must not be used afterwards, a
// second Close returns ErrClosed.
func (l *EventLoop) Close() error {
	if l.closed {
		return ErrClosed
	}
	l.closed = true

	if err := l.apidata.Close(); err != nil {
		l.logger.Warning().
			Str("loop", l.id.String()).
			Err(err).
			Log("failed to close multiplexer")
		return err
	}

	l.logger.Debug().
		Str("loop", l.id.String()).
		Log("event loop closed")

	return nil
}

// ID identifies the loop in log output.
func (l *EventLoop) ID() uuid.UUID {
	return l.id
}

// SetSize returns the capacity of the fd table.
func (l *EventLoop) SetSize() int {
	return l.setsize
}

// ApiName names the multiplexer the loop polls with.
func (l *EventLoop) ApiName() string {
	return l.apidata.Name()
}
