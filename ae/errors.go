package ae

import (
	custom_err "github.com/Viet-ph/redis-ae/internal/error"
)

var (
	// ErrInit means the kernel polling resource could not be obtained.
	ErrInit = custom_err.ErrorInit
	// ErrCapacityExceeded means the fd does not fit in the loop's fd table.
	ErrCapacityExceeded = custom_err.ErrorCapacityExceeded
	// ErrRegistration means the kernel rejected an interest change. The
	// loop's view of the fd is left as it was before the call.
	ErrRegistration = custom_err.ErrorRegistration
	// ErrNotFound is returned by DeleteTimeEvent for unknown ids, including
	// timers that already expired.
	ErrNotFound = custom_err.ErrorTimerNotFound
	// ErrNilProc is returned by CreateFileEvent when proc is nil.
	ErrNilProc = custom_err.ErrorNilProc
	// ErrClosed is returned by Close on a loop already closed.
	ErrClosed = custom_err.ErrorMultiplexerClosed
)
