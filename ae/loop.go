package ae

import (
	mul "github.com/Viet-ph/redis-ae/internal/multiplexer"
)

// ProcessEvents runs one iteration of the loop and returns the number of
// fired file events plus the number of timer callbacks that ran.
//
// Without DontWait it sleeps until some fd is ready or the nearest timer is
// due, blocking indefinitely if TimeEvents is requested and no timer is
// scheduled. With neither FileEvents nor TimeEvents it returns at once.
func (l *EventLoop) ProcessEvents(flags int) int {
	if flags&TimeEvents == 0 && flags&FileEvents == 0 {
		return 0
	}

	processed := 0

	// Poll even with no fd registered as long as timers are processed, so
	// the call sleeps until the next timer is due.
	if l.maxfd != -1 || (flags&TimeEvents != 0 && flags&DontWait == 0) {
		var shortest *timeEvent
		if flags&TimeEvents != 0 && flags&DontWait == 0 {
			shortest = l.searchNearestTimer()
		}

		timeout := mul.NoTimeout
		if shortest != nil {
			timeout = l.untilNearestTimer(shortest)
		} else if flags&DontWait != 0 {
			timeout = 0
		}

		numEvents, err := l.apidata.Poll(timeout, l.fired, (*fdTable)(l))
		if err != nil {
			l.logger.Warning().
				Str("loop", l.id.String()).
				Str("api", l.apidata.Name()).
				Err(err).
				Log("poll failed")
			numEvents = 0
		}

		for j := 0; j < numEvents; j++ {
			fd := l.fired[j].Fd
			mask := l.fired[j].Mask
			fe := &l.events[fd]

			// An earlier callback of this batch may have removed the
			// event, so the live mask is checked again.
			rfired := false
			var rproc FileProc
			if fe.mask&mask&Readable != 0 {
				rfired = true
				rproc = fe.rfileProc
				rproc(l, fd, fe.clientData, mask)
			}
			if fe.mask&mask&Writable != 0 {
				if !rfired || !sameProc(fe.wfileProc, rproc) {
					fe.wfileProc(l, fd, fe.clientData, mask)
				}
			}
			processed++
		}
	}

	if flags&TimeEvents != 0 {
		processed += l.processTimeEvents()
	}

	return processed
}

// Main runs the loop until Stop is called from a callback.
func (l *EventLoop) Main() {
	l.stop = false
	for !l.stop {
		if l.beforesleep != nil {
			l.beforesleep(l)
		}
		l.ProcessEvents(AllEvents)
	}
}

// Stop makes Main return once the current iteration is complete.
func (l *EventLoop) Stop() {
	l.stop = true
}

// SetBeforeSleepProc installs a hook that Main runs before every iteration.
func (l *EventLoop) SetBeforeSleepProc(beforesleep BeforeSleepProc) {
	l.beforesleep = beforesleep
}
