package ae

import (
	"fmt"
	"math"
	"time"
)

func (l *EventLoop) getTime() (sec, ms int64) {
	now := l.now()
	return now.Unix(), int64(now.Nanosecond() / int(time.Millisecond))
}

func (l *EventLoop) addMillisecondsToNow(milliseconds int64) (sec, ms int64) {
	milliseconds = max(milliseconds, 0)
	curSec, curMs := l.getTime()
	sec = curSec + milliseconds/1000
	ms = curMs + milliseconds%1000
	if ms >= 1000 {
		sec++
		ms -= 1000
	}
	return sec, ms
}

// CreateTimeEvent schedules proc to run once milliseconds have elapsed and
// returns the id of the new timer. proc decides whether it fires again by
// returning a delay, or NoMore. finalizer, if not nil, runs exactly once
// when the timer goes away, whether it expired or was deleted.
func (l *EventLoop) CreateTimeEvent(milliseconds int64, proc TimeProc, clientData any, finalizer FinalizerProc) int64 {
	id := l.timeEventNextId
	l.timeEventNextId++

	te := &timeEvent{
		id:            id,
		timeProc:      proc,
		finalizerProc: finalizer,
		clientData:    clientData,
		next:          l.timeEventHead,
	}
	te.whenSec, te.whenMs = l.addMillisecondsToNow(milliseconds)
	l.timeEventHead = te

	return id
}

// DeleteTimeEvent cancels the timer with the given id and runs its
// finalizer. It returns ErrNotFound if no such timer is pending.
func (l *EventLoop) DeleteTimeEvent(id int64) error {
	var prev *timeEvent
	for te := l.timeEventHead; te != nil; te = te.next {
		if te.id == id {
			if prev == nil {
				l.timeEventHead = te.next
			} else {
				prev.next = te.next
			}
			te.next = nil

			if te.finalizerProc != nil {
				te.finalizerProc(l, te.clientData)
			}
			return nil
		}
		prev = te
	}

	return fmt.Errorf("%w: %d", ErrNotFound, id)
}

// PendingTimers returns the number of scheduled timers.
func (l *EventLoop) PendingTimers() int {
	n := 0
	for te := l.timeEventHead; te != nil; te = te.next {
		n++
	}
	return n
}

// searchNearestTimer returns the timer due first, or nil. The list is not
// ordered, this is O(N).
func (l *EventLoop) searchNearestTimer() *timeEvent {
	var nearest *timeEvent
	for te := l.timeEventHead; te != nil; te = te.next {
		if nearest == nil || te.whenSec < nearest.whenSec ||
			(te.whenSec == nearest.whenSec && te.whenMs < nearest.whenMs) {
			nearest = te
		}
	}
	return nearest
}

// maxWaitSec is the largest whole second count a time.Duration holds with
// room left for the millisecond part.
const maxWaitSec = int64(math.MaxInt64/time.Second) - 1

// untilNearestTimer returns how long until te is due, never negative and
// saturating at the largest time.Duration.
func (l *EventLoop) untilNearestTimer(te *timeEvent) time.Duration {
	nowSec, nowMs := l.getTime()
	sec := te.whenSec - nowSec
	if sec > maxWaitSec {
		return time.Duration(math.MaxInt64)
	}
	wait := time.Duration(sec)*time.Second +
		time.Duration(te.whenMs-nowMs)*time.Millisecond
	return max(wait, 0)
}

// processTimeEvents runs every due timer once and returns how many ran.
//
// A callback may create or delete timers, so the scan starts over from the
// head after every call. Timers created during this pass have an id above
// maxId and are left for the next one, and timers that already fired in this
// pass are skipped, so the pass always terminates.
func (l *EventLoop) processTimeEvents() int {
	processed := 0
	maxId := l.timeEventNextId - 1
	l.sweeps++
	sweep := l.sweeps

	te := l.timeEventHead
	for te != nil {
		if te.id > maxId || te.sweep == sweep {
			te = te.next
			continue
		}

		nowSec, nowMs := l.getTime()
		if nowSec > te.whenSec || (nowSec == te.whenSec && nowMs >= te.whenMs) {
			id := te.id
			te.sweep = sweep
			retval := te.timeProc(l, id, te.clientData)
			processed++

			if retval != NoMore {
				te.whenSec, te.whenMs = l.addMillisecondsToNow(retval)
			} else if err := l.DeleteTimeEvent(id); err == nil {
				l.logger.Trace().
					Str("loop", l.id.String()).
					Int64("timer", id).
					Log("timer expired")
			}
			te = l.timeEventHead
		} else {
			te = te.next
		}
	}

	return processed
}
