package ae

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noMore(*EventLoop, int64, any) int64 { return NoMore }

func TestTimerIdsIncrease(t *testing.T) {
	l, _, _ := newFakeLoop(t, 4)

	assert.Equal(t, int64(0), l.CreateTimeEvent(10, noMore, nil, nil))
	assert.Equal(t, int64(1), l.CreateTimeEvent(10, noMore, nil, nil))
	require.NoError(t, l.DeleteTimeEvent(0))
	assert.Equal(t, int64(2), l.CreateTimeEvent(10, noMore, nil, nil))
	assert.Equal(t, 2, l.PendingTimers())
}

func TestSearchNearestTimer(t *testing.T) {
	l, _, _ := newFakeLoop(t, 4)
	assert.Nil(t, l.searchNearestTimer())

	l.CreateTimeEvent(50, noMore, "50", nil)
	id := l.CreateTimeEvent(10, noMore, "10", nil)
	l.CreateTimeEvent(30, noMore, "30", nil)
	l.CreateTimeEvent(1010, noMore, "1010", nil)

	nearest := l.searchNearestTimer()
	require.NotNil(t, nearest)
	assert.Equal(t, id, nearest.id)
	assert.Equal(t, "10", nearest.clientData)
}

func TestAddMillisecondsToNowCarries(t *testing.T) {
	l, _, clock := newFakeLoop(t, 4)
	clock.advance(750 * time.Millisecond)
	base := clock.t.Unix()

	sec, ms := l.addMillisecondsToNow(400)
	assert.Equal(t, base+1, sec)
	assert.Equal(t, int64(150), ms)

	sec, ms = l.addMillisecondsToNow(2250)
	assert.Equal(t, base+3, sec)
	assert.Equal(t, int64(0), ms)

	sec, ms = l.addMillisecondsToNow(-5)
	assert.Equal(t, base, sec)
	assert.Equal(t, int64(750), ms)
}

func TestTimerFiresWhenDue(t *testing.T) {
	l, _, clock := newFakeLoop(t, 4)

	var fired []int64
	id := l.CreateTimeEvent(100, func(_ *EventLoop, id int64, clientData any) int64 {
		fired = append(fired, id)
		assert.Equal(t, "data", clientData)
		return NoMore
	}, "data", nil)

	clock.advance(99 * time.Millisecond)
	assert.Equal(t, 0, l.ProcessEvents(TimeEvents|DontWait))
	assert.Empty(t, fired)

	clock.advance(time.Millisecond)
	assert.Equal(t, 1, l.ProcessEvents(TimeEvents|DontWait))
	assert.Equal(t, []int64{id}, fired)
	assert.Equal(t, 0, l.PendingTimers())

	clock.advance(time.Second)
	assert.Equal(t, 0, l.ProcessEvents(TimeEvents|DontWait))
}

func TestTimerRearmFromNow(t *testing.T) {
	l, _, clock := newFakeLoop(t, 4)
	start := clock.t.Unix()

	var calls int
	id := l.CreateTimeEvent(1000, func(*EventLoop, int64, any) int64 {
		calls++
		return 1500
	}, nil, nil)

	// Fire late: the next deadline counts from when the callback ran.
	clock.advance(1200 * time.Millisecond)
	assert.Equal(t, 1, l.ProcessEvents(TimeEvents|DontWait))

	te := l.searchNearestTimer()
	require.NotNil(t, te)
	assert.Equal(t, id, te.id)
	assert.Equal(t, start+2, te.whenSec)
	assert.Equal(t, int64(700), te.whenMs)

	clock.advance(1499 * time.Millisecond)
	assert.Equal(t, 0, l.ProcessEvents(TimeEvents|DontWait))
	clock.advance(time.Millisecond)
	assert.Equal(t, 1, l.ProcessEvents(TimeEvents|DontWait))
	assert.Equal(t, 2, calls)
}

func TestZeroDelayRearmFiresOncePerCall(t *testing.T) {
	l, _, _ := newFakeLoop(t, 4)

	var calls int
	l.CreateTimeEvent(0, func(*EventLoop, int64, any) int64 {
		calls++
		return 0
	}, nil, nil)

	for i := 1; i <= 3; i++ {
		assert.Equal(t, 1, l.ProcessEvents(TimeEvents|DontWait))
		assert.Equal(t, i, calls)
	}
}

func TestSelfSchedulingTimerRunsNextIteration(t *testing.T) {
	l, _, _ := newFakeLoop(t, 4)

	var calls int
	var schedule TimeProc
	schedule = func(l *EventLoop, _ int64, _ any) int64 {
		calls++
		l.CreateTimeEvent(0, schedule, nil, nil)
		return NoMore
	}
	l.CreateTimeEvent(0, schedule, nil, nil)

	assert.Equal(t, 1, l.ProcessEvents(TimeEvents|DontWait))
	assert.Equal(t, 1, l.PendingTimers())
	assert.Equal(t, 1, l.ProcessEvents(TimeEvents|DontWait))
	assert.Equal(t, 2, calls)
}

func TestFinalizerRunsOnce(t *testing.T) {
	t.Run("expired", func(t *testing.T) {
		l, _, _ := newFakeLoop(t, 4)

		var finalized []any
		id := l.CreateTimeEvent(0, noMore, "x", func(_ *EventLoop, clientData any) {
			finalized = append(finalized, clientData)
		})

		assert.Equal(t, 1, l.ProcessEvents(TimeEvents|DontWait))
		assert.Equal(t, []any{"x"}, finalized)

		assert.ErrorIs(t, l.DeleteTimeEvent(id), ErrNotFound)
		assert.Equal(t, 0, l.ProcessEvents(TimeEvents|DontWait))
		assert.Len(t, finalized, 1)
	})

	t.Run("deleted", func(t *testing.T) {
		l, _, _ := newFakeLoop(t, 4)

		var finalized, calls int
		id := l.CreateTimeEvent(0, func(*EventLoop, int64, any) int64 {
			calls++
			return NoMore
		}, nil, func(*EventLoop, any) { finalized++ })

		require.NoError(t, l.DeleteTimeEvent(id))
		assert.Equal(t, 1, finalized)
		assert.ErrorIs(t, l.DeleteTimeEvent(id), ErrNotFound)
		assert.Equal(t, 1, finalized)

		assert.Equal(t, 0, l.ProcessEvents(TimeEvents|DontWait))
		assert.Equal(t, 0, calls)
	})

	t.Run("deleted by itself", func(t *testing.T) {
		l, _, _ := newFakeLoop(t, 4)

		var finalized int
		l.CreateTimeEvent(0, func(l *EventLoop, id int64, _ any) int64 {
			require.NoError(t, l.DeleteTimeEvent(id))
			return NoMore
		}, nil, func(*EventLoop, any) { finalized++ })

		assert.Equal(t, 1, l.ProcessEvents(TimeEvents|DontWait))
		assert.Equal(t, 1, finalized)
		assert.Equal(t, 0, l.PendingTimers())
	})
}

func TestTimerDeletingAnotherDueTimer(t *testing.T) {
	l, _, _ := newFakeLoop(t, 4)

	var victimCalls, victimFinalized int
	victim := l.CreateTimeEvent(0, func(*EventLoop, int64, any) int64 {
		victimCalls++
		return NoMore
	}, nil, func(*EventLoop, any) { victimFinalized++ })

	// Created last, so it sits at the head and runs first.
	l.CreateTimeEvent(0, func(l *EventLoop, _ int64, _ any) int64 {
		require.NoError(t, l.DeleteTimeEvent(victim))
		return NoMore
	}, nil, nil)

	assert.Equal(t, 1, l.ProcessEvents(TimeEvents|DontWait))
	assert.Equal(t, 0, victimCalls)
	assert.Equal(t, 1, victimFinalized)
	assert.Equal(t, 0, l.PendingTimers())
}

func TestDeleteTimeEventNotFound(t *testing.T) {
	l, _, _ := newFakeLoop(t, 4)

	err := l.DeleteTimeEvent(42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "42")

	keep := l.CreateTimeEvent(10, noMore, nil, nil)
	drop := l.CreateTimeEvent(10, noMore, nil, nil)
	tail := l.CreateTimeEvent(10, noMore, nil, nil)
	require.NoError(t, l.DeleteTimeEvent(drop))
	assert.Equal(t, 2, l.PendingTimers())
	require.NoError(t, l.DeleteTimeEvent(keep))
	require.NoError(t, l.DeleteTimeEvent(tail))
	assert.Nil(t, l.timeEventHead)
}

func TestRepeatingTimerSpacing(t *testing.T) {
	l, err := New(64)
	require.NoError(t, err)
	defer l.Close()

	// Millisecond truncation of the clock allows at most 1ms of slack.
	const minGap = 19 * time.Millisecond

	var stamps []time.Time
	start := time.Now()
	l.CreateTimeEvent(20, func(l *EventLoop, _ int64, _ any) int64 {
		stamps = append(stamps, time.Now())
		if len(stamps) == 3 {
			l.Stop()
			return NoMore
		}
		return 20
	}, nil, nil)

	l.Main()

	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[0].Sub(start), minGap)
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), minGap)
	}
}
