package ae

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestWait(t *testing.T) {
	pr, pw := pipe(t)

	mask, err := Wait(pw, Writable, 0)
	require.NoError(t, err)
	assert.Equal(t, Writable, mask)

	start := time.Now()
	mask, err = Wait(pr, Readable, 20)
	require.NoError(t, err)
	assert.Equal(t, None, mask)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)

	_, err = unix.Write(pw, []byte("x"))
	require.NoError(t, err)
	mask, err = Wait(pr, Readable, -1)
	require.NoError(t, err)
	assert.Equal(t, Readable, mask)
}

func TestWaitHangup(t *testing.T) {
	sa, sb := socketpair(t)
	require.NoError(t, unix.Shutdown(sb, unix.SHUT_RDWR))

	mask, err := Wait(sa, Readable, 100)
	require.NoError(t, err)
	assert.Equal(t, Readable, mask)
}

func TestWaitInvalidFd(t *testing.T) {
	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	require.NoError(t, unix.Close(fds[0]))
	require.NoError(t, unix.Close(fds[1]))

	_, err := Wait(fds[0], Readable, 0)
	assert.ErrorIs(t, err, unix.EBADF)
}

func TestPollTimeout(t *testing.T) {
	assert.Equal(t, -1, pollTimeout(-1))
	assert.Equal(t, 0, pollTimeout(0))
	assert.Equal(t, 20, pollTimeout(20))
	assert.Equal(t, math.MaxInt32, pollTimeout(math.MaxInt32))
	assert.Equal(t, math.MaxInt32, pollTimeout(1<<32+50))
	assert.Equal(t, math.MaxInt32, pollTimeout(math.MaxInt64))
}

func TestWaitLongTimeoutReturnsOnReadiness(t *testing.T) {
	pr, pw := pipe(t)
	_, err := unix.Write(pw, []byte("x"))
	require.NoError(t, err)

	mask, err := Wait(pr, Readable, 1<<32+50)
	require.NoError(t, err)
	assert.Equal(t, Readable, mask)
}
