package queue_test

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	custom_err "github.com/Viet-ph/redis-ae/internal/error"
	"github.com/Viet-ph/redis-ae/internal/logging"
	"github.com/Viet-ph/redis-ae/internal/queue"
	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskExecute(t *testing.T) {
	var got []any
	task := queue.NewTask("collect", func(s string, n int, p *int) {
		got = append(got, s, n, p)
	}, "a", 1, nil)

	require.NoError(t, task.Execute())
	assert.Equal(t, []any{"a", 1, (*int)(nil)}, got)

	boom := errors.New("boom")
	task = queue.NewTask("fail", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, task.Execute(), boom)

	task = queue.NewTask("panic", func() { panic("oops") })
	assert.ErrorContains(t, task.Execute(), "oops")

	task = queue.NewTask("bad", 42)
	assert.Error(t, task.Execute())
}

func TestDrainQueueOrder(t *testing.T) {
	tq := queue.NewTaskQueue(nil)

	var order []int
	for i := range 5 {
		tq.Add(queue.NewTask("append", func(n int) { order = append(order, n) }, i))
	}
	assert.Equal(t, 5, tq.Len())

	assert.Equal(t, 5, tq.DrainQueue())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, 0, tq.Len())
	assert.Equal(t, 0, tq.DrainQueue())
}

func TestDrainQueueRequeue(t *testing.T) {
	tq := queue.NewTaskQueue(nil)

	attempts := 0
	tq.Add(queue.NewTask("retry", func() error {
		attempts++
		if attempts < 3 {
			return custom_err.ErrorRequeueTask
		}
		return nil
	}))

	for range 3 {
		assert.Equal(t, 1, tq.DrainQueue())
	}
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 0, tq.Len())
}

func TestDrainQueueTaskAddingTask(t *testing.T) {
	tq := queue.NewTaskQueue(nil)

	ran := false
	tq.Add(queue.NewTask("outer", func() {
		tq.Add(queue.NewTask("inner", func() { ran = true }))
	}))

	assert.Equal(t, 1, tq.DrainQueue())
	assert.False(t, ran)
	assert.Equal(t, 1, tq.DrainQueue())
	assert.True(t, ran)
}

func TestDrainQueueLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	tq := queue.NewTaskQueue(logging.New(&buf, logiface.LevelWarning))

	tq.Add(queue.NewTask("broken", func() error { return errors.New("disk on fire") }))
	tq.DrainQueue()

	assert.Contains(t, buf.String(), "task executed with failure")
	assert.Contains(t, buf.String(), "broken")
	assert.Contains(t, buf.String(), "disk on fire")
}

func TestAddFromManyGoroutines(t *testing.T) {
	tq := queue.NewTaskQueue(nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				tq.Add(queue.NewTask("noop", func() {}))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, tq.DrainQueue())
}
