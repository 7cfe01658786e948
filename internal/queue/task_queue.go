package queue

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	custom_err "github.com/Viet-ph/redis-ae/internal/error"
	"github.com/eapache/queue"
	"github.com/joeycumines/logiface"
)

// Task is a deferred call of callback with args. The callback may return an
// error as its last result.
type Task struct {
	name     string
	callback any
	args     []any
}

func NewTask(name string, cb any, args ...any) *Task {
	return &Task{
		name:     name,
		callback: cb,
		args:     args,
	}
}

func (task *Task) Execute() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s: %v", task.name, r)
		}
	}()

	fnValue := reflect.ValueOf(task.callback)
	if fnValue.Kind() != reflect.Func {
		return fmt.Errorf("task %s: callback is %T, not a function", task.name, task.callback)
	}

	inputs := make([]reflect.Value, len(task.args))
	for i, arg := range task.args {
		if arg == nil {
			inputs[i] = reflect.Zero(fnValue.Type().In(i))
			continue
		}
		inputs[i] = reflect.ValueOf(arg)
	}

	results := fnValue.Call(inputs)
	if len(results) > 0 {
		// Only the trailing error result is looked at.
		if lastResult, ok := results[len(results)-1].Interface().(error); ok {
			return lastResult
		}
	}

	return nil
}

// TaskQueue hands work from any goroutine to the event loop goroutine, which
// runs it from DrainQueue.
type TaskQueue struct {
	tasks  *queue.Queue
	mut    sync.Mutex
	logger *logiface.Logger[logiface.Event]
}

func NewTaskQueue(logger *logiface.Logger[logiface.Event]) *TaskQueue {
	return &TaskQueue{
		tasks:  queue.New(),
		logger: logger,
	}
}

func (tq *TaskQueue) Add(task *Task) {
	defer tq.mut.Unlock()

	tq.mut.Lock()
	tq.tasks.Add(task)
}

func (tq *TaskQueue) Len() int {
	defer tq.mut.Unlock()

	tq.mut.Lock()
	return tq.tasks.Length()
}

// DrainQueue runs every task queued before the call and returns how many ran.
// Tasks failing with custom_err.ErrorRequeueTask go back to the queue for the
// next drain, tasks added while draining wait for the next drain too.
func (tq *TaskQueue) DrainQueue() int {
	tq.mut.Lock()
	pending := make([]*Task, 0, tq.tasks.Length())
	for tq.tasks.Length() > 0 {
		pending = append(pending, tq.tasks.Remove().(*Task))
	}
	tq.mut.Unlock()

	for _, task := range pending {
		err := task.Execute()
		if err == nil {
			continue
		}

		if errors.Is(err, custom_err.ErrorRequeueTask) {
			tq.logger.Debug().
				Str("task", task.name).
				Log("task requeued")
			tq.Add(task)
			continue
		}

		tq.logger.Warning().
			Str("task", task.name).
			Err(err).
			Log("task executed with failure")
	}

	return len(pending)
}
