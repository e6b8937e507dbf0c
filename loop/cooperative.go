package loop

import (
	"context"
	"errors"
	"sync"
)

var (
	errNilResult = errors.New("loop: async handler returned a nil channel")
	errNoResult  = errors.New("loop: async handler closed its channel without a result")
)

// Cooperative is the non-blocking invocation loop. The handler is awaited
// through its result channel, so a handler may suspend on its own work
// without holding the loop goroutine in a call frame.
type Cooperative struct {
	*machine
}

var _ Cycle = (*Cooperative)(nil)

// NewCooperative creates a cooperative loop serving handler.
func NewCooperative(api RuntimeAPI, handler AsyncHandler, opts ...Option) *Cooperative {
	invoke := func(ctx context.Context, event []byte) ([]byte, error) {
		ch, err := startAsync(ctx, handler, event)
		if err != nil {
			return nil, err
		}
		r, ok := <-ch
		if !ok {
			return nil, errNoResult
		}
		return r.Payload, r.Err
	}
	return &Cooperative{machine: newMachine(api, invoke, opts...)}
}

func startAsync(ctx context.Context, h AsyncHandler, event []byte) (ch <-chan Result, err error) {
	defer func() {
		if v := recover(); v != nil {
			ch, err = nil, newPanicError(v)
		}
	}()
	ch = h.InvokeAsync(ctx, event)
	if ch == nil {
		return nil, errNilResult
	}
	return ch, nil
}

// Start runs the loop on a new goroutine and returns immediately.
func (c *Cooperative) Start(ctx context.Context) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		stop := startHeartbeat(ctx, c.HeartbeatInterval, c.Logger)
		defer stop()
		t.finish(c.drive(ctx, c))
	}()
	return t
}

// Task is a running cooperative loop.
type Task struct {
	done chan struct{}
	once sync.Once
	err  error
}

func (t *Task) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// Done is closed when the loop has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the loop's error, or nil while it is still running.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the loop returns.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}
