// Package loop drives the invocation cycle against the Runtime API: poll for
// the next invocation, run the handler and report the outcome.
//
// Loop runs the cycle on the calling goroutine. Cooperative runs the same
// cycle on a background goroutine, awaiting each suspension point over
// channels, and hands back a Task.
package loop

import "context"

// Loop is the blocking invocation loop.
type Loop struct {
	*machine
}

var _ Cycle = (*Loop)(nil)

// New creates a blocking loop serving handler.
func New(api RuntimeAPI, handler Handler, opts ...Option) *Loop {
	invoke := func(ctx context.Context, event []byte) ([]byte, error) {
		return safeInvoke(ctx, handler, event)
	}
	return &Loop{machine: newMachine(api, invoke, opts...)}
}

// Run polls and serves invocations until ctx is done, Stop is called or the
// first poll fails. It returns ctx.Err(), ErrStopped or an *InitError.
func (l *Loop) Run(ctx context.Context) error {
	stop := startHeartbeat(ctx, l.HeartbeatInterval, l.Logger)
	defer stop()
	return l.drive(ctx, l)
}
