package loop

import (
	"context"
	"sync"
	"time"

	"github.com/aura-studio/lambdaric/model"
	"github.com/aura-studio/lambdaric/runtimeapi"
)

type report struct {
	kind    string
	id      string
	body    []byte
	payload *runtimeapi.ErrorPayload
}

type nextResult struct {
	inv *model.Invocation
	err error
}

// fakeAPI replays scripted Next results and records every report. Once the
// script is exhausted Next blocks until ctx is done.
type fakeAPI struct {
	mu        sync.Mutex
	script    []nextResult
	polls     int
	reports   []report
	reportErr func(kind, id string) error
}

func newFakeAPI(script ...nextResult) *fakeAPI {
	return &fakeAPI{script: script}
}

func invocation(id, event string) nextResult {
	return nextResult{inv: &model.Invocation{
		AwsRequestID:       id,
		Event:              []byte(event),
		RuntimeDeadlineMs:  time.Now().Add(time.Minute).UnixMilli(),
		InvokedFunctionArn: "arn:aws:lambda:us-east-1:123456789012:function:test",
	}}
}

func pollError(err error) nextResult {
	return nextResult{err: err}
}

func (f *fakeAPI) Next(ctx context.Context) (*model.Invocation, error) {
	f.mu.Lock()
	f.polls++
	if len(f.script) > 0 {
		r := f.script[0]
		f.script = f.script[1:]
		f.mu.Unlock()
		return r.inv, r.err
	}
	f.mu.Unlock()

	<-ctx.Done()
	return nil, &runtimeapi.TransportError{Op: runtimeapi.OpNext, Err: ctx.Err()}
}

func (f *fakeAPI) add(r report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, r)
	if f.reportErr != nil {
		return f.reportErr(r.kind, r.id)
	}
	return nil
}

func (f *fakeAPI) PostResponse(_ context.Context, id string, body []byte) error {
	return f.add(report{kind: runtimeapi.OpResponse, id: id, body: body})
}

func (f *fakeAPI) PostError(_ context.Context, id string, payload *runtimeapi.ErrorPayload) error {
	return f.add(report{kind: runtimeapi.OpError, id: id, payload: payload})
}

func (f *fakeAPI) PostInitError(_ context.Context, payload *runtimeapi.ErrorPayload) error {
	return f.add(report{kind: runtimeapi.OpInitError, payload: payload})
}

func (f *fakeAPI) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func (f *fakeAPI) reportsOf(kind string) []report {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []report
	for _, r := range f.reports {
		if r.kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeAPI) reportCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports)
}

// variant builds one flavour of the loop so every behaviour is asserted
// against both.
type variant struct {
	name  string
	cycle func(api RuntimeAPI, h Handler, opts ...Option) Cycle
	start func(ctx context.Context, api RuntimeAPI, h Handler, opts ...Option) (wait func() error)
}

var variants = []variant{
	{
		name: "blocking",
		cycle: func(api RuntimeAPI, h Handler, opts ...Option) Cycle {
			return New(api, h, opts...)
		},
		start: func(ctx context.Context, api RuntimeAPI, h Handler, opts ...Option) func() error {
			l := New(api, h, opts...)
			errc := make(chan error, 1)
			go func() { errc <- l.Run(ctx) }()
			return func() error { return <-errc }
		},
	},
	{
		name: "cooperative",
		cycle: func(api RuntimeAPI, h Handler, opts ...Option) Cycle {
			return NewCooperative(api, Async(h), opts...)
		},
		start: func(ctx context.Context, api RuntimeAPI, h Handler, opts ...Option) func() error {
			return NewCooperative(api, Async(h), opts...).Start(ctx).Wait
		},
	},
}
