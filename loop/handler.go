package loop

import (
	"context"
	"runtime"

	"github.com/aws/aws-lambda-go/lambda"
)

// Handler processes one invocation's raw event and returns the serialized
// result. It has the same shape as aws-lambda-go's lambda.Handler.
type Handler interface {
	Invoke(ctx context.Context, event []byte) ([]byte, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event []byte) ([]byte, error)

func (f HandlerFunc) Invoke(ctx context.Context, event []byte) ([]byte, error) {
	return f(ctx, event)
}

// NewHandler adapts a typed handler function, following the signature rules
// of aws-lambda-go's lambda.Start, e.g.
//
//	func(context.Context, Event) (Result, error)
//
// Events are JSON-decoded into the parameter and results JSON-encoded.
func NewHandler(fn any, opts ...lambda.Option) Handler {
	return lambda.NewHandlerWithOptions(fn, opts...)
}

// Result is what an AsyncHandler delivers.
type Result struct {
	Payload []byte
	Err     error
}

// AsyncHandler starts processing and delivers exactly one Result on the
// returned channel.
type AsyncHandler interface {
	InvokeAsync(ctx context.Context, event []byte) <-chan Result
}

// AsyncHandlerFunc adapts a function to AsyncHandler.
type AsyncHandlerFunc func(ctx context.Context, event []byte) <-chan Result

func (f AsyncHandlerFunc) InvokeAsync(ctx context.Context, event []byte) <-chan Result {
	return f(ctx, event)
}

// Async runs h on its own goroutine. A panic in h is delivered as a
// *PanicError result.
func Async(h Handler) AsyncHandler {
	return AsyncHandlerFunc(func(ctx context.Context, event []byte) <-chan Result {
		ch := make(chan Result, 1)
		go func() {
			out, err := safeInvoke(ctx, h, event)
			ch <- Result{Payload: out, Err: err}
		}()
		return ch
	})
}

func safeInvoke(ctx context.Context, h Handler, event []byte) (out []byte, err error) {
	defer func() {
		if v := recover(); v != nil {
			out, err = nil, newPanicError(v)
		}
	}()
	return h.Invoke(ctx, event)
}

func newPanicError(v any) *PanicError {
	pcs := make([]uintptr, 32)
	// skip runtime.Callers, newPanicError, the deferred func and gopanic
	n := runtime.Callers(4, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	pe := &PanicError{Value: v}
	for {
		f, more := frames.Next()
		pe.Frames = append(pe.Frames, f)
		if !more {
			break
		}
	}
	return pe
}
