package loop

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/aura-studio/lambdaric/runtimeapi"
)

// ErrStopped is returned by Run after Stop.
var ErrStopped = errors.New("loop: stopped")

// PanicError is a recovered handler panic.
type PanicError struct {
	Value  any
	Frames []runtime.Frame
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Stack renders the frames like a goroutine trace.
func (e *PanicError) Stack() string {
	var b strings.Builder
	for _, f := range e.Frames {
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
	}
	return b.String()
}

// HandlerError is a failure raised by the handler for one invocation. It is
// reported through the invocation error endpoint and never escapes the loop.
type HandlerError struct {
	RequestID string
	Err       error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("loop: handler failed for %s: %v", e.RequestID, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// Payload describes the failure for the Runtime API.
func (e *HandlerError) Payload() *runtimeapi.ErrorPayload {
	var pe *PanicError
	if errors.As(e.Err, &pe) {
		return runtimeapi.NewPanicPayload(pe.Value, pe.Frames)
	}
	return runtimeapi.NewErrorPayload(e.Err)
}

// InitError is a failure before any invocation was received. The loop
// reports it through the init error endpoint and terminates.
type InitError struct {
	Err error
	// ReportErr is set when posting the init error itself failed.
	ReportErr error
}

func (e *InitError) Error() string {
	if e.ReportErr != nil {
		return fmt.Sprintf("loop: init failed: %v (init error report failed: %v)", e.Err, e.ReportErr)
	}
	return fmt.Sprintf("loop: init failed: %v", e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }
