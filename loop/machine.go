package loop

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"time"

	"github.com/aura-studio/lambdaric/audit"
	"github.com/aura-studio/lambdaric/model"
	"github.com/aura-studio/lambdaric/runtimeapi"
	"go.uber.org/zap"
)

const envTraceID = "_X_AMZN_TRACE_ID"

// RuntimeAPI is the control plane as seen by the loop. *runtimeapi.Client
// implements it.
type RuntimeAPI interface {
	Next(ctx context.Context) (*model.Invocation, error)
	PostResponse(ctx context.Context, requestID string, body []byte) error
	PostError(ctx context.Context, requestID string, payload *runtimeapi.ErrorPayload) error
	PostInitError(ctx context.Context, payload *runtimeapi.ErrorPayload) error
}

var _ RuntimeAPI = (*runtimeapi.Client)(nil)

// Cycle runs one full Idle → Invoking → Reporting → Idle cycle.
//
// The returned state is Idle, or TerminatedInitError once the first poll
// failed. The error describes what went wrong during the cycle; only an
// error returned with a terminal state stops the loop.
type Cycle interface {
	Step(ctx context.Context) (State, error)
}

type invokeFunc func(ctx context.Context, event []byte) ([]byte, error)

// machine is the state machine shared by Loop and Cooperative. Step must be
// driven from a single goroutine.
type machine struct {
	*Options
	api     RuntimeAPI
	invoke  invokeFunc
	state   atomic.Int32
	running atomic.Int32
	polled  bool
	initErr error
}

func newMachine(api RuntimeAPI, invoke invokeFunc, opts ...Option) *machine {
	m := &machine{
		Options: NewOptions(opts...),
		api:     api,
		invoke:  invoke,
	}
	m.running.Store(1)
	return m
}

// State returns the current state. Safe for concurrent use.
func (m *machine) State() State {
	return State(m.state.Load())
}

func (m *machine) setState(s State) {
	old := State(m.state.Swap(int32(s)))
	if m.DebugMode && old != s {
		m.Logger.Debug("state", zap.Stringer("from", old), zap.Stringer("state", s))
	}
}

// Stop makes the loop return ErrStopped at the next Idle check. A cycle in
// progress is completed first.
func (m *machine) Stop() {
	m.running.Store(0)
}

// IsRunning reports whether Stop has not been called.
func (m *machine) IsRunning() bool {
	return m.running.Load() == 1
}

func (m *machine) Step(ctx context.Context) (State, error) {
	if s := m.State(); s.Terminal() {
		return s, m.initErr
	}

	inv, err := m.api.Next(ctx)
	if err != nil {
		return m.pollFailed(ctx, err)
	}
	m.polled = true

	// Reports and the handler outlive a cancelled ctx: an accepted
	// invocation is always answered.
	rctx := context.WithoutCancel(ctx)
	logger := m.Logger.With(zap.String("request_id", inv.AwsRequestID))

	m.setState(Invoking)
	started := m.Clock()
	if m.ExportTraceID {
		if err := os.Setenv(envTraceID, inv.TraceID); err != nil {
			logger.Warn("export trace id", zap.Error(err))
		}
	}
	out, herr := m.call(rctx, inv)

	m.setState(Reporting)
	rec := m.record(inv.AwsRequestID, started)

	var cycleErr error
	if herr != nil {
		he := &HandlerError{RequestID: inv.AwsRequestID, Err: herr}
		payload := he.Payload()
		logHandlerError(logger, he)

		rec.Outcome = audit.OutcomeError
		rec.ErrorType, rec.ErrorMessage = payload.Type, payload.Message

		cycleErr = he
		if rerr := m.api.PostError(rctx, inv.AwsRequestID, payload); rerr != nil {
			logger.Error("report error failed", zap.Error(rerr))
			rec.ReportError = rerr.Error()
			cycleErr = errors.Join(he, rerr)
		}
	} else {
		rec.Outcome = audit.OutcomeResponse
		if rerr := m.api.PostResponse(rctx, inv.AwsRequestID, out); rerr != nil {
			logger.Error("report response failed", zap.Error(rerr))
			rec.ReportError = rerr.Error()
			cycleErr = rerr
		}
	}

	rec.Duration = m.Clock().Sub(started)
	m.emit(rctx, logger, rec)
	m.setState(Idle)
	return Idle, cycleErr
}

// pollFailed decides between retrying and terminating. Only a failure before
// the first successful poll terminates.
func (m *machine) pollFailed(ctx context.Context, err error) (State, error) {
	if ctx.Err() != nil {
		return Idle, ctx.Err()
	}
	if m.polled {
		m.Logger.Error("poll failed", zap.Error(err))
		return Idle, err
	}

	m.Logger.Error("first poll failed", zap.Error(err))
	ie := &InitError{Err: err}
	payload := runtimeapi.NewErrorPayload(err)
	rctx := context.WithoutCancel(ctx)
	if rerr := m.api.PostInitError(rctx, payload); rerr != nil {
		m.Logger.Error("report init error failed", zap.Error(rerr))
		ie.ReportErr = rerr
	}

	rec := m.record("", m.Clock())
	rec.Outcome = audit.OutcomeInitError
	rec.ErrorType, rec.ErrorMessage = payload.Type, payload.Message
	if ie.ReportErr != nil {
		rec.ReportError = ie.ReportErr.Error()
	}
	m.emit(rctx, m.Logger, rec)

	m.initErr = ie
	m.setState(TerminatedInitError)
	return TerminatedInitError, ie
}

func (m *machine) call(ctx context.Context, inv *model.Invocation) ([]byte, error) {
	ec := model.BuildContextWithClock(inv, m.Metadata, m.Clock)
	hctx, cancel := model.NewContext(ctx, ec)
	defer cancel()
	return m.invoke(hctx, inv.Event)
}

func (m *machine) record(requestID string, started time.Time) audit.Record {
	return audit.Record{
		RequestID:       requestID,
		FunctionName:    m.Metadata.FunctionName,
		FunctionVersion: m.Metadata.FunctionVersion,
		StartedAt:       started,
	}
}

func (m *machine) emit(ctx context.Context, logger *zap.Logger, rec audit.Record) {
	if err := m.Sink.Record(ctx, rec); err != nil {
		logger.Warn("audit sink failed", zap.Error(err))
	}
}

// drive runs c until ctx is done, Stop is called or c terminates.
func (m *machine) drive(ctx context.Context, c Cycle) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !m.IsRunning() {
			return ErrStopped
		}
		if state, err := c.Step(ctx); state.Terminal() {
			return err
		}
	}
}

func logHandlerError(logger *zap.Logger, he *HandlerError) {
	var pe *PanicError
	if errors.As(he.Err, &pe) {
		logger.Error("handler panicked", zap.Any("panic", pe.Value), zap.String("stack", pe.Stack()))
		return
	}
	logger.Error("handler failed", zap.Error(he.Err), zap.Stack("stack"))
}
