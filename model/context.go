package model

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
)

// Clock returns the current wall-clock time.
type Clock func() time.Time

// ExecutionContext is the read-only view of an invocation passed to the
// handler.
type ExecutionContext struct {
	Metadata

	InvokedFunctionArn string
	AwsRequestID       string
	TraceID            string
	ClientContext      *ClientContext
	Identity           *CognitoIdentity

	runtimeDeadlineMs int64
	clock             Clock
}

// BuildContext merges the static metadata with the per-invocation fields.
func BuildContext(inv *Invocation, md Metadata) *ExecutionContext {
	return BuildContextWithClock(inv, md, time.Now)
}

// BuildContextWithClock is BuildContext with an explicit clock for
// RemainingTimeMs.
func BuildContextWithClock(inv *Invocation, md Metadata, clock Clock) *ExecutionContext {
	if clock == nil {
		clock = time.Now
	}
	return &ExecutionContext{
		Metadata:           md,
		InvokedFunctionArn: inv.InvokedFunctionArn,
		AwsRequestID:       inv.AwsRequestID,
		TraceID:            inv.TraceID,
		ClientContext:      inv.ClientContext,
		Identity:           inv.CognitoIdentity,
		runtimeDeadlineMs:  inv.RuntimeDeadlineMs,
		clock:              clock,
	}
}

// RuntimeDeadlineMs returns the absolute deadline in epoch milliseconds.
func (c *ExecutionContext) RuntimeDeadlineMs() int64 {
	return c.runtimeDeadlineMs
}

// Deadline returns the runtime deadline as a time.Time.
func (c *ExecutionContext) Deadline() time.Time {
	return time.UnixMilli(c.runtimeDeadlineMs)
}

// RemainingTimeMs returns the milliseconds left before the deadline. It is
// recomputed on every call and goes negative once the deadline has passed.
func (c *ExecutionContext) RemainingTimeMs() int64 {
	return c.runtimeDeadlineMs - c.clock().UnixMilli()
}

// LambdaContext converts c into the aws-lambda-go representation.
func (c *ExecutionContext) LambdaContext() *lambdacontext.LambdaContext {
	lc := &lambdacontext.LambdaContext{
		AwsRequestID:       c.AwsRequestID,
		InvokedFunctionArn: c.InvokedFunctionArn,
	}
	if c.Identity != nil {
		lc.Identity = lambdacontext.CognitoIdentity{
			CognitoIdentityID:     c.Identity.IdentityID,
			CognitoIdentityPoolID: c.Identity.IdentityPoolID,
		}
	}
	if cc := c.ClientContext; cc != nil {
		lc.ClientContext = lambdacontext.ClientContext{
			Client: lambdacontext.ClientApplication{
				InstallationID: cc.Client.InstallationID,
				AppTitle:       cc.Client.AppTitle,
				AppVersionCode: cc.Client.AppVersionCode,
				AppPackageName: cc.Client.AppPackageName,
			},
			Env:    cc.Env,
			Custom: stringify(cc.Custom),
		}
	}
	return lc
}

// lambdacontext only carries string custom values.
func stringify(m map[string]any) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		switch v := v.(type) {
		case string:
			out[k] = v
		default:
			b, err := json.Marshal(v)
			if err != nil {
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}

type contextKey struct{}

var executionContextKey = &contextKey{}

// NewContext returns a child of parent carrying c, readable through both
// FromContext and lambdacontext.FromContext. The child also carries the
// runtime deadline; the loop itself never cancels it early.
func NewContext(parent context.Context, c *ExecutionContext) (context.Context, context.CancelFunc) {
	ctx := context.WithValue(parent, executionContextKey, c)
	ctx = lambdacontext.NewContext(ctx, c.LambdaContext())
	if c.runtimeDeadlineMs > 0 {
		return context.WithDeadline(ctx, c.Deadline())
	}
	return context.WithCancel(ctx)
}

// FromContext returns the ExecutionContext stored in ctx, if any.
func FromContext(ctx context.Context) (*ExecutionContext, bool) {
	c, ok := ctx.Value(executionContextKey).(*ExecutionContext)
	return c, ok
}
