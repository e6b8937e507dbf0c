package model

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMetadata = Metadata{
	FunctionName:    "orders",
	FunctionVersion: "$LATEST",
	MemoryLimitInMB: 512,
	LogGroupName:    "/aws/lambda/orders",
	LogStreamName:   "2026/10/17/[$LATEST]abcdef",
}

// fakeClock advances by step on every call.
func fakeClock(start time.Time, step time.Duration) Clock {
	now := start
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

func TestBuildContextMergesMetadataAndInvocation(t *testing.T) {
	inv := &Invocation{
		Event:              []byte(`{"x":1}`),
		AwsRequestID:       "abc-1",
		RuntimeDeadlineMs:  1_700_000_005_000,
		InvokedFunctionArn: "arn:aws:lambda:eu-west-1:123456789012:function:orders:prod",
		TraceID:            "Root=1-5bef4de7-ad49b0e87f6ef6c87fc2e700",
		ClientContext: &ClientContext{
			Client: ClientApplication{InstallationID: "install-1", AppTitle: "shop"},
			Custom: map[string]any{"tier": "gold"},
			Env:    map[string]string{"platform": "ios"},
		},
		CognitoIdentity: &CognitoIdentity{IdentityID: "id-1", IdentityPoolID: "pool-1"},
	}

	c := BuildContext(inv, testMetadata)

	assert.Equal(t, testMetadata, c.Metadata)
	assert.Equal(t, "abc-1", c.AwsRequestID)
	assert.Equal(t, inv.InvokedFunctionArn, c.InvokedFunctionArn)
	assert.Equal(t, inv.TraceID, c.TraceID)
	assert.Same(t, inv.ClientContext, c.ClientContext)
	assert.Same(t, inv.CognitoIdentity, c.Identity)
	assert.Equal(t, int64(1_700_000_005_000), c.RuntimeDeadlineMs())
	assert.Equal(t, time.UnixMilli(1_700_000_005_000), c.Deadline())
}

func TestRemainingTimeMsIsRecomputed(t *testing.T) {
	start := time.UnixMilli(1_700_000_000_000)
	inv := &Invocation{AwsRequestID: "abc-1", RuntimeDeadlineMs: start.UnixMilli() + 5000}

	c := BuildContextWithClock(inv, testMetadata, fakeClock(start, time.Second))

	assert.Equal(t, int64(5000), c.RemainingTimeMs())
	assert.Equal(t, int64(4000), c.RemainingTimeMs())
}

func TestRemainingTimeMsGoesNegative(t *testing.T) {
	start := time.UnixMilli(1_700_000_000_000)
	inv := &Invocation{AwsRequestID: "late", RuntimeDeadlineMs: start.UnixMilli() - 250}

	c := BuildContextWithClock(inv, testMetadata, func() time.Time { return start })

	assert.Equal(t, int64(-250), c.RemainingTimeMs())
}

func TestRemainingTimeMsNonIncreasing(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(42)

	properties := gopter.NewProperties(parameters)

	properties.Property("RemainingTimeMs never grows while the clock advances", prop.ForAll(
		func(deadlineOffset int64, stepMs int64, calls int) bool {
			start := time.UnixMilli(1_700_000_000_000)
			inv := &Invocation{AwsRequestID: "prop", RuntimeDeadlineMs: start.UnixMilli() + deadlineOffset}
			c := BuildContextWithClock(inv, testMetadata, fakeClock(start, time.Duration(stepMs)*time.Millisecond))

			prev := c.RemainingTimeMs()
			for i := 0; i < calls; i++ {
				cur := c.RemainingTimeMs()
				if cur > prev {
					t.Logf("remaining time grew: %d -> %d", prev, cur)
					return false
				}
				prev = cur
			}
			return true
		},
		gen.Int64Range(-10_000, 900_000),
		gen.Int64Range(0, 5_000),
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}

func TestNewContextExposesBothViews(t *testing.T) {
	inv := &Invocation{
		AwsRequestID:       "abc-1",
		RuntimeDeadlineMs:  time.Now().Add(time.Minute).UnixMilli(),
		InvokedFunctionArn: "arn:aws:lambda:eu-west-1:123456789012:function:orders",
		ClientContext: &ClientContext{
			Client: ClientApplication{InstallationID: "install-1", AppPackageName: "com.example.shop"},
			Custom: map[string]any{"tier": "gold", "level": 3},
		},
		CognitoIdentity: &CognitoIdentity{IdentityID: "id-1", IdentityPoolID: "pool-1"},
	}
	c := BuildContext(inv, testMetadata)

	ctx, cancel := NewContext(context.Background(), c)
	defer cancel()

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, c, got)

	lc, ok := lambdacontext.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "abc-1", lc.AwsRequestID)
	assert.Equal(t, inv.InvokedFunctionArn, lc.InvokedFunctionArn)
	assert.Equal(t, "pool-1", lc.Identity.CognitoIdentityPoolID)
	assert.Equal(t, "com.example.shop", lc.ClientContext.Client.AppPackageName)
	assert.Equal(t, map[string]string{"tier": "gold", "level": "3"}, lc.ClientContext.Custom)

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.Equal(t, c.Deadline(), deadline)
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}
