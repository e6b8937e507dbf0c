package bootstrap

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aura-studio/lambdaric/audit"
	"github.com/aura-studio/lambdaric/dynamic"
	"github.com/aura-studio/lambdaric/loop"
	"github.com/aura-studio/lambdaric/model"
	"github.com/aura-studio/lambdaric/runtimeapi"
	"github.com/aura-studio/lambdaric/runtimeapi/runtimeapitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func lookupMap(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestMetadataFromLookup(t *testing.T) {
	md, err := MetadataFromLookup(lookupMap(map[string]string{
		EnvFunctionName:    "shop-go-al2-api-blue",
		EnvFunctionVersion: "$LATEST",
		EnvMemorySize:      "512",
		EnvLogGroupName:    "/aws/lambda/shop",
		EnvLogStreamName:   "2024/05/01/[$LATEST]abc",
	}))
	require.NoError(t, err)
	assert.Equal(t, model.Metadata{
		FunctionName:    "shop-go-al2-api-blue",
		FunctionVersion: "$LATEST",
		MemoryLimitInMB: 512,
		LogGroupName:    "/aws/lambda/shop",
		LogStreamName:   "2024/05/01/[$LATEST]abc",
	}, md)

	md, err = MetadataFromLookup(lookupMap(nil))
	require.NoError(t, err)
	assert.Equal(t, model.Metadata{}, md)

	_, err = MetadataFromLookup(lookupMap(map[string]string{EnvMemorySize: "lots"}))
	assert.Error(t, err)
}

func TestRuntimeAPIFromLookup(t *testing.T) {
	addr, err := RuntimeAPIFromLookup(lookupMap(map[string]string{EnvRuntimeAPI: "127.0.0.1:9001"}))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9001", addr)

	_, err = RuntimeAPIFromLookup(lookupMap(map[string]string{EnvRuntimeAPI: ""}))
	assert.ErrorIs(t, err, ErrNoRuntimeAPI)
}

func TestApplyCredentialAliases(t *testing.T) {
	env := map[string]string{
		"CONFIG_REGION":     "eu-west-1",
		"CONFIG_ACCESS":     "AKIA",
		"AWS_ACCESS_KEY_ID": "already-set",
	}
	set := map[string]string{}
	err := applyCredentialAliases(lookupMap(env), func(k, v string) error {
		set[k] = v
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"AWS_REGION": "eu-west-1"}, set)

	err = applyCredentialAliases(lookupMap(env), func(string, string) error { return errors.New("read-only") })
	assert.ErrorContains(t, err, "AWS_REGION")
}

func TestLoadRequiresRuntimeAPI(t *testing.T) {
	_, err := Load(context.Background(), WithLookup(lookupMap(nil)), WithLogger(zap.NewNop()))
	assert.ErrorIs(t, err, ErrNoRuntimeAPI)
}

func TestLoadDefaultsToDynamicHandler(t *testing.T) {
	b, err := Load(context.Background(),
		WithLookup(lookupMap(map[string]string{EnvRuntimeAPI: "127.0.0.1:9001"})),
		WithLogger(zap.NewNop()),
	)
	require.NoError(t, err)
	assert.IsType(t, &dynamic.Handler{}, b.Handler)
	assert.Equal(t, "http://127.0.0.1:9001/2018-06-01/", b.Client.URL(""))
}

func TestRunServesInvocations(t *testing.T) {
	for _, variant := range []Variant{VariantBlocking, VariantCooperative} {
		t.Run(string(variant), func(t *testing.T) {
			srv := runtimeapitest.NewServer()
			defer srv.Close()
			srv.Enqueue([]byte(`{"x":1}`), runtimeapitest.WithRequestID("abc-1"))

			handler := func(ctx context.Context, in struct{ X int }) (map[string]any, error) {
				ec, _ := model.FromContext(ctx)
				return map[string]any{"y": in.X + 1, "fn": ec.FunctionName}, nil
			}

			b, err := Load(context.Background(),
				WithLookup(lookupMap(map[string]string{
					EnvRuntimeAPI:   srv.Address(),
					EnvFunctionName: "fn",
				})),
				WithLogger(zap.NewNop()),
				WithVariant(variant),
				WithHandlerFunc(handler),
				WithLoopOptions(loop.WithExportTraceID(false)),
			)
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			errc := make(chan error, 1)
			go func() { errc <- b.Run(ctx) }()

			calls := srv.WaitCalls(runtimeapitest.CallResponse, 1, 5*time.Second)
			cancel()
			assert.ErrorIs(t, <-errc, context.Canceled)

			require.Len(t, calls, 1)
			assert.Equal(t, "abc-1", calls[0].RequestID)
			assert.JSONEq(t, `{"y":2,"fn":"fn"}`, string(calls[0].Body))
		})
	}
}

func TestStartFailsWhenControlPlaneIsUnreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	err = Start(context.Background(),
		WithLookup(lookupMap(map[string]string{EnvRuntimeAPI: addr})),
		WithLogger(zap.NewNop()),
		WithHandler(loop.HandlerFunc(func(context.Context, []byte) ([]byte, error) { return nil, nil })),
	)

	var ie *loop.InitError
	require.True(t, errors.As(err, &ie))
	assert.Error(t, ie.ReportErr)
}

func TestWithConfig(t *testing.T) {
	o := NewOptions(WithConfig([]byte(`
variant: cooperative
debug: true
runtime:
  address: 127.0.0.1:9001
  timeout: 2s
loop:
  heartbeat: 1m
audit:
  sqs:
    format: json
dynamic:
  package:
    namespace: shop
`)))

	assert.Equal(t, VariantCooperative, o.Variant)
	assert.True(t, o.Debug)
	require.Len(t, o.Runtime, 1)
	require.Len(t, o.Loop, 1)
	require.Len(t, o.Audit, 1)
	require.Len(t, o.Dynamic, 1)

	assert.Equal(t, "127.0.0.1:9001", runtimeapiAddress(o))
	assert.Equal(t, time.Minute, loop.NewOptions(o.Loop...).HeartbeatInterval)
	assert.Equal(t, "shop", dynamic.NewOptions(o.Dynamic...).PackageNamespace)

	assert.Panics(t, func() { NewOptions(WithConfig([]byte(`variant: threaded`))) })
	assert.Panics(t, func() { NewOptions(WithConfig([]byte(`runtime: [`))) })
}

func TestWithConfigDefersPanicToApply(t *testing.T) {
	var opt Option
	assert.NotPanics(t, func() { opt = WithConfigFile(filepath.Join(t.TempDir(), "missing.yaml")) })
	assert.Panics(t, func() { NewOptions(opt) })
}

func TestParseConfigErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"variant":   `variant: threaded`,
		"yaml":      `variant: [`,
		"runtime":   "runtime:\n  timeout: soon\n",
		"loop":      "loop:\n  heartbeat: -1s\n",
		"audit":     "audit:\n  sqs:\n    format: xml\n",
		"not a map": "dynamic: 3\n",
	} {
		_, err := ParseConfig([]byte(doc))
		assert.Error(t, err, name)
	}

	opt, err := ParseConfig([]byte("variant: cooperative\n"))
	require.NoError(t, err)
	assert.Equal(t, VariantCooperative, NewOptions(opt).Variant)
}

func TestLoadConfigFile(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	p := filepath.Join(t.TempDir(), "lambda.yaml")
	require.NoError(t, os.WriteFile(p, []byte("debug: true\n"), 0o644))
	opt, err := LoadConfigFile(p)
	require.NoError(t, err)
	assert.True(t, NewOptions(opt).Debug)
}

func TestWithConfigKeepsDebugForLoop(t *testing.T) {
	o := NewOptions(WithDebug(true), WithConfig([]byte("loop:\n  heartbeat: 1s\n")))
	b := &Bootstrap{Options: o}
	b.Logger = zap.NewNop()
	b.Sink = audit.Nop()
	assert.True(t, loop.NewOptions(b.loopOptions()...).DebugMode)
}

func TestFindDefaultConfigFile(t *testing.T) {
	dir := t.TempDir()
	_, err := FindDefaultConfigFile(dir)
	assert.Error(t, err)

	p := filepath.Join(dir, "lambda.yml")
	require.NoError(t, os.WriteFile(p, []byte("variant: blocking\n"), 0o644))

	got, err := FindDefaultConfigFile(dir)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	assert.Equal(t, VariantBlocking, NewOptions(WithConfigFile(got)).Variant)
}

func runtimeapiAddress(o *Options) string {
	return runtimeapi.NewOptions(o.Runtime...).Address
}
