// Package bootstrap assembles a runtime process: function metadata and the
// Runtime API address from the environment, lambda.yaml, a zap logger, the
// audit sink and the handler, then runs the invocation loop.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/aura-studio/lambdaric/audit"
	"github.com/aura-studio/lambdaric/dynamic"
	"github.com/aura-studio/lambdaric/loop"
	"github.com/aura-studio/lambdaric/model"
	"github.com/aura-studio/lambdaric/runtimeapi"
	"go.uber.org/zap"
)

// Bootstrap is a fully wired runtime, ready to Run.
type Bootstrap struct {
	*Options

	Metadata model.Metadata
	Client   *runtimeapi.Client
	Sink     audit.Sink
}

// Load reads the environment and builds every collaborator. Nothing is
// contacted yet except the AWS config chain when an audit queue is set.
func Load(ctx context.Context, opts ...Option) (*Bootstrap, error) {
	o := NewOptions(opts...)

	if o.Logger == nil {
		logger, err := NewLogger(o.Debug)
		if err != nil {
			return nil, err
		}
		o.Logger = logger
	}

	if err := applyCredentialAliases(o.Lookup, o.Setenv); err != nil {
		return nil, err
	}

	md, err := MetadataFromLookup(o.Lookup)
	if err != nil {
		return nil, err
	}

	rtOpts := []runtimeapi.Option{runtimeapi.WithLogger(o.Logger.Named("runtimeapi"))}
	if addr, err := RuntimeAPIFromLookup(o.Lookup); err == nil {
		rtOpts = append(rtOpts, runtimeapi.WithAddress(addr))
	}
	rtOpts = append(rtOpts, o.Runtime...)
	client := runtimeapi.NewClient(rtOpts...)
	if client.Address == "" && client.BaseURL == "" {
		return nil, ErrNoRuntimeAPI
	}

	sink, err := newSink(ctx, o)
	if err != nil {
		return nil, err
	}

	if o.Handler == nil {
		dynOpts := append([]dynamic.Option{
			dynamic.WithLogger(o.Logger.Named("dynamic")),
			dynamic.WithDebugMode(o.Debug),
		}, o.Dynamic...)
		o.Handler = dynamic.NewHandler(dynOpts...)
	}

	return &Bootstrap{
		Options:  o,
		Metadata: md,
		Client:   client,
		Sink:     sink,
	}, nil
}

func newSink(ctx context.Context, o *Options) (audit.Sink, error) {
	var sinks []audit.Sink
	if o.Debug {
		sinks = append(sinks, audit.NewLogSink(o.Logger.Named("audit")))
	}
	if audit.NewOptions(o.Audit...).QueueURL != "" {
		s, err := audit.NewSQSSink(ctx, o.Audit...)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	switch len(sinks) {
	case 0:
		return audit.Nop(), nil
	case 1:
		return sinks[0], nil
	default:
		return audit.Multi(sinks...), nil
	}
}

func (b *Bootstrap) loopOptions() []loop.Option {
	return append([]loop.Option{
		loop.WithLogger(b.Logger.Named("loop")),
		loop.WithMetadata(b.Metadata),
		loop.WithSink(b.Sink),
		loop.WithDebugMode(b.Debug),
	}, b.Loop...)
}

// Run serves invocations until ctx is done or the first poll fails.
func (b *Bootstrap) Run(ctx context.Context) error {
	b.Logger.Info("runtime starting",
		zap.String("function", b.Metadata.FunctionName),
		zap.String("version", b.Metadata.FunctionVersion),
		zap.String("variant", string(b.Variant)),
		zap.String("runtime_api", b.Client.URL("")))

	switch b.Variant {
	case VariantCooperative:
		return loop.NewCooperative(b.Client, loop.Async(b.Handler), b.loopOptions()...).Start(ctx).Wait()
	case VariantBlocking, "":
		return loop.New(b.Client, b.Handler, b.loopOptions()...).Run(ctx)
	default:
		return fmt.Errorf("bootstrap: unknown variant %q", b.Variant)
	}
}

// NewLogger builds the process logger.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Start loads and runs with opts, the equivalent of lambda.Start. It returns
// only when the loop ends.
func Start(ctx context.Context, opts ...Option) error {
	b, err := Load(ctx, opts...)
	if err != nil {
		return err
	}
	defer b.Logger.Sync()
	return b.Run(ctx)
}
