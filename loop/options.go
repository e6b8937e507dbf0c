package loop

import (
	"time"

	"github.com/aura-studio/lambdaric/audit"
	"github.com/aura-studio/lambdaric/model"
	"github.com/mohae/deepcopy"
	"go.uber.org/zap"
)

// Option is the interface for configuring Options
type Option interface {
	Apply(o *Options)
}

// OptionFunc is a function that implements the Option interface
type OptionFunc func(*Options)

// Apply implements the Option interface
func (f OptionFunc) Apply(o *Options) { f(o) }

// Options holds the configuration for the invocation loop
type Options struct {
	Logger *zap.Logger `json:"-"`
	Sink   audit.Sink  `json:"-"`
	Clock  model.Clock `json:"-"`

	Metadata          model.Metadata // static function metadata
	HeartbeatInterval time.Duration  // 0 disables the heartbeat
	ExportTraceID     bool           // set _X_AMZN_TRACE_ID per invocation
	DebugMode         bool           // log every cycle
}

var defaultOptions = &Options{
	HeartbeatInterval: 0,
	ExportTraceID:     true,
	DebugMode:         false,
}

// NewOptions creates a new Options instance with the given options applied
func NewOptions(opts ...Option) *Options {
	options := deepcopy.Copy(defaultOptions).(*Options)
	options.init(opts...)
	return options
}

func (o *Options) init(opts ...Option) {
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(o)
		}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Sink == nil {
		o.Sink = audit.Nop()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return OptionFunc(func(o *Options) {
		o.Logger = logger
	})
}

// WithSink sets the audit sink receiving one record per cycle
func WithSink(sink audit.Sink) Option {
	return OptionFunc(func(o *Options) {
		o.Sink = sink
	})
}

// WithClock sets the clock used for remaining time
func WithClock(clock model.Clock) Option {
	return OptionFunc(func(o *Options) {
		o.Clock = clock
	})
}

// WithMetadata sets the static function metadata
func WithMetadata(md model.Metadata) Option {
	return OptionFunc(func(o *Options) {
		o.Metadata = md
	})
}

// WithHeartbeat enables the heartbeat at the given interval
func WithHeartbeat(interval time.Duration) Option {
	return OptionFunc(func(o *Options) {
		o.HeartbeatInterval = interval
	})
}

// WithExportTraceID toggles exporting the trace id to the environment
func WithExportTraceID(export bool) Option {
	return OptionFunc(func(o *Options) {
		o.ExportTraceID = export
	})
}

// WithDebugMode sets the debug mode
func WithDebugMode(debug bool) Option {
	return OptionFunc(func(o *Options) {
		o.DebugMode = debug
	})
}
