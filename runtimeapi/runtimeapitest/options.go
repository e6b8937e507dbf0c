package runtimeapitest

import (
	"time"

	"github.com/mohae/deepcopy"
)

type Option interface {
	Apply(o *Options)
}

type OptionFunc func(*Options)

func (f OptionFunc) Apply(o *Options) { f(o) }

type Options struct {
	APIVersion     string
	DebugMode      bool
	DeadlineOffset time.Duration
	FunctionArn    string
	AcceptStatus   int
}

var defaultOptions = &Options{
	APIVersion:     "2018-06-01",
	DebugMode:      false,
	DeadlineOffset: 3 * time.Second,
	FunctionArn:    "arn:aws:lambda:us-east-1:123456789012:function:test",
	AcceptStatus:   202,
}

func NewOptions(opts ...Option) *Options {
	options := deepcopy.Copy(defaultOptions).(*Options)
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(options)
		}
	}
	return options
}

func WithAPIVersion(version string) Option {
	return OptionFunc(func(o *Options) {
		o.APIVersion = version
	})
}

func WithDebugMode() Option {
	return OptionFunc(func(o *Options) {
		o.DebugMode = true
	})
}

// WithDeadlineOffset sets how far in the future queued events are due.
func WithDeadlineOffset(d time.Duration) Option {
	return OptionFunc(func(o *Options) {
		o.DeadlineOffset = d
	})
}

func WithFunctionArn(arn string) Option {
	return OptionFunc(func(o *Options) {
		o.FunctionArn = arn
	})
}

// WithAcceptStatus sets the status answered to report calls.
func WithAcceptStatus(status int) Option {
	return OptionFunc(func(o *Options) {
		o.AcceptStatus = status
	})
}
