package bootstrap

import (
	"os"

	"github.com/aura-studio/lambdaric/audit"
	"github.com/aura-studio/lambdaric/dynamic"
	"github.com/aura-studio/lambdaric/loop"
	"github.com/aura-studio/lambdaric/runtimeapi"
	"go.uber.org/zap"
)

// Variant selects the loop flavour.
type Variant string

const (
	VariantBlocking    Variant = "blocking"
	VariantCooperative Variant = "cooperative"
)

type Option interface {
	Apply(*Options)
}

type OptionFunc func(*Options)

func (f OptionFunc) Apply(o *Options) { f(o) }

type Options struct {
	Handler loop.Handler
	Logger  *zap.Logger
	Lookup  LookupFunc
	Setenv  func(key, value string) error

	Variant Variant
	Debug   bool

	Runtime []runtimeapi.Option
	Loop    []loop.Option
	Audit   []audit.Option
	Dynamic []dynamic.Option
}

func NewOptions(opts ...Option) *Options {
	o := &Options{Variant: VariantBlocking}
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(o)
		}
	}
	if o.Lookup == nil {
		o.Lookup = os.LookupEnv
	}
	if o.Setenv == nil {
		o.Setenv = os.Setenv
	}
	return o
}

// WithHandler serves h instead of the dynamic package handler.
func WithHandler(h loop.Handler) Option {
	return OptionFunc(func(o *Options) {
		o.Handler = h
	})
}

// WithHandlerFunc adapts an aws-lambda-go style typed function.
func WithHandlerFunc(fn any) Option {
	return WithHandler(loop.NewHandler(fn))
}

// WithLogger replaces the logger built from the debug flag.
func WithLogger(logger *zap.Logger) Option {
	return OptionFunc(func(o *Options) {
		o.Logger = logger
	})
}

// WithLookup replaces the environment lookup.
func WithLookup(lookup LookupFunc) Option {
	return OptionFunc(func(o *Options) {
		o.Lookup = lookup
	})
}

// WithSetenv replaces the environment writer used for credential aliases.
func WithSetenv(setenv func(key, value string) error) Option {
	return OptionFunc(func(o *Options) {
		o.Setenv = setenv
	})
}

func WithVariant(v Variant) Option {
	return OptionFunc(func(o *Options) {
		o.Variant = v
	})
}

func WithDebug(debug bool) Option {
	return OptionFunc(func(o *Options) {
		o.Debug = debug
	})
}

func WithRuntimeOptions(opts ...runtimeapi.Option) Option {
	return OptionFunc(func(o *Options) {
		o.Runtime = append(o.Runtime, opts...)
	})
}

func WithLoopOptions(opts ...loop.Option) Option {
	return OptionFunc(func(o *Options) {
		o.Loop = append(o.Loop, opts...)
	})
}

func WithAuditOptions(opts ...audit.Option) Option {
	return OptionFunc(func(o *Options) {
		o.Audit = append(o.Audit, opts...)
	})
}

func WithDynamicOptions(opts ...dynamic.Option) Option {
	return OptionFunc(func(o *Options) {
		o.Dynamic = append(o.Dynamic, opts...)
	})
}
