package audit

import (
	"time"

	"github.com/mohae/deepcopy"
)

// Format selects the SQS message body encoding.
type Format string

const (
	// FormatProto is a base64 encoded protobuf Struct.
	FormatProto Format = "proto"
	// FormatJSON is the plain JSON document from Record.JSON.
	FormatJSON Format = "json"
)

type Options struct {
	SQSClient SQSClient `json:"-"`
	QueueURL  string
	Region    string
	Format    Format
	Timeout   time.Duration // per message
}

type Option interface {
	Apply(o *Options)
}

type OptionFunc func(*Options)

func (f OptionFunc) Apply(o *Options) { f(o) }

var defaultOptions = &Options{
	Format:  FormatProto,
	Timeout: 2 * time.Second,
}

func NewOptions(opts ...Option) *Options {
	o := deepcopy.Copy(defaultOptions).(*Options)
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(o)
		}
	}
	return o
}

func WithSQSClient(client SQSClient) Option {
	return OptionFunc(func(o *Options) {
		o.SQSClient = client
	})
}

func WithQueueURL(url string) Option {
	return OptionFunc(func(o *Options) {
		o.QueueURL = url
	})
}

func WithRegion(region string) Option {
	return OptionFunc(func(o *Options) {
		o.Region = region
	})
}

func WithFormat(format Format) Option {
	return OptionFunc(func(o *Options) {
		o.Format = format
	})
}

func WithTimeout(timeout time.Duration) Option {
	return OptionFunc(func(o *Options) {
		o.Timeout = timeout
	})
}
