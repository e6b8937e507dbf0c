package runtimeapi

import (
	"net/http"
	"time"

	"github.com/mohae/deepcopy"
	"go.uber.org/zap"
)

// HTTPClient is the subset of *http.Client the client uses.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	HTTPClient HTTPClient  `json:"-"`
	Logger     *zap.Logger `json:"-"`

	Address        string            // host:port of the Runtime API
	APIVersion     string            // path prefix, e.g. 2018-06-01
	BaseURL        string            // overrides Address and APIVersion
	DefaultTimeout time.Duration     // per report timeout, 0 disables
	Headers        map[string]string // sent on every request
	UserAgent      string
	ContentType    string // of invocation responses
}

type Option interface {
	Apply(o *Options)
}

type OptionFunc func(*Options)

func (f OptionFunc) Apply(o *Options) { f(o) }

var defaultOptions = &Options{
	APIVersion:     APIVersion20180601,
	DefaultTimeout: 0,
	Headers:        map[string]string{},
	UserAgent:      defaultUserAgent,
	ContentType:    contentTypeJSON,
}

// NewOptions applies opts over a copy of the defaults.
func NewOptions(opts ...Option) *Options {
	o := deepcopy.Copy(defaultOptions).(*Options)
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(o)
		}
	}
	if o.HTTPClient == nil {
		o.HTTPClient = http.DefaultClient
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// baseURL is http://{host:port}/{apiVersion}/ unless BaseURL is set.
func (o *Options) baseURL() string {
	if o.BaseURL != "" {
		if o.BaseURL[len(o.BaseURL)-1] != '/' {
			return o.BaseURL + "/"
		}
		return o.BaseURL
	}
	return "http://" + o.Address + "/" + o.APIVersion + "/"
}

func WithHTTPClient(client HTTPClient) Option {
	return OptionFunc(func(o *Options) {
		o.HTTPClient = client
	})
}

func WithLogger(logger *zap.Logger) Option {
	return OptionFunc(func(o *Options) {
		o.Logger = logger
	})
}

// WithAddress sets the host:port, usually from AWS_LAMBDA_RUNTIME_API.
func WithAddress(addr string) Option {
	return OptionFunc(func(o *Options) {
		o.Address = addr
	})
}

func WithAPIVersion(version string) Option {
	return OptionFunc(func(o *Options) {
		o.APIVersion = version
	})
}

// WithBaseURL replaces the address derived from Address and APIVersion.
func WithBaseURL(url string) Option {
	return OptionFunc(func(o *Options) {
		o.BaseURL = url
	})
}

// WithDefaultTimeout bounds each report. Next is never bounded.
func WithDefaultTimeout(timeout time.Duration) Option {
	return OptionFunc(func(o *Options) {
		o.DefaultTimeout = timeout
	})
}

func WithHeaders(headers map[string]string) Option {
	return OptionFunc(func(o *Options) {
		o.Headers = headers
	})
}

func WithHeader(key, value string) Option {
	return OptionFunc(func(o *Options) {
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		o.Headers[key] = value
	})
}

func WithUserAgent(ua string) Option {
	return OptionFunc(func(o *Options) {
		o.UserAgent = ua
	})
}

func WithContentType(contentType string) Option {
	return OptionFunc(func(o *Options) {
		o.ContentType = contentType
	})
}
