package dynamic

import (
	"github.com/aura-studio/dynamic"
	"github.com/mohae/deepcopy"
	"go.uber.org/zap"
)

type Option func(*Options)

type Options struct {
	Logger *zap.Logger `json:"-"`

	// 编译环境
	Os       string
	Arch     string
	Compiler string
	Variant  string

	// 仓库
	LocalWarehouse  string
	RemoteWarehouse string

	// 业务包
	PackageNamespace      string
	PackageDefaultVersion string
	StaticPackages        []*Package
	PreloadPackages       []*Package

	// 路由
	StaticLinkMap map[string]string // 静态路径映射
	PrefixLinkMap map[string]string // 前缀路径映射
	DebugMode     bool
}

var defaultOptions = &Options{
	StaticPackages:  []*Package{},
	PreloadPackages: []*Package{},
	StaticLinkMap:   map[string]string{},
	PrefixLinkMap:   map[string]string{},
}

func NewOptions(opts ...Option) *Options {
	options := deepcopy.Copy(defaultOptions).(*Options)
	options.init(opts...)
	return options
}

func (o *Options) init(opts ...Option) {
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithToolchain 设置动态包的编译环境，空值保持库默认
func WithToolchain(os, arch, compiler, variant string) Option {
	return func(o *Options) {
		o.Os, o.Arch, o.Compiler, o.Variant = os, arch, compiler, variant
	}
}

func WithWarehouse(local, remote string) Option {
	return func(o *Options) {
		o.LocalWarehouse, o.RemoteWarehouse = local, remote
	}
}

func WithNamespace(namespace string) Option {
	return func(o *Options) {
		o.PackageNamespace = namespace
	}
}

func WithDefaultVersion(version string) Option {
	return func(o *Options) {
		o.PackageDefaultVersion = version
	}
}

// WithStaticPackage 注册编译进二进制的业务包
func WithStaticPackage(pkg, version string, tunnel dynamic.Tunnel) Option {
	return func(o *Options) {
		o.StaticPackages = append(o.StaticPackages, &Package{Package: pkg, Version: version, Tunnel: tunnel})
	}
}

// WithPreloadPackage 启动时预加载业务包
func WithPreloadPackage(pkg, version string) Option {
	return func(o *Options) {
		o.PreloadPackages = append(o.PreloadPackages, &Package{Package: pkg, Version: version})
	}
}

func WithStaticLink(srcPath, dstPath string) Option {
	return func(o *Options) {
		if o.StaticLinkMap == nil {
			o.StaticLinkMap = make(map[string]string)
		}
		o.StaticLinkMap[srcPath] = dstPath
	}
}

func WithPrefixLink(srcPrefix, dstPrefix string) Option {
	return func(o *Options) {
		if o.PrefixLinkMap == nil {
			o.PrefixLinkMap = make(map[string]string)
		}
		o.PrefixLinkMap[srcPrefix] = dstPrefix
	}
}

func WithDebugMode(debug bool) Option {
	return func(o *Options) {
		o.DebugMode = debug
	}
}
