// Package dynamic 通过 github.com/aura-studio/dynamic 加载的业务包处理 invocation
//
// 事件格式：
//
//	{"path": "/api/user-service/v1/users/123", "request": {"id": 123}}
//
// path 按 HTTP 路径路由，/api/{package}/{version}/{route} 调用业务包 tunnel
// 的 route，tunnel 的返回值即 invocation 结果
package dynamic

import (
	"github.com/aura-studio/dynamic"
	"go.uber.org/zap"
)

type Package struct {
	Package string
	Version string
	Tunnel  dynamic.Tunnel
}

type Dynamic struct {
	*Options
}

func NewDynamic(opts ...Option) *Dynamic {
	d := &Dynamic{
		Options: NewOptions(opts...),
	}

	d.InstallPackages()

	return d
}

// InstallPackages 应用编译环境与仓库配置，注册静态包并预加载业务包
// 预加载失败只记录日志，首次调用时重新加载
func (d *Dynamic) InstallPackages() {
	if d.Os != "" {
		dynamic.DynamicOS = d.Os
	}
	if d.Arch != "" {
		dynamic.DynamicArch = d.Arch
	}
	if d.Compiler != "" {
		dynamic.DynamicCompiler = d.Compiler
	}
	if d.Variant != "" {
		dynamic.DynamicVariant = d.Variant
	}

	if d.LocalWarehouse != "" || d.RemoteWarehouse != "" {
		dynamic.UseWarehouse(d.LocalWarehouse, d.RemoteWarehouse)
	}
	if d.PackageNamespace != "" {
		dynamic.UseNamespace(d.PackageNamespace)
	}
	if d.PackageDefaultVersion != "" {
		dynamic.UseDefaultVersion(d.PackageDefaultVersion)
	}

	for _, p := range d.StaticPackages {
		dynamic.RegisterPackage(p.Package, p.Version, p.Tunnel)
	}

	for _, p := range d.PreloadPackages {
		if _, err := d.GetPackage(p.Package, p.Version); err != nil {
			d.Logger.Warn("preload package failed",
				zap.String("namespace", d.PackageNamespace),
				zap.String("package", p.Package),
				zap.String("version", p.Version),
				zap.Error(err))
		}
	}
}

func (d *Dynamic) GetPackage(pkg string, version string) (dynamic.Tunnel, error) {
	return dynamic.GetPackage(pkg, version)
}
