package dynamic

import (
	"runtime/debug"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ServiceInfo 服务信息，从函数名解析
type ServiceInfo struct {
	Business  string `json:"business"`
	Framework string `json:"framework"`
	Runtime   string `json:"runtime"`
	Resource  string `json:"resource"`
	Instance  string `json:"instance"`
}

// BuildInfo 构建信息
type BuildInfo struct {
	Module  string `json:"module"`
	Version string `json:"version"`
	Built   string `json:"built"`
}

// MetaGenerator meta 信息生成器
type MetaGenerator struct {
	localWarehouse  string
	remoteWarehouse string
	build           BuildInfo
}

func NewMetaGenerator(localWarehouse, remoteWarehouse string) *MetaGenerator {
	return &MetaGenerator{
		localWarehouse:  localWarehouse,
		remoteWarehouse: remoteWarehouse,
		build:           readBuildInfo(),
	}
}

// ParseServiceInfo 解析函数名
// 格式: business-framework-runtime-resource-instance
func ParseServiceInfo(functionName string) ServiceInfo {
	var info ServiceInfo
	fields := []*string{&info.Business, &info.Framework, &info.Runtime, &info.Resource, &info.Instance}
	if functionName == "" {
		return info
	}
	for i, part := range strings.SplitN(functionName, "-", len(fields)) {
		*fields[i] = part
	}
	return info
}

func readBuildInfo() BuildInfo {
	var info BuildInfo
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.Module = bi.Main.Path
	info.Version = bi.Main.Version
	for _, s := range bi.Settings {
		if s.Key == "vcs.time" {
			info.Built = s.Value
			break
		}
	}
	return info
}

// Generate 生成 meta 文档，tunnel 的顶层字段不覆盖已有字段
func (g *MetaGenerator) Generate(functionName, tunnelMeta string) string {
	doc := `{}`
	set := func(path string, v any) {
		doc, _ = sjson.Set(doc, path, v)
	}

	set("service", ParseServiceInfo(functionName))
	set("build", g.build)
	set("warehouse.local", g.localWarehouse)
	set("warehouse.remote", g.remoteWarehouse)

	if tunnelMeta == "" || !gjson.Valid(tunnelMeta) {
		return doc
	}
	extra := gjson.Parse(tunnelMeta)
	if !extra.IsObject() {
		return doc
	}
	extra.ForEach(func(key, value gjson.Result) bool {
		path := escapeKey(key.String())
		if !gjson.Get(doc, path).Exists() {
			doc, _ = sjson.SetRaw(doc, path, value.Raw)
		}
		return true
	})
	return doc
}

var keyEscaper = strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)

func escapeKey(k string) string {
	return keyEscaper.Replace(k)
}
