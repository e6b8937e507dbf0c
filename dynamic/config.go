package dynamic

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

type yamlConfig struct {
	Mode struct {
		Debug *bool `yaml:"debug"`
	} `yaml:"mode"`

	Environment struct {
		Toolchain struct {
			OS       string `yaml:"os"`
			Arch     string `yaml:"arch"`
			Compiler string `yaml:"compiler"`
			Variant  string `yaml:"variant"`
		} `yaml:"toolchain"`
		Warehouse struct {
			Local  string `yaml:"local"`
			Remote string `yaml:"remote"`
		} `yaml:"warehouse"`
	} `yaml:"environment"`

	Package struct {
		Namespace      string `yaml:"namespace"`
		DefaultVersion string `yaml:"defaultVersion"`
		Preload        []struct {
			Package string `yaml:"package"`
			Version string `yaml:"version"`
		} `yaml:"preload"`
	} `yaml:"package"`

	StaticLink []struct {
		SrcPath string `yaml:"srcPath"`
		DstPath string `yaml:"dstPath"`
	} `yaml:"staticLink"`
	PrefixLink []struct {
		SrcPrefix string `yaml:"srcPrefix"`
		DstPrefix string `yaml:"dstPrefix"`
	} `yaml:"prefixLink"`
}

func optionFromConfig(cfg yamlConfig) Option {
	return func(o *Options) {
		if cfg.Mode.Debug != nil {
			o.DebugMode = *cfg.Mode.Debug
		}

		setIf := func(dst *string, v string) {
			if v != "" {
				*dst = v
			}
		}
		setIf(&o.Os, cfg.Environment.Toolchain.OS)
		setIf(&o.Arch, cfg.Environment.Toolchain.Arch)
		setIf(&o.Compiler, cfg.Environment.Toolchain.Compiler)
		setIf(&o.Variant, cfg.Environment.Toolchain.Variant)

		setIf(&o.LocalWarehouse, cfg.Environment.Warehouse.Local)
		setIf(&o.RemoteWarehouse, cfg.Environment.Warehouse.Remote)

		setIf(&o.PackageNamespace, cfg.Package.Namespace)
		setIf(&o.PackageDefaultVersion, cfg.Package.DefaultVersion)

		for _, p := range cfg.Package.Preload {
			if p.Package == "" {
				continue
			}
			o.PreloadPackages = append(o.PreloadPackages, &Package{Package: p.Package, Version: p.Version})
		}

		if o.StaticLinkMap == nil {
			o.StaticLinkMap = make(map[string]string)
		}
		for _, link := range cfg.StaticLink {
			if link.SrcPath == "" || link.DstPath == "" {
				continue
			}
			o.StaticLinkMap[link.SrcPath] = link.DstPath
		}

		if o.PrefixLinkMap == nil {
			o.PrefixLinkMap = make(map[string]string)
		}
		for _, link := range cfg.PrefixLink {
			if link.SrcPrefix == "" || link.DstPrefix == "" {
				continue
			}
			o.PrefixLinkMap[link.SrcPrefix] = link.DstPrefix
		}
	}
}

func ParseConfig(b []byte) (Option, error) {
	var cfg yamlConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return optionFromConfig(cfg), nil
}

// WithConfig 解析 dynamic.yml 格式的 YAML，YAML 非法时在 Apply 中 panic
func WithConfig(yamlBytes []byte) Option {
	opt, err := ParseConfig(yamlBytes)
	if err != nil {
		return func(*Options) {
			panic(fmt.Errorf("dynamic: WithConfig: %w", err))
		}
	}
	return opt
}

// WithConfigFile 读取 YAML 文件，读取失败或 YAML 非法时在 Apply 中 panic
func WithConfigFile(path string) Option {
	b, err := os.ReadFile(path)
	if err != nil {
		return func(*Options) {
			panic(fmt.Errorf("dynamic: WithConfigFile(%s): %w", path, err))
		}
	}
	return WithConfig(b)
}
