package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aura-studio/lambdaric/audit"
	"github.com/aura-studio/lambdaric/dynamic"
	"github.com/aura-studio/lambdaric/loop"
	"github.com/aura-studio/lambdaric/runtimeapi"
	yaml "gopkg.in/yaml.v2"
)

type yamlBootstrapConfig struct {
	Variant string `yaml:"variant"`
	Debug   bool   `yaml:"debug"`
	Runtime any    `yaml:"runtime"`
	Loop    any    `yaml:"loop"`
	Audit   any    `yaml:"audit"`
	Dynamic any    `yaml:"dynamic"`
}

type configOption struct {
	variant Variant
	debug   bool
	rtOpt   runtimeapi.Option
	loopOpt loop.Option
	audOpt  audit.Option
	dynOpt  dynamic.Option
}

func (o configOption) Apply(opts *Options) {
	if o.variant != "" {
		opts.Variant = o.variant
	}
	if o.debug {
		opts.Debug = true
	}
	if o.rtOpt != nil {
		opts.Runtime = append(opts.Runtime, o.rtOpt)
	}
	if o.loopOpt != nil {
		opts.Loop = append(opts.Loop, o.loopOpt)
	}
	if o.audOpt != nil {
		opts.Audit = append(opts.Audit, o.audOpt)
	}
	if o.dynOpt != nil {
		opts.Dynamic = append(opts.Dynamic, o.dynOpt)
	}
}

// section re-encodes one sub-document so each package parses its own part.
func section(v any) ([]byte, bool, error) {
	if v == nil {
		return nil, false, nil
	}
	b, err := yaml.Marshal(v)
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// ParseConfig parses YAML bytes following lambda.yml structure. Each section
// is parsed by the package that owns it, so an invalid section is reported
// here rather than when the runtime is assembled.
func ParseConfig(yamlBytes []byte) (Option, error) {
	var cfg yamlBootstrapConfig
	if err := yaml.Unmarshal(yamlBytes, &cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: config: %w", err)
	}

	opt := configOption{debug: cfg.Debug}
	switch v := Variant(cfg.Variant); v {
	case "":
	case VariantBlocking, VariantCooperative:
		opt.variant = v
	default:
		return nil, fmt.Errorf("bootstrap: config: unknown variant %q", cfg.Variant)
	}

	var err error
	if opt.rtOpt, err = parseSection("runtime", cfg.Runtime, runtimeapi.ParseConfig); err != nil {
		return nil, err
	}
	if opt.loopOpt, err = parseSection("loop", cfg.Loop, loop.ParseConfig); err != nil {
		return nil, err
	}
	if opt.audOpt, err = parseSection("audit", cfg.Audit, audit.ParseConfig); err != nil {
		return nil, err
	}
	if opt.dynOpt, err = parseSection("dynamic", cfg.Dynamic, dynamic.ParseConfig); err != nil {
		return nil, err
	}

	return opt, nil
}

func parseSection[T any](name string, v any, parse func([]byte) (T, error)) (T, error) {
	var zero T
	b, ok, err := section(v)
	if err != nil || !ok {
		return zero, err
	}
	opt, err := parse(b)
	if err != nil {
		return zero, fmt.Errorf("bootstrap: config: %s: %w", name, err)
	}
	return opt, nil
}

// LoadConfigFile reads and parses a lambda.yml file.
func LoadConfigFile(path string) (Option, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: config: %w", err)
	}
	return ParseConfig(b)
}

// WithConfig is ParseConfig as an Option.
// It panics on Apply if the YAML is invalid.
func WithConfig(yamlBytes []byte) Option {
	opt, err := ParseConfig(yamlBytes)
	if err != nil {
		return OptionFunc(func(*Options) {
			panic(err)
		})
	}
	return opt
}

// WithConfigFile loads a YAML file and applies it.
// It panics on Apply if the file cannot be read or YAML is invalid.
func WithConfigFile(path string) Option {
	opt, err := LoadConfigFile(path)
	if err != nil {
		return OptionFunc(func(*Options) {
			panic(err)
		})
	}
	return opt
}

// DefaultConfigCandidates returns relative paths that will be checked (in order)
// when searching for a default config.
func DefaultConfigCandidates() []string {
	return []string{
		"lambda.yaml",
		"lambda.yml",
		"bootstrap.yaml",
		"bootstrap.yml",
	}
}

// FindDefaultConfigFile searches dirs, or the working directory and then the
// executable's directory when none are given.
func FindDefaultConfigFile(dirs ...string) (string, error) {
	candidates := DefaultConfigCandidates()

	if len(dirs) == 0 {
		dirs = []string{"."}
		if exe, err := os.Executable(); err == nil {
			dirs = append(dirs, filepath.Dir(exe))
		}
	}

	for _, dir := range dirs {
		for _, rel := range candidates {
			p := rel
			if dir != "." {
				p = filepath.Join(dir, rel)
			}
			if st, err := os.Stat(p); err == nil && !st.IsDir() {
				return p, nil
			}
		}
	}

	return "", fmt.Errorf("bootstrap config not found (expected %v)", candidates)
}
