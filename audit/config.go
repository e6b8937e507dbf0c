package audit

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

type yamlAuditConfig struct {
	SQS struct {
		QueueURL string `yaml:"queueUrl"`
		Region   string `yaml:"region"`
		Format   string `yaml:"format"`
		Timeout  string `yaml:"timeout"`
	} `yaml:"sqs"`
}

func optionFromAuditConfig(cfg yamlAuditConfig) (Option, error) {
	var format Format
	switch f := Format(cfg.SQS.Format); f {
	case "":
	case FormatProto, FormatJSON:
		format = f
	default:
		return nil, fmt.Errorf("format: unknown %q", cfg.SQS.Format)
	}

	var timeout time.Duration
	if cfg.SQS.Timeout != "" {
		d, err := time.ParseDuration(cfg.SQS.Timeout)
		if err != nil {
			return nil, fmt.Errorf("timeout: %w", err)
		}
		timeout = d
	}

	return OptionFunc(func(o *Options) {
		if cfg.SQS.QueueURL != "" {
			o.QueueURL = cfg.SQS.QueueURL
		}
		if cfg.SQS.Region != "" {
			o.Region = cfg.SQS.Region
		}
		if format != "" {
			o.Format = format
		}
		if timeout > 0 {
			o.Timeout = timeout
		}
	}), nil
}

// ParseConfig is WithConfig returning the error instead of panicking.
func ParseConfig(b []byte) (Option, error) {
	var cfg yamlAuditConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return optionFromAuditConfig(cfg)
}

// WithConfig parses YAML bytes following audit.yml structure and applies it to Options.
// It panics if the YAML is invalid.
func WithConfig(yamlBytes []byte) Option {
	opt, err := ParseConfig(yamlBytes)
	if err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("audit.WithConfig: %w", err))
		})
	}
	return opt
}

// WithConfigFile loads a YAML file and applies it to Options.
// It panics if the file cannot be read or YAML is invalid.
func WithConfigFile(path string) Option {
	b, err := os.ReadFile(path)
	if err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("audit.WithConfigFile(%s): %w", path, err))
		})
	}
	return WithConfig(b)
}
