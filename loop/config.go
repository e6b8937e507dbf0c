package loop

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// yamlLoopConfig represents the YAML configuration structure for the loop
type yamlLoopConfig struct {
	Mode struct {
		Debug *bool `yaml:"debug"`
	} `yaml:"mode"`
	Heartbeat     string `yaml:"heartbeat"`
	ExportTraceID *bool  `yaml:"exportTraceId"`
}

func optionFromLoopConfig(cfg yamlLoopConfig) (Option, error) {
	var interval time.Duration
	if cfg.Heartbeat != "" {
		d, err := time.ParseDuration(cfg.Heartbeat)
		if err != nil {
			return nil, fmt.Errorf("heartbeat: %w", err)
		}
		if d < 0 {
			return nil, fmt.Errorf("heartbeat: negative interval %s", d)
		}
		interval = d
	}

	return OptionFunc(func(o *Options) {
		if cfg.Mode.Debug != nil {
			o.DebugMode = *cfg.Mode.Debug
		}
		if interval > 0 {
			o.HeartbeatInterval = interval
		}
		if cfg.ExportTraceID != nil {
			o.ExportTraceID = *cfg.ExportTraceID
		}
	}), nil
}

// ParseConfig parses YAML bytes and returns an Option.
func ParseConfig(b []byte) (Option, error) {
	var cfg yamlLoopConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return optionFromLoopConfig(cfg)
}

// WithConfig parses YAML bytes following loop.yml structure and applies it to Options.
// It panics if the YAML is invalid.
func WithConfig(yamlBytes []byte) Option {
	opt, err := ParseConfig(yamlBytes)
	if err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("loop.WithConfig: %w", err))
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
			panic(fmt.Errorf("loop.WithConfigFile(%s): %w", path, err))
		})
	}
	return WithConfig(b)
}
