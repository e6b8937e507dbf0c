package runtimeapi

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

type yamlRuntimeConfig struct {
	Address    string `yaml:"address"`
	APIVersion string `yaml:"apiVersion"`
	Timeout    string `yaml:"timeout"`
	UserAgent  string `yaml:"userAgent"`
	Headers    []struct {
		Key   string `yaml:"key"`
		Value string `yaml:"value"`
	} `yaml:"headers"`
}

func optionFromRuntimeConfig(cfg yamlRuntimeConfig) (Option, error) {
	var timeout time.Duration
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("timeout: %w", err)
		}
		timeout = d
	}

	return OptionFunc(func(o *Options) {
		if cfg.Address != "" {
			o.Address = cfg.Address
		}
		if cfg.APIVersion != "" {
			o.APIVersion = cfg.APIVersion
		}
		if cfg.UserAgent != "" {
			o.UserAgent = cfg.UserAgent
		}
		if timeout > 0 {
			o.DefaultTimeout = timeout
		}

		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		for _, h := range cfg.Headers {
			if h.Key == "" {
				continue
			}
			o.Headers[h.Key] = h.Value
		}
	}), nil
}

// ParseConfig parses YAML bytes and returns an Option.
func ParseConfig(b []byte) (Option, error) {
	var cfg yamlRuntimeConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return optionFromRuntimeConfig(cfg)
}

// WithConfig parses YAML bytes following runtime.yml structure and applies it to Options.
// It panics if the YAML is invalid.
func WithConfig(yamlBytes []byte) Option {
	opt, err := ParseConfig(yamlBytes)
	if err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("runtimeapi.WithConfig: %w", err))
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
			panic(fmt.Errorf("runtimeapi.WithConfigFile(%s): %w", path, err))
		})
	}
	return WithConfig(b)
}
