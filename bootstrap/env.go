package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/aura-studio/lambdaric/model"
)

const (
	EnvRuntimeAPI      = "AWS_LAMBDA_RUNTIME_API"
	EnvFunctionName    = "AWS_LAMBDA_FUNCTION_NAME"
	EnvFunctionVersion = "AWS_LAMBDA_FUNCTION_VERSION"
	EnvMemorySize      = "AWS_LAMBDA_FUNCTION_MEMORY_SIZE"
	EnvLogGroupName    = "AWS_LAMBDA_LOG_GROUP_NAME"
	EnvLogStreamName   = "AWS_LAMBDA_LOG_STREAM_NAME"
)

var ErrNoRuntimeAPI = errors.New("bootstrap: " + EnvRuntimeAPI + " is not set")

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// MetadataFromEnv reads the static function metadata from the process
// environment.
func MetadataFromEnv() (model.Metadata, error) {
	return MetadataFromLookup(os.LookupEnv)
}

// MetadataFromLookup is MetadataFromEnv over an arbitrary lookup. Missing
// variables leave their field empty; a memory size that is not an integer
// is an error.
func MetadataFromLookup(lookup LookupFunc) (model.Metadata, error) {
	get := func(k string) string {
		v, _ := lookup(k)
		return v
	}

	md := model.Metadata{
		FunctionName:    get(EnvFunctionName),
		FunctionVersion: get(EnvFunctionVersion),
		LogGroupName:    get(EnvLogGroupName),
		LogStreamName:   get(EnvLogStreamName),
	}
	if v := get(EnvMemorySize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return md, fmt.Errorf("bootstrap: %s: %w", EnvMemorySize, err)
		}
		md.MemoryLimitInMB = n
	}
	return md, nil
}

// RuntimeAPIFromLookup returns the host:port of the Runtime API.
func RuntimeAPIFromLookup(lookup LookupFunc) (string, error) {
	if v, ok := lookup(EnvRuntimeAPI); ok && v != "" {
		return v, nil
	}
	return "", ErrNoRuntimeAPI
}

// credentialAliases maps deploy-time variable names onto the ones the AWS
// SDK reads.
var credentialAliases = [][2]string{
	{"CONFIG_REGION", "AWS_REGION"},
	{"CONFIG_ACCESS", "AWS_ACCESS_KEY_ID"},
	{"CONFIG_SECRET", "AWS_SECRET_ACCESS_KEY"},
}

// applyCredentialAliases copies each set alias onto its AWS name. Variables
// already present are left alone.
func applyCredentialAliases(lookup LookupFunc, setenv func(k, v string) error) error {
	for _, a := range credentialAliases {
		v, ok := lookup(a[0])
		if !ok || v == "" {
			continue
		}
		if cur, ok := lookup(a[1]); ok && cur != "" {
			continue
		}
		if err := setenv(a[1], v); err != nil {
			return fmt.Errorf("bootstrap: set %s: %w", a[1], err)
		}
	}
	return nil
}
