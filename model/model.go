// Package model holds the values exchanged with the Lambda Runtime API and
// the execution context handed to a handler.
package model

import (
	"encoding/json"
)

// ClientApplication is metadata about the calling mobile application.
type ClientApplication struct {
	InstallationID string `json:"installation_id"`
	AppTitle       string `json:"app_title"`
	AppVersionName string `json:"app_version_name"`
	AppVersionCode string `json:"app_version_code"`
	AppPackageName string `json:"app_package_name"`
}

// ClientContext is passed by the calling application when the invocation
// was triggered through a client SDK.
type ClientContext struct {
	Client ClientApplication `json:"client"`
	Custom map[string]any    `json:"custom"`
	Env    map[string]string `json:"env"`
}

// CognitoIdentity is the identity used by the calling application.
type CognitoIdentity struct {
	IdentityID     string `json:"cognitoIdentityId"`
	IdentityPoolID string `json:"cognitoIdentityPoolId"`
}

// Invocation is one unit of work fetched from runtime/invocation/next.
type Invocation struct {
	// Event is the raw request body. Decoding is left to the handler.
	Event json.RawMessage

	AwsRequestID       string
	RuntimeDeadlineMs  int64
	InvokedFunctionArn string
	TraceID            string

	ClientContext   *ClientContext
	CognitoIdentity *CognitoIdentity
}

// Metadata is the static function metadata supplied by the hosting
// environment. It is built once at process start.
type Metadata struct {
	FunctionName    string `yaml:"functionName" json:"function_name"`
	FunctionVersion string `yaml:"functionVersion" json:"function_version"`
	MemoryLimitInMB int    `yaml:"memoryLimitInMB" json:"memory_limit_in_mb"`
	LogGroupName    string `yaml:"logGroupName" json:"log_group_name"`
	LogStreamName   string `yaml:"logStreamName" json:"log_stream_name"`
}
