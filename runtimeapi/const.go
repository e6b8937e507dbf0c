package runtimeapi

// APIVersion20180601 is the only Runtime API version in use.
const APIVersion20180601 = "2018-06-01"

const (
	HeaderAwsRequestID       = "Lambda-Runtime-Aws-Request-Id"
	HeaderDeadlineMs         = "Lambda-Runtime-Deadline-Ms"
	HeaderInvokedFunctionArn = "Lambda-Runtime-Invoked-Function-Arn"
	HeaderTraceID            = "Lambda-Runtime-Trace-Id"
	HeaderClientContext      = "Lambda-Runtime-Client-Context"
	HeaderCognitoIdentity    = "Lambda-Runtime-Cognito-Identity"
	HeaderFunctionErrorType  = "Lambda-Runtime-Function-Error-Type"
)

const (
	PathNext         = "runtime/invocation/next"
	PathInitError    = "runtime/init/error"
	pathResponseFmt  = "runtime/invocation/%s/response"
	pathErrorFmt     = "runtime/invocation/%s/error"
	contentTypeJSON  = "application/json"
	defaultUserAgent = "aura-studio-lambdaric/" + Version
	defaultErrorType = "Runtime.Unknown"
)

// Version is reported in the User-Agent header.
const Version = "1.0.0"

const (
	OpNext      = "next"
	OpResponse  = "response"
	OpError     = "error"
	OpInitError = "init/error"
)
