package runtimeapi

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"

	"github.com/aws/aws-lambda-go/lambda/messages"
)

// ErrorPayload is the JSON body posted to the error endpoints.
type ErrorPayload = messages.InvokeResponse_Error

// StackFrame is one entry of ErrorPayload.StackTrace.
type StackFrame = messages.InvokeResponse_Error_StackFrame

// NewErrorPayload describes err the same way aws-lambda-go does: the
// message is err.Error() and the type is the name of err's dynamic type.
func NewErrorPayload(err error) *ErrorPayload {
	if err == nil {
		return nil
	}
	var ive messages.InvokeResponse_Error
	if errors.As(err, &ive) {
		return &ive
	}
	return &ErrorPayload{
		Message: err.Error(),
		Type:    errorTypeName(err),
	}
}

// NewPanicPayload describes a recovered panic value with the given frames.
func NewPanicPayload(v any, frames []runtime.Frame) *ErrorPayload {
	p := &ErrorPayload{Type: errorTypeName(v)}
	switch v := v.(type) {
	case error:
		p.Message = v.Error()
	case string:
		p.Message = v
	default:
		p.Message = fmt.Sprint(v)
	}
	for _, f := range frames {
		p.StackTrace = append(p.StackTrace, &StackFrame{
			Path:  f.File,
			Line:  int32(f.Line),
			Label: f.Function,
		})
	}
	return p
}

func errorTypeName(v any) string {
	if v == nil {
		return defaultErrorType
	}
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return defaultErrorType
	}
	return t.Name()
}
