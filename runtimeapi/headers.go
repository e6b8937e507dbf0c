package runtimeapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aura-studio/lambdaric/model"
	"github.com/tidwall/gjson"
)

// parseInvocation builds an Invocation from the headers and body of a
// runtime/invocation/next response.
func parseInvocation(header http.Header, body []byte) (*model.Invocation, error) {
	requestID := strings.TrimSpace(header.Get(HeaderAwsRequestID))
	if requestID == "" {
		return nil, ErrMissingRequestID
	}

	deadline, err := strconv.ParseInt(strings.TrimSpace(header.Get(HeaderDeadlineMs)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDeadline, err)
	}

	clientContext, err := parseClientContext(header.Get(HeaderClientContext))
	if err != nil {
		return nil, err
	}

	identity, err := parseCognitoIdentity(header.Get(HeaderCognitoIdentity))
	if err != nil {
		return nil, err
	}

	return &model.Invocation{
		Event:              body,
		AwsRequestID:       requestID,
		RuntimeDeadlineMs:  deadline,
		InvokedFunctionArn: header.Get(HeaderInvokedFunctionArn),
		TraceID:            header.Get(HeaderTraceID),
		ClientContext:      clientContext,
		CognitoIdentity:    identity,
	}, nil
}

func parseClientContext(raw string) (*model.ClientContext, error) {
	if raw == "" {
		return nil, nil
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: %s", ErrMalformedHeader, HeaderClientContext)
	}

	doc := gjson.Parse(raw)
	client := doc.Get("client")
	cc := &model.ClientContext{
		Client: model.ClientApplication{
			InstallationID: client.Get("installation_id").String(),
			AppTitle:       client.Get("app_title").String(),
			AppVersionName: client.Get("app_version_name").String(),
			AppVersionCode: client.Get("app_version_code").String(),
			AppPackageName: client.Get("app_package_name").String(),
		},
	}

	if custom := doc.Get("custom"); custom.IsObject() {
		cc.Custom = make(map[string]any)
		custom.ForEach(func(k, v gjson.Result) bool {
			cc.Custom[k.String()] = v.Value()
			return true
		})
	}
	if env := doc.Get("env"); env.IsObject() {
		cc.Env = make(map[string]string)
		env.ForEach(func(k, v gjson.Result) bool {
			cc.Env[k.String()] = v.String()
			return true
		})
	}
	return cc, nil
}

func parseCognitoIdentity(raw string) (*model.CognitoIdentity, error) {
	if raw == "" {
		return nil, nil
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: %s", ErrMalformedHeader, HeaderCognitoIdentity)
	}
	doc := gjson.Parse(raw)
	return &model.CognitoIdentity{
		IdentityID:     doc.Get("cognitoIdentityId").String(),
		IdentityPoolID: doc.Get("cognitoIdentityPoolId").String(),
	}, nil
}
