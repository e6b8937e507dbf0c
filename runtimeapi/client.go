// Package runtimeapi is a client for the Lambda Runtime API: the local
// control-plane endpoint that hands out invocations and accepts their
// results.
//
// https://docs.aws.amazon.com/lambda/latest/dg/runtimes-api.html
package runtimeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aura-studio/lambdaric/model"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"
)

// response is a read status and body.
type response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client talks to the Runtime API. Each method sends exactly one HTTP
// request and never retries.
type Client struct {
	*Options
	base string
}

// NewClient creates a client.
func NewClient(opts ...Option) *Client {
	o := NewOptions(opts...)
	return &Client{
		Options: o,
		base:    o.baseURL(),
	}
}

// URL returns the absolute address of path.
func (c *Client) URL(path string) string {
	return c.base + path
}

// Next blocks until the control plane hands out an invocation.
func (c *Client) Next(ctx context.Context) (*model.Invocation, error) {
	// the control plane holds the connection open until work arrives
	resp, err := c.do(ctx, OpNext, http.MethodGet, PathNext, nil, nil, 0)
	if err != nil {
		return nil, err
	}

	inv, err := parseInvocation(resp.Headers, resp.Body)
	if err != nil {
		return nil, &ProtocolError{Op: OpNext, Err: err}
	}

	c.Logger.Debug("invocation received",
		zap.String("request_id", inv.AwsRequestID),
		zap.Int64("deadline_ms", inv.RuntimeDeadlineMs),
		zap.Int("event_bytes", len(inv.Event)))

	return inv, nil
}

// PostResponse reports the result of requestID.
func (c *Client) PostResponse(ctx context.Context, requestID string, body []byte) error {
	if requestID == "" {
		return &ProtocolError{Op: OpResponse, Err: ErrEmptyRequestID}
	}
	headers := map[string]string{"Content-Type": c.ContentType}
	path := fmt.Sprintf(pathResponseFmt, url.PathEscape(requestID))
	_, err := c.do(ctx, OpResponse, http.MethodPost, path, body, headers, c.DefaultTimeout)
	return err
}

// PostError reports that requestID failed.
func (c *Client) PostError(ctx context.Context, requestID string, payload *ErrorPayload) error {
	if requestID == "" {
		return &ProtocolError{Op: OpError, Err: ErrEmptyRequestID}
	}
	path := fmt.Sprintf(pathErrorFmt, url.PathEscape(requestID))
	return c.postError(ctx, OpError, path, payload)
}

// PostInitError reports an initialization failure. The process is expected
// to exit afterwards.
func (c *Client) PostInitError(ctx context.Context, payload *ErrorPayload) error {
	return c.postError(ctx, OpInitError, PathInitError, payload)
}

func (c *Client) postError(ctx context.Context, op, path string, payload *ErrorPayload) error {
	var (
		body    []byte
		headers map[string]string
	)
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("runtimeapi: %s: marshal error payload: %w", op, err)
		}
		body = b
		headers = map[string]string{
			"Content-Type":          contentTypeJSON,
			HeaderFunctionErrorType: payload.Type,
		}
	}
	_, err := c.do(ctx, op, http.MethodPost, path, body, headers, c.DefaultTimeout)
	return err
}

// do sends one request. A non-2xx status is a ProtocolError.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte, headers map[string]string, timeout time.Duration) (*response, error) {
	u := c.URL(path)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, &TransportError{Op: op, URL: u, Err: err}
	}

	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for key, value := range c.Headers {
		req.Header.Set(key, value)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, URL: u, Err: err}
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, &TransportError{Op: op, URL: u, Err: fmt.Errorf("read body: %w", err)}
	}

	r := &response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       append([]byte(nil), buf.B...),
	}

	c.Logger.Debug("runtime api call",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("url", u),
		zap.Int("status", r.StatusCode))

	if r.StatusCode < 200 || r.StatusCode > 299 {
		return r, &ProtocolError{Op: op, StatusCode: r.StatusCode, Body: r.Body, Err: ErrUnexpectedStatus}
	}
	return r, nil
}
