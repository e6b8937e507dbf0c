// Package runtimeapitest provides an in-process Lambda Runtime API for tests.
//
// The server queues events, hands them out one at a time on
// runtime/invocation/next and records every call it receives in order.
package runtimeapitest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CallKind string

const (
	CallNext      CallKind = "next"
	CallResponse  CallKind = "response"
	CallError     CallKind = "error"
	CallInitError CallKind = "init/error"
)

// Call is one request received by the server.
type Call struct {
	Kind      CallKind
	RequestID string
	Body      []byte
	ErrorType string
	Status    int
}

// Event is a queued invocation.
type Event struct {
	RequestID       string
	Payload         []byte
	Deadline        time.Time
	FunctionArn     string
	TraceID         string
	ClientContext   string
	CognitoIdentity string

	// Status, when non-zero, is answered instead of the invocation.
	Status int
	// OmitRequestID drops the request id header.
	OmitRequestID bool
}

type EventOption func(*Event)

func WithRequestID(id string) EventOption {
	return func(e *Event) { e.RequestID = id }
}

func WithDeadline(t time.Time) EventOption {
	return func(e *Event) { e.Deadline = t }
}

func WithTraceID(id string) EventOption {
	return func(e *Event) { e.TraceID = id }
}

func WithClientContext(raw string) EventOption {
	return func(e *Event) { e.ClientContext = raw }
}

func WithCognitoIdentity(raw string) EventOption {
	return func(e *Event) { e.CognitoIdentity = raw }
}

// WithStatus makes the poll that picks this event fail with status.
func WithStatus(status int) EventOption {
	return func(e *Event) { e.Status = status }
}

// WithoutRequestID makes the poll omit the request id header.
func WithoutRequestID() EventOption {
	return func(e *Event) { e.OmitRequestID = true }
}

type Server struct {
	*Options
	*gin.Engine

	srv   *httptest.Server
	queue chan *Event
	done  chan struct{}
	once  sync.Once

	mu       sync.Mutex
	calls    []Call
	inflight string
	changed  chan struct{}
}

// NewServer starts a server listening on a loopback address.
func NewServer(opts ...Option) *Server {
	s := &Server{
		Options: NewOptions(opts...),
		queue:   make(chan *Event, 1024),
		done:    make(chan struct{}),
		changed: make(chan struct{}),
	}

	if s.DebugMode {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.TestMode)
	}
	s.Engine = gin.New()
	s.InstallHandlers()

	s.srv = httptest.NewServer(s.Engine)
	return s
}

func (s *Server) InstallHandlers() {
	g := s.Group("/" + s.APIVersion)
	g.GET("/runtime/invocation/next", s.Next)
	g.POST("/runtime/invocation/:id/response", s.Report(CallResponse))
	g.POST("/runtime/invocation/:id/error", s.Report(CallError))
	g.POST("/runtime/init/error", s.InitError)
}

// Address returns host:port, the value of AWS_LAMBDA_RUNTIME_API.
func (s *Server) Address() string {
	return strings.TrimPrefix(s.srv.URL, "http://")
}

// URL returns the base URL including the API version.
func (s *Server) URL() string {
	return s.srv.URL + "/" + s.APIVersion + "/"
}

// Close unblocks pending polls and shuts the server down.
func (s *Server) Close() {
	s.once.Do(func() {
		close(s.done)
		s.srv.Close()
	})
}

// Enqueue queues an event and returns its request id.
func (s *Server) Enqueue(payload []byte, opts ...EventOption) string {
	e := &Event{
		RequestID:   uuid.NewString(),
		Payload:     payload,
		Deadline:    time.Now().Add(s.DeadlineOffset),
		FunctionArn: s.FunctionArn,
	}
	for _, opt := range opts {
		opt(e)
	}
	s.queue <- e
	return e.RequestID
}

// Calls returns a copy of every call received so far, in arrival order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsOf returns the calls of the given kind.
func (s *Server) CallsOf(kind CallKind) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// WaitCalls blocks until at least n calls of kind were received or the
// timeout elapses, and returns what was received.
func (s *Server) WaitCalls(kind CallKind, n int, timeout time.Duration) []Call {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		s.mu.Lock()
		changed := s.changed
		s.mu.Unlock()

		if got := s.CallsOf(kind); len(got) >= n {
			return got
		}
		select {
		case <-changed:
		case <-deadline.C:
			return s.CallsOf(kind)
		}
	}
}

func (s *Server) record(c Call) {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()
}

// Next hands out the next queued event, blocking until one is available.
func (s *Server) Next(c *gin.Context) {
	var e *Event
	select {
	case e = <-s.queue:
	case <-c.Request.Context().Done():
		return
	case <-s.done:
		c.Status(http.StatusGone)
		return
	}

	if e.Status != 0 {
		s.record(Call{Kind: CallNext, RequestID: e.RequestID, Status: e.Status})
		c.JSON(e.Status, gin.H{"errorMessage": "injected failure", "errorType": "Test.Injected"})
		return
	}

	s.mu.Lock()
	s.inflight = e.RequestID
	s.mu.Unlock()

	if !e.OmitRequestID {
		c.Header("Lambda-Runtime-Aws-Request-Id", e.RequestID)
	}
	c.Header("Lambda-Runtime-Deadline-Ms", strconv.FormatInt(e.Deadline.UnixMilli(), 10))
	c.Header("Lambda-Runtime-Invoked-Function-Arn", e.FunctionArn)
	if e.TraceID != "" {
		c.Header("Lambda-Runtime-Trace-Id", e.TraceID)
	}
	if e.ClientContext != "" {
		c.Header("Lambda-Runtime-Client-Context", e.ClientContext)
	}
	if e.CognitoIdentity != "" {
		c.Header("Lambda-Runtime-Cognito-Identity", e.CognitoIdentity)
	}

	s.record(Call{Kind: CallNext, RequestID: e.RequestID, Status: http.StatusOK})
	c.Data(http.StatusOK, "application/json", e.Payload)
}

// Report records a response or error post for the in-flight invocation.
func (s *Server) Report(kind CallKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		body, _ := io.ReadAll(c.Request.Body)

		s.mu.Lock()
		valid := id != "" && id == s.inflight
		if valid {
			s.inflight = ""
		}
		s.mu.Unlock()

		status := s.AcceptStatus
		if !valid {
			status = http.StatusBadRequest
		}
		s.record(Call{
			Kind:      kind,
			RequestID: id,
			Body:      body,
			ErrorType: c.GetHeader("Lambda-Runtime-Function-Error-Type"),
			Status:    status,
		})

		if !valid {
			c.JSON(status, gin.H{"errorMessage": "invalid request id", "errorType": "InvalidRequestID"})
			return
		}
		c.JSON(status, gin.H{"status": "OK"})
	}
}

// InitError records an init error post.
func (s *Server) InitError(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	s.record(Call{
		Kind:      CallInitError,
		Body:      body,
		ErrorType: c.GetHeader("Lambda-Runtime-Function-Error-Type"),
		Status:    s.AcceptStatus,
	})
	c.JSON(s.AcceptStatus, gin.H{"status": "OK"})
}
