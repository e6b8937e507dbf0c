package runtimeapi

import (
	"errors"
	"fmt"
)

var (
	ErrMissingRequestID = errors.New("runtimeapi: missing " + HeaderAwsRequestID + " header")
	ErrInvalidDeadline  = errors.New("runtimeapi: missing or invalid " + HeaderDeadlineMs + " header")
	ErrMalformedHeader  = errors.New("runtimeapi: malformed JSON header")
	ErrUnexpectedStatus = errors.New("runtimeapi: unexpected status")
	ErrEmptyRequestID   = errors.New("runtimeapi: empty request id")
)

// TransportError reports that the control plane could not be reached or the
// exchange was cut short.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("runtimeapi: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a malformed or rejected exchange: a missing
// required header, an unparsable header, or a non-2xx status.
type ProtocolError struct {
	Op         string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *ProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("runtimeapi: %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("runtimeapi: %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsTransport reports whether err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsProtocol reports whether err is or wraps a *ProtocolError.
func IsProtocol(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
