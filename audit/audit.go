// Package audit mirrors the outcome of every invocation to an external sink.
//
// A sink is never on the critical path: a failing sink is logged by the
// caller and the invocation loop carries on.
package audit

import (
	"context"
	"time"

	"github.com/tidwall/sjson"
)

type Outcome string

const (
	OutcomeResponse  Outcome = "response"
	OutcomeError     Outcome = "error"
	OutcomeInitError Outcome = "init_error"
)

// Record describes one finished report call.
type Record struct {
	ID              string
	RequestID       string
	Outcome         Outcome
	FunctionName    string
	FunctionVersion string
	ErrorType       string
	ErrorMessage    string
	ReportError     string
	StartedAt       time.Time
	Duration        time.Duration
}

// Sink receives records.
type Sink interface {
	Record(ctx context.Context, r Record) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r Record) error

func (f SinkFunc) Record(ctx context.Context, r Record) error { return f(ctx, r) }

type nopSink struct{}

func (nopSink) Record(context.Context, Record) error { return nil }

// Nop discards every record.
func Nop() Sink { return nopSink{} }

// JSON renders r as a flat JSON document.
func (r Record) JSON() ([]byte, error) {
	doc := []byte(`{}`)
	var err error
	set := func(path string, v any) {
		if err != nil {
			return
		}
		doc, err = sjson.SetBytes(doc, path, v)
	}

	set("id", r.ID)
	set("request_id", r.RequestID)
	set("outcome", string(r.Outcome))
	set("function.name", r.FunctionName)
	set("function.version", r.FunctionVersion)
	if r.ErrorType != "" || r.ErrorMessage != "" {
		set("error.type", r.ErrorType)
		set("error.message", r.ErrorMessage)
	}
	if r.ReportError != "" {
		set("report_error", r.ReportError)
	}
	set("started_at", r.StartedAt.UTC().Format(time.RFC3339Nano))
	set("duration_ms", r.Duration.Milliseconds())
	return doc, err
}
