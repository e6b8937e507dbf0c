package audit

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var ErrNoQueue = errors.New("audit: queue url is required")

type SQSClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSSink publishes one message per record.
type SQSSink struct {
	*Options
	client SQSClient
}

var _ Sink = (*SQSSink)(nil)

// NewSQSSink builds a sink. Without an injected client the default AWS
// credential chain is loaded.
func NewSQSSink(ctx context.Context, opts ...Option) (*SQSSink, error) {
	o := NewOptions(opts...)
	if o.QueueURL == "" {
		return nil, ErrNoQueue
	}

	s := &SQSSink{Options: o, client: o.SQSClient}
	if s.client == nil {
		var loadOpts []func(*config.LoadOptions) error
		if o.Region != "" {
			loadOpts = append(loadOpts, config.WithRegion(o.Region))
		}
		cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("audit: load aws config: %w", err)
		}
		s.client = sqs.NewFromConfig(cfg)
	}
	return s, nil
}

func (s *SQSSink) Record(ctx context.Context, r Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	body, err := s.encode(r)
	if err != nil {
		return fmt.Errorf("audit: encode record: %w", err)
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.QueueURL),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("audit: send message: %w", err)
	}
	return nil
}

func (s *SQSSink) encode(r Record) (string, error) {
	if s.Format == FormatJSON {
		b, err := r.JSON()
		return string(b), err
	}
	b, err := Marshal(r)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Marshal encodes r as a protobuf Struct.
func Marshal(r Record) ([]byte, error) {
	fields := map[string]any{
		"id":               r.ID,
		"request_id":       r.RequestID,
		"outcome":          string(r.Outcome),
		"function_name":    r.FunctionName,
		"function_version": r.FunctionVersion,
		"started_at":       r.StartedAt.UTC().Format(time.RFC3339Nano),
		"duration_ms":      r.Duration.Milliseconds(),
	}
	if r.ErrorType != "" || r.ErrorMessage != "" {
		fields["error_type"] = r.ErrorType
		fields["error_message"] = r.ErrorMessage
	}
	if r.ReportError != "" {
		fields["report_error"] = r.ReportError
	}

	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

// Unmarshal decodes a record produced by Marshal.
func Unmarshal(b []byte) (Record, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(b, &st); err != nil {
		return Record{}, err
	}

	f := st.GetFields()
	str := func(k string) string { return f[k].GetStringValue() }

	r := Record{
		ID:              str("id"),
		RequestID:       str("request_id"),
		Outcome:         Outcome(str("outcome")),
		FunctionName:    str("function_name"),
		FunctionVersion: str("function_version"),
		ErrorType:       str("error_type"),
		ErrorMessage:    str("error_message"),
		ReportError:     str("report_error"),
		Duration:        time.Duration(f["duration_ms"].GetNumberValue()) * time.Millisecond,
	}
	if v := str("started_at"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return Record{}, fmt.Errorf("started_at: %w", err)
		}
		r.StartedAt = t
	}
	return r, nil
}

// DecodeBody reverses the base64 protobuf message body.
func DecodeBody(body string) (Record, error) {
	b, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return Record{}, err
	}
	return Unmarshal(b)
}
