package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockSQSClient struct {
	mu     sync.Mutex
	inputs []*sqs.SendMessageInput
	err    error
}

func (m *mockSQSClient) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageOutput{}, nil
}

func sampleRecord() Record {
	return Record{
		RequestID:       "abc-2",
		Outcome:         OutcomeError,
		FunctionName:    "fn",
		FunctionVersion: "7",
		ErrorType:       "errorString",
		ErrorMessage:    "boom",
		StartedAt:       time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Duration:        1500 * time.Millisecond,
	}
}

func TestSQSSinkProtoBody(t *testing.T) {
	mock := &mockSQSClient{}
	sink, err := NewSQSSink(context.Background(), WithSQSClient(mock), WithQueueURL("https://sqs.example/audit"))
	require.NoError(t, err)

	require.NoError(t, sink.Record(context.Background(), sampleRecord()))

	require.Len(t, mock.inputs, 1)
	assert.Equal(t, "https://sqs.example/audit", *mock.inputs[0].QueueUrl)

	got, err := DecodeBody(*mock.inputs[0].MessageBody)
	require.NoError(t, err)
	want := sampleRecord()
	assert.NotEmpty(t, got.ID)
	got.ID = ""
	assert.Equal(t, want, got)
}

func TestSQSSinkJSONBody(t *testing.T) {
	mock := &mockSQSClient{}
	sink, err := NewSQSSink(context.Background(), WithSQSClient(mock), WithQueueURL("q"), WithFormat(FormatJSON))
	require.NoError(t, err)

	r := sampleRecord()
	r.ID = "rec-1"
	r.ReportError = "413"
	require.NoError(t, sink.Record(context.Background(), r))

	body := *mock.inputs[0].MessageBody
	assert.Equal(t, "rec-1", gjson.Get(body, "id").String())
	assert.Equal(t, "error", gjson.Get(body, "outcome").String())
	assert.Equal(t, "boom", gjson.Get(body, "error.message").String())
	assert.Equal(t, "413", gjson.Get(body, "report_error").String())
	assert.Equal(t, int64(1500), gjson.Get(body, "duration_ms").Int())
}

func TestSQSSinkSendFailure(t *testing.T) {
	mock := &mockSQSClient{err: errors.New("throttled")}
	sink, err := NewSQSSink(context.Background(), WithSQSClient(mock), WithQueueURL("q"))
	require.NoError(t, err)

	err = sink.Record(context.Background(), sampleRecord())
	assert.ErrorContains(t, err, "throttled")
}

func TestNewSQSSinkRequiresQueue(t *testing.T) {
	_, err := NewSQSSink(context.Background(), WithSQSClient(&mockSQSClient{}))
	assert.ErrorIs(t, err, ErrNoQueue)
}

func TestRecordJSONOmitsEmptyError(t *testing.T) {
	r := sampleRecord()
	r.Outcome, r.ErrorType, r.ErrorMessage = OutcomeResponse, "", ""

	b, err := r.JSON()
	require.NoError(t, err)
	assert.False(t, gjson.GetBytes(b, "error").Exists())
	assert.Equal(t, "fn", gjson.GetBytes(b, "function.name").String())
	assert.Equal(t, "2024-05-01T10:00:00Z", gjson.GetBytes(b, "started_at").String())
}

func TestLogSinkAndMulti(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	failing := SinkFunc(func(context.Context, Record) error { return errors.New("down") })

	err := Multi(NewLogSink(zap.New(core)), Nop(), failing).Record(context.Background(), sampleRecord())
	assert.EqualError(t, err, "down")

	entries := logs.FilterMessage("invocation").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "abc-2", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "errorString", entries[0].ContextMap()["error_type"])
}

func TestWithConfig(t *testing.T) {
	o := NewOptions(WithConfig([]byte(`
sqs:
  queueUrl: https://sqs.example/audit
  region: eu-west-1
  format: json
  timeout: 500ms
`)))
	assert.Equal(t, "https://sqs.example/audit", o.QueueURL)
	assert.Equal(t, "eu-west-1", o.Region)
	assert.Equal(t, FormatJSON, o.Format)
	assert.Equal(t, 500*time.Millisecond, o.Timeout)

	assert.Panics(t, func() { NewOptions(WithConfig([]byte("sqs: {format: xml}"))) })
	assert.Panics(t, func() { NewOptions(WithConfig([]byte("sqs: {timeout: later}"))) })
}
