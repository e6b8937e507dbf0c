package audit

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// LogSink writes every record to a zap logger at info level.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(_ context.Context, r Record) error {
	fields := []zap.Field{
		zap.String("request_id", r.RequestID),
		zap.String("outcome", string(r.Outcome)),
		zap.Duration("duration", r.Duration),
	}
	if r.ErrorType != "" {
		fields = append(fields, zap.String("error_type", r.ErrorType), zap.String("error_message", r.ErrorMessage))
	}
	if r.ReportError != "" {
		fields = append(fields, zap.String("report_error", r.ReportError))
	}
	s.logger.Info("invocation", fields...)
	return nil
}

// Multi fans a record out to every sink and joins their errors.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, r Record) error {
		var errs []error
		for _, s := range sinks {
			if err := s.Record(ctx, r); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
