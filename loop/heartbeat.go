package loop

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// startHeartbeat logs "ping" every interval until the returned stop func is
// called or ctx is done.
func startHeartbeat(ctx context.Context, interval time.Duration, logger *zap.Logger) (stop func()) {
	if interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.Debug("ping")
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
