package worker

import (
	"context"
	"time"
)

// waitRetry backs off after a failed item without blocking shutdown:
// it returns as soon as the worker context is cancelled.
func waitRetry(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
