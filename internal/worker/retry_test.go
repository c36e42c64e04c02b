package worker

import (
	"context"
	"testing"
	"time"
)

func TestWaitRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	waitRetry(ctx, time.Minute)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("waitRetry blocked %v on a cancelled context", elapsed)
	}
}

func TestWaitRetryWaitsWhenActive(t *testing.T) {
	start := time.Now()
	waitRetry(context.Background(), 50*time.Millisecond)
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("waitRetry returned after %v, want the full delay", elapsed)
	}
}
