package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewTimeout_Default(t *testing.T) {
	if d := NewTimeout(TimeoutConfig{}).Config().Timeout; d != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", d)
	}
}

func TestTimeout_CompletesInTime(t *testing.T) {
	err := ExecuteWithTimeout(context.Background(), time.Second, succeeding)
	if err != nil {
		t.Errorf("err = %v", err)
	}
}

func TestTimeout_PassesErrorThrough(t *testing.T) {
	err := ExecuteWithTimeout(context.Background(), time.Second, failing)
	if !errors.Is(err, errOrigin) {
		t.Errorf("err = %v, want origin error", err)
	}
}

func TestTimeout_Expires(t *testing.T) {
	err := ExecuteWithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestTimeout_DoesNotWaitForStuckOperation(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	err := ExecuteWithTimeout(context.Background(), 10*time.Millisecond, func(context.Context) error {
		<-release
		return nil
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Execute should return at the deadline")
	}
}

func TestTimeout_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ExecuteWithTimeout(ctx, time.Second, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
