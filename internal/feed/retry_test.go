package feed

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{MaxRetries: 4, Backoff: 10 * time.Millisecond, MaxBackoff: 25 * time.Millisecond}

	tests := []struct {
		failures int
		retry    bool
		delay    time.Duration
	}{
		{0, false, 0},
		{1, true, 10 * time.Millisecond},
		{2, true, 20 * time.Millisecond},
		{3, true, 25 * time.Millisecond},
		{4, true, 25 * time.Millisecond},
		{5, false, 0},
	}
	for _, tt := range tests {
		retry, delay := p.ShouldRetry(tt.failures)
		if retry != tt.retry || delay != tt.delay {
			t.Errorf("failures=%d: expected (%v, %v), got (%v, %v)", tt.failures, tt.retry, tt.delay, retry, delay)
		}
	}
}

func TestRunWithRetry_GivesUp(t *testing.T) {
	p := RetryPolicy{MaxRetries: 2, Backoff: time.Millisecond}
	calls := 0
	boom := errors.New("boom")

	err := RunWithRetry(context.Background(), nil, p, func(context.Context, *bool) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRunWithRetry_DeliveryResetsFailures(t *testing.T) {
	p := RetryPolicy{MaxRetries: 1, Backoff: time.Millisecond}
	calls := 0

	err := RunWithRetry(context.Background(), nil, p, func(_ context.Context, delivered *bool) error {
		calls++
		switch calls {
		case 1, 2, 3:
			// each attempt delivers before dropping, so the budget never runs out
			*delivered = true
			return ErrFeedClosed
		default:
			return nil
		}
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 attempts, got %d", calls)
	}
}

func TestRunWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxRetries: 10, Backoff: time.Hour}

	done := make(chan error, 1)
	go func() {
		done <- RunWithRetry(ctx, nil, p, func(context.Context, *bool) error {
			return errors.New("down")
		})
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunWithRetry did not stop on cancel")
	}
}
