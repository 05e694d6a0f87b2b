package api

import (
	"testing"
	"time"
)

func TestDelayFor_ExponentialBackoff(t *testing.T) {
	p := DefaultRetryPolicy

	tests := []struct {
		attempt int
		expect  time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second}, // clamped to MaxDelay
		{7, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := p.DelayFor(tt.attempt); got != tt.expect {
			t.Errorf("DelayFor(%d) = %v, want %v", tt.attempt, got, tt.expect)
		}
	}
}

func TestDelayFor_Monotonic(t *testing.T) {
	p := DefaultRetryPolicy

	prev := time.Duration(0)
	for n := 1; n <= 10; n++ {
		d := p.DelayFor(n)
		if d < prev {
			t.Errorf("DelayFor(%d) = %v decreased from %v", n, d, prev)
		}
		prev = d
	}
}

func TestDelayFor_JitterKeepsFloor(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second, Jitter: true}

	for n := 1; n <= 5; n++ {
		floor := DefaultRetryPolicy.DelayFor(n)
		for i := 0; i < 20; i++ {
			d := p.DelayFor(n)
			if d < floor {
				t.Fatalf("DelayFor(%d) = %v below deterministic floor %v", n, d, floor)
			}
			if d > floor+floor/10 {
				t.Fatalf("DelayFor(%d) = %v above floor+10%% (%v)", n, d, floor+floor/10)
			}
		}
	}
}

func TestDelayFor_JitterNeverExceedsMaxDelay(t *testing.T) {
	p := RetryPolicy{MaxRetries: 8, BaseDelay: time.Second, MaxDelay: 30 * time.Second, Jitter: true}

	// Once the deterministic floor reaches MaxDelay the jitter has nowhere
	// to go: every draw must come back as exactly MaxDelay.
	for n := 6; n <= 8; n++ {
		for i := 0; i < 50; i++ {
			if d := p.DelayFor(n); d != p.MaxDelay {
				t.Fatalf("DelayFor(%d) = %v, want exactly %v at the clamp", n, d, p.MaxDelay)
			}
		}
	}
}

func TestDelayFor_JitterMonotonic(t *testing.T) {
	p := RetryPolicy{MaxRetries: 8, BaseDelay: time.Second, MaxDelay: 30 * time.Second, Jitter: true}

	// The largest realized delay for attempt n must never exceed the
	// smallest for attempt n+1, so consecutive retries cannot back off
	// for less time than their predecessors regardless of the draw.
	for n := 1; n <= 7; n++ {
		var maxCur, minNext time.Duration
		minNext = time.Duration(1<<63 - 1)
		for i := 0; i < 50; i++ {
			if d := p.DelayFor(n); d > maxCur {
				maxCur = d
			}
			if d := p.DelayFor(n + 1); d < minNext {
				minNext = d
			}
		}
		if maxCur > minNext {
			t.Errorf("DelayFor(%d) can reach %v, above DelayFor(%d) minimum %v", n, maxCur, n+1, minNext)
		}
	}
}

func TestShouldRetry(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}

	retryable := &ErrorRecord{Kind: KindNetwork, Retryable: true}
	terminal := &ErrorRecord{Kind: KindResponse, Status: 404, Retryable: false}

	tests := []struct {
		name    string
		rec     *ErrorRecord
		attempt int
		expect  bool
	}{
		{"retryable first attempt", retryable, 0, true},
		{"retryable under budget", retryable, 2, true},
		{"retryable at budget", retryable, 3, false},
		{"retryable over budget", retryable, 4, false},
		{"non-retryable", terminal, 0, false},
		{"nil record", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.ShouldRetry(tt.rec, tt.attempt); got != tt.expect {
				t.Errorf("ShouldRetry(%v, %d) = %v, want %v", tt.rec, tt.attempt, got, tt.expect)
			}
		})
	}
}
