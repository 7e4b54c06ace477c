package sfx

import (
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func TestExpBackoffGrowth(t *testing.T) {
	// Fixed rand makes delays deterministic: base*2^n plus half the jitter band.
	bo := &expBackoff{factor: 2.0, rand: func() float64 { return 0.5 }}

	want := []time.Duration{
		time.Duration(2.0 * 1.05 * float64(time.Second)),
		time.Duration(4.0 * 1.05 * float64(time.Second)),
		time.Duration(8.0 * 1.05 * float64(time.Second)),
	}
	for i, w := range want {
		if got := bo.NextBackOff(); got != w {
			t.Errorf("NextBackOff() #%d = %v, want %v", i, got, w)
		}
	}

	bo.Reset()
	if got := bo.NextBackOff(); got != want[0] {
		t.Errorf("NextBackOff() after Reset = %v, want %v", got, want[0])
	}
}

func TestExpBackoffJitterBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		frac := float64(i) / 100.0
		bo := &expBackoff{factor: 1.0, rand: func() float64 { return frac }}

		delay := bo.NextBackOff()
		if delay < time.Second || delay > time.Duration(1.1*float64(time.Second)) {
			t.Fatalf("delay %v outside [1s, 1.1s]", delay)
		}
	}
}

func TestNewRetryBackoffStopsAfterMaxRetries(t *testing.T) {
	bo := newRetryBackoff(RetryPolicy{MaxRetries: 3, BackoffFactor: 1.0})

	for i := 0; i < 3; i++ {
		if delay := bo.NextBackOff(); delay == backoff.Stop {
			t.Fatalf("NextBackOff() #%d = Stop, want a delay", i)
		}
	}
	if delay := bo.NextBackOff(); delay != backoff.Stop {
		t.Errorf("NextBackOff() #4 = %v, want Stop", delay)
	}
}

func TestNewRetryBackoffClampsNegativeRetries(t *testing.T) {
	bo := newRetryBackoff(RetryPolicy{MaxRetries: -5, BackoffFactor: 1.0})
	if delay := bo.NextBackOff(); delay != backoff.Stop {
		t.Errorf("NextBackOff() = %v, want immediate Stop for negative retries", delay)
	}
}
