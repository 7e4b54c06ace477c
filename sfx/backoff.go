package sfx

import (
	"math"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxRetries is the default number of retries after the first attempt.
	DefaultMaxRetries = 3
	// DefaultBackoffFactor is the default base delay for exponential backoff.
	DefaultBackoffFactor = 1.0 // seconds
	// jitterFraction bounds the random jitter added to each delay.
	jitterFraction = 0.1
)

// RetryPolicy configures the retry behavior of a Client. It is fixed at
// client construction and shared by all Generate calls.
type RetryPolicy struct {
	MaxRetries    int     // retries after the initial attempt
	BackoffFactor float64 // base delay in seconds, doubled every attempt
}

// DefaultRetryPolicy returns the policy used when no overrides are given:
// 3 retries (4 total attempts) starting at a 1 second delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    DefaultMaxRetries,
		BackoffFactor: DefaultBackoffFactor,
	}
}

// expBackoff produces delays of factor * 2^attempt seconds plus a jitter
// term uniformly drawn from [0, 0.1 * factor * 2^attempt). It implements
// backoff.BackOff so it can be capped with backoff.WithMaxRetries.
type expBackoff struct {
	factor  float64
	attempt int
	rand    func() float64
}

func (b *expBackoff) NextBackOff() time.Duration {
	base := b.factor * math.Pow(2, float64(b.attempt))
	b.attempt++
	jitter := b.rand() * jitterFraction * base
	return time.Duration((base + jitter) * float64(time.Second))
}

func (b *expBackoff) Reset() {
	b.attempt = 0
}

// newRetryBackoff builds the per-invocation backoff for a Generate call.
// Each call gets a fresh instance so attempt state is never shared.
// A negative MaxRetries is clamped to zero retries rather than wrapping
// around in the uint64 conversion.
func newRetryBackoff(policy RetryPolicy) backoff.BackOff {
	retries := policy.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithMaxRetries(&expBackoff{
		factor: policy.BackoffFactor,
		rand:   rand.Float64,
	}, uint64(retries))
}
