package sfx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	// DefaultDurationSeconds is the sound effect length used when the
	// request does not specify one.
	DefaultDurationSeconds = 5.0
	// DefaultPromptInfluence is the prompt influence used when the request
	// does not specify one.
	DefaultPromptInfluence = 0.3
	// DefaultOutputFormat is the audio format requested from the API when
	// the request does not specify one.
	DefaultOutputFormat = "mp3_44100_128"

	// MinDurationSeconds and MaxDurationSeconds bound the duration the API accepts.
	MinDurationSeconds = 0.5
	MaxDurationSeconds = 22.0
	// MinPromptInfluence and MaxPromptInfluence bound the prompt influence.
	MinPromptInfluence = 0.0
	MaxPromptInfluence = 1.0
)

// Request describes a single sound effect generation. Optional fields follow
// the pointer-for-optional convention; nil means "use the client default".
type Request struct {
	Text            string
	DurationSeconds *float64
	PromptInfluence *float64
	OutputFormat    string
}

// SoundGenerator is the remote call contract. Implementations return the
// generated audio as an ordered sequence of byte chunks, or an *APIError
// describing the remote failure.
type SoundGenerator interface {
	GenerateSound(ctx context.Context, text string, durationSeconds, promptInfluence float64, outputFormat string) ([][]byte, error)
}

// Client generates sound effects through a SoundGenerator, validating
// parameters up front and retrying transient failures with exponential
// backoff. A Client holds no mutable state beyond its configuration and is
// safe for concurrent use.
type Client struct {
	gen    SoundGenerator
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
	logger zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRetryPolicy overrides the default retry policy. Values are accepted
// as-is; a zero or negative backoff factor disables the delay growth.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) {
		c.policy = policy
	}
}

// WithGenerator replaces the remote API transport. Used by the proxy for
// configuration overrides and by tests for fakes.
func WithGenerator(gen SoundGenerator) Option {
	return func(c *Client) {
		c.gen = gen
	}
}

// withSleep replaces the backoff sleep. Tests use it to record delays
// without actually waiting.
func withSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// NewClient creates a sound effect client for the given ElevenLabs API key.
// Returns a parameter error if the key is empty.
func NewClient(logger zerolog.Logger, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, NewParameterError("API key cannot be empty")
	}

	c := &Client{
		gen:    NewElevenLabsGenerator(apiKey),
		policy: DefaultRetryPolicy(),
		sleep:  sleepContext,
		logger: logger.With().Str("component", "sfxClient").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate produces a sound effect for the request and returns the raw audio
// bytes. Invalid parameters fail immediately without a network call. Remote
// failures are classified by status code; rate limits and server errors are
// retried with exponential backoff until the policy is exhausted, everything
// else fails on the first attempt.
func (c *Client) Generate(ctx context.Context, req Request) ([]byte, error) {
	duration := DefaultDurationSeconds
	if req.DurationSeconds != nil {
		duration = *req.DurationSeconds
	}
	influence := DefaultPromptInfluence
	if req.PromptInfluence != nil {
		influence = *req.PromptInfluence
	}
	format := req.OutputFormat
	if format == "" {
		format = DefaultOutputFormat
	}

	if err := validate(req.Text, duration, influence); err != nil {
		c.logger.Error().Err(err).Msg("Request validation failed")
		return nil, err
	}

	// Retry state is local to this invocation.
	bo := newRetryBackoff(c.policy)
	totalAttempts := c.policy.MaxRetries + 1

	for attempt := 0; ; attempt++ {
		c.logger.Debug().
			Int("attempt", attempt+1).
			Int("total_attempts", totalAttempts).
			Float64("duration_seconds", duration).
			Msg("Calling sound generation API")

		chunks, err := c.gen.GenerateSound(ctx, req.Text, duration, influence, format)
		if err == nil {
			audio := lo.Flatten(chunks)
			c.logger.Info().
				Int("attempt", attempt+1).
				Int("bytes", len(audio)).
				Msg("Sound effect generated")
			return audio, nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			return nil, wrapUnexpected(fmt.Sprintf("unexpected error during sound generation: %v", err), err)
		}

		kind, retryable := classifyStatus(apiErr.StatusCode)
		message := apiErrorMessage(apiErr)

		if retryable {
			if delay := bo.NextBackOff(); delay != backoff.Stop {
				c.logger.Warn().
					Int("status", apiErr.StatusCode).
					Int("attempt", attempt+1).
					Dur("delay", delay).
					Msg("Transient API error. Retrying after delay")
				if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
					return nil, wrapUnexpected("backoff wait interrupted", sleepErr)
				}
				continue
			}
			message = fmt.Sprintf("%s after %d attempts: %s", terminalVerb(kind), totalAttempts, message)
		}

		c.logger.Error().
			Int("status", apiErr.StatusCode).
			Str("kind", string(kind)).
			Int("attempt", attempt+1).
			Msg("Sound generation failed")
		return nil, &Error{
			Kind:       kind,
			Message:    message,
			StatusCode: apiErr.StatusCode,
			Retryable:  retryable,
			Cause:      apiErr,
		}
	}
}

// validate rejects out-of-range parameters before any network call is made.
func validate(text string, duration, influence float64) error {
	if duration < MinDurationSeconds || duration > MaxDurationSeconds {
		return NewParameterError(fmt.Sprintf(
			"duration must be between %g and %g seconds, got %g", MinDurationSeconds, MaxDurationSeconds, duration))
	}
	if influence < MinPromptInfluence || influence > MaxPromptInfluence {
		return NewParameterError(fmt.Sprintf(
			"prompt influence must be between %g and %g, got %g", MinPromptInfluence, MaxPromptInfluence, influence))
	}
	if strings.TrimSpace(text) == "" {
		return NewParameterError("text prompt cannot be empty or whitespace only")
	}
	return nil
}

func terminalVerb(kind Kind) string {
	if kind == KindRateLimit {
		return "rate limit exceeded"
	}
	return "server error persisted"
}

// sleepContext waits for the delay, returning early if ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
