package sfx

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Proxy is the entry point used by the MCP tool layer. It owns client
// construction and runs the blocking generation on its own goroutine so a
// caller multiplexing other work on its goroutine is suspended only at the
// hand-off, not for the duration of network calls and backoff sleeps.
type Proxy struct {
	logger     zerolog.Logger
	apiKey     string
	clientOpts []Option
}

// NewProxy creates a proxy for the given API key. Client options are applied
// to every client the proxy constructs.
func NewProxy(logger zerolog.Logger, apiKey string, clientOpts ...Option) *Proxy {
	return &Proxy{
		logger:     logger.With().Str("component", "sfxProxy").Logger(),
		apiKey:     apiKey,
		clientOpts: clientOpts,
	}
}

// Generate builds a client and runs the generation, forwarding only the
// request fields the caller populated; the client applies its own defaults
// for the rest. Fails fast with a parameter error when no API key is
// configured. Errors that are not already classified library errors are
// wrapped with their cause attached.
func (p *Proxy) Generate(ctx context.Context, req Request) ([]byte, error) {
	if p.apiKey == "" {
		return nil, NewParameterError("ELEVENLABS_API_KEY is not configured")
	}

	client, err := NewClient(p.logger, p.apiKey, p.clientOpts...)
	if err != nil {
		return nil, err
	}

	type result struct {
		audio []byte
		err   error
	}
	done := make(chan result, 1)

	go func() {
		audio, genErr := client.Generate(ctx, req)
		done <- result{audio: audio, err: genErr}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, wrapUnexpected(fmt.Sprintf("unexpected error during sound generation: %v", res.err), res.err)
		}
		return res.audio, nil
	case <-ctx.Done():
		// The in-flight attempt runs to completion in the background; only
		// the wait is abandoned.
		p.logger.Warn().Err(ctx.Err()).Msg("Caller abandoned generation before completion")
		return nil, wrapUnexpected("generation abandoned", ctx.Err())
	}
}
