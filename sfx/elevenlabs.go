package sfx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the ElevenLabs API endpoint.
	DefaultBaseURL = "https://api.elevenlabs.io"

	soundGenerationPath = "/v1/sound-generation"
	apiKeyHeader        = "xi-api-key"

	// readChunkSize is the buffer size used when draining the audio
	// response body.
	readChunkSize = 32 * 1024

	defaultRequestTimeout = 120 * time.Second
)

// ElevenLabsGenerator is the production SoundGenerator. It calls the
// ElevenLabs sound-generation endpoint over HTTP and returns the audio body
// as a sequence of chunks in arrival order.
type ElevenLabsGenerator struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// GeneratorOption configures an ElevenLabsGenerator.
type GeneratorOption func(*ElevenLabsGenerator)

// WithBaseURL overrides the API endpoint. Used for test servers.
func WithBaseURL(baseURL string) GeneratorOption {
	return func(g *ElevenLabsGenerator) {
		g.baseURL = baseURL
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) GeneratorOption {
	return func(g *ElevenLabsGenerator) {
		g.httpClient = httpClient
	}
}

// NewElevenLabsGenerator creates the HTTP transport for the ElevenLabs API.
func NewElevenLabsGenerator(apiKey string, opts ...GeneratorOption) *ElevenLabsGenerator {
	g := &ElevenLabsGenerator{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateSound implements SoundGenerator. Non-2xx responses are returned as
// *APIError with the decoded response body attached.
func (g *ElevenLabsGenerator) GenerateSound(ctx context.Context, text string, durationSeconds, promptInfluence float64, outputFormat string) ([][]byte, error) {
	payload := map[string]any{
		"text":             text,
		"duration_seconds": durationSeconds,
		"prompt_influence": promptInfluence,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := g.baseURL + soundGenerationPath
	if outputFormat != "" {
		endpoint += "?output_format=" + url.QueryEscape(outputFormat)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, newAPIError(resp)
	}

	return readChunks(resp.Body)
}

// newAPIError builds an APIError from a failed response, decoding the body
// as JSON when possible and keeping the raw string otherwise.
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(resp.Body)
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var decoded map[string]any
	if jsonErr := json.Unmarshal(raw, &decoded); jsonErr == nil {
		apiErr.Body = decoded
	} else {
		apiErr.Body = string(raw)
	}
	return apiErr
}

// readChunks drains the response body preserving chunk arrival order.
func readChunks(r io.Reader) ([][]byte, error) {
	var chunks [][]byte
	for {
		buf := make([]byte, readChunkSize)
		n, err := r.Read(buf)
		if n > 0 {
			chunks = append(chunks, buf[:n])
		}
		if err == io.EOF {
			return chunks, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read audio response: %w", err)
		}
	}
}
