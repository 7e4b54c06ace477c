package sfx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samber/lo"
)

func TestElevenLabsGeneratorSuccess(t *testing.T) {
	audio := []byte("mp3-bytes-here")
	var gotReq map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/sound-generation" {
			t.Errorf("path = %s, want /v1/sound-generation", r.URL.Path)
		}
		if got := r.Header.Get("xi-api-key"); got != "test-api-key" {
			t.Errorf("xi-api-key = %q, want %q", got, "test-api-key")
		}
		if got := r.URL.Query().Get("output_format"); got != "mp3_44100_128" {
			t.Errorf("output_format = %q, want %q", got, "mp3_44100_128")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		_, _ = w.Write(audio)
	}))
	defer srv.Close()

	gen := NewElevenLabsGenerator("test-api-key", WithBaseURL(srv.URL))
	chunks, err := gen.GenerateSound(context.Background(), "a dog barking", 5.0, 0.3, "mp3_44100_128")
	if err != nil {
		t.Fatalf("GenerateSound failed: %v", err)
	}
	if got := lo.Flatten(chunks); !bytes.Equal(got, audio) {
		t.Errorf("audio = %q, want %q", got, audio)
	}

	if gotReq["text"] != "a dog barking" {
		t.Errorf("text = %v, want %q", gotReq["text"], "a dog barking")
	}
	if gotReq["duration_seconds"] != 5.0 {
		t.Errorf("duration_seconds = %v, want 5.0", gotReq["duration_seconds"])
	}
	if gotReq["prompt_influence"] != 0.3 {
		t.Errorf("prompt_influence = %v, want 0.3", gotReq["prompt_influence"])
	}
}

func TestElevenLabsGeneratorDecodesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"detail": {"message": "quota exceeded"}}`))
	}))
	defer srv.Close()

	gen := NewElevenLabsGenerator("test-api-key", WithBaseURL(srv.URL))
	_, err := gen.GenerateSound(context.Background(), "thunder", 5.0, 0.3, "")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", apiErr.StatusCode)
	}
	if got := apiErrorMessage(apiErr); got != "quota exceeded" {
		t.Errorf("message = %q, want %q", got, "quota exceeded")
	}
}

func TestElevenLabsGeneratorKeepsRawErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream timeout"))
	}))
	defer srv.Close()

	gen := NewElevenLabsGenerator("test-api-key", WithBaseURL(srv.URL))
	_, err := gen.GenerateSound(context.Background(), "thunder", 5.0, 0.3, "")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %v", err)
	}
	if apiErr.Body != "upstream timeout" {
		t.Errorf("Body = %v, want raw string", apiErr.Body)
	}
}
