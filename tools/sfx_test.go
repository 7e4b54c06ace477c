package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/aschepis/sfxd/sfx"
)

type fakeProxy struct {
	audio   []byte
	err     error
	lastReq sfx.Request
	calls   int
}

func (f *fakeProxy) Generate(_ context.Context, req sfx.Request) ([]byte, error) {
	f.calls++
	f.lastReq = req
	return f.audio, f.err
}

type fakeSink struct {
	path    string
	err     error
	lastDir string
	lastFn  string
	audio   []byte
}

func (f *fakeSink) Write(dir, filename string, audio []byte) (string, error) {
	f.lastDir = dir
	f.lastFn = filename
	f.audio = audio
	return f.path, f.err
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = "generate_sfx"
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("Expected 1 content item, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestHandleGenerateReturnsFilePath(t *testing.T) {
	proxy := &fakeProxy{audio: []byte("mp3-bytes")}
	snk := &fakeSink{path: "/tmp/sfxd/boom.mp3"}
	sfxTools := NewSFXTools(zerolog.Nop(), proxy, snk)

	result, err := sfxTools.HandleGenerate(context.Background(), callRequest(map[string]any{
		"text":             "an explosion in the distance",
		"duration_seconds": 3.5,
		"output_directory": "/tmp/sfxd",
		"output_filename":  "boom.mp3",
	}))
	if err != nil {
		t.Fatalf("HandleGenerate failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("Unexpected tool error: %v", result.Content)
	}
	if got := textOf(t, result); got != "/tmp/sfxd/boom.mp3" {
		t.Errorf("result = %q, want file path", got)
	}

	if proxy.lastReq.Text != "an explosion in the distance" {
		t.Errorf("text = %q", proxy.lastReq.Text)
	}
	if proxy.lastReq.DurationSeconds == nil || *proxy.lastReq.DurationSeconds != 3.5 {
		t.Errorf("duration = %v, want 3.5", proxy.lastReq.DurationSeconds)
	}
	if proxy.lastReq.PromptInfluence != nil {
		t.Errorf("influence = %v, want nil for omitted parameter", proxy.lastReq.PromptInfluence)
	}
	if snk.lastDir != "/tmp/sfxd" || snk.lastFn != "boom.mp3" {
		t.Errorf("sink got dir=%q filename=%q", snk.lastDir, snk.lastFn)
	}
	if string(snk.audio) != "mp3-bytes" {
		t.Errorf("sink audio = %q", snk.audio)
	}
}

func TestHandleGenerateMissingText(t *testing.T) {
	proxy := &fakeProxy{}
	sfxTools := NewSFXTools(zerolog.Nop(), proxy, &fakeSink{})

	result, err := sfxTools.HandleGenerate(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("HandleGenerate returned protocol error: %v", err)
	}
	if !result.IsError {
		t.Error("Expected tool error for missing text")
	}
	if proxy.calls != 0 {
		t.Errorf("Expected no generation attempt, got %d", proxy.calls)
	}
}

func TestHandleGenerateParameterError(t *testing.T) {
	proxy := &fakeProxy{err: sfx.NewParameterError("duration must be between 0.5 and 22 seconds, got 99")}
	sfxTools := NewSFXTools(zerolog.Nop(), proxy, &fakeSink{})

	result, err := sfxTools.HandleGenerate(context.Background(), callRequest(map[string]any{
		"text":             "hiss",
		"duration_seconds": 99.0,
	}))
	if err != nil {
		t.Fatalf("HandleGenerate returned protocol error: %v", err)
	}
	if !result.IsError {
		t.Fatal("Expected tool error")
	}
	if got := textOf(t, result); !strings.Contains(got, "duration must be between") {
		t.Errorf("error text %q does not name the violated bound", got)
	}
}

func TestHandleGenerateAPIError(t *testing.T) {
	proxy := &fakeProxy{err: &sfx.Error{
		Kind:       sfx.KindRateLimit,
		Message:    "rate limit exceeded after 4 attempts: quota exceeded",
		StatusCode: 429,
	}}
	sfxTools := NewSFXTools(zerolog.Nop(), proxy, &fakeSink{})

	result, err := sfxTools.HandleGenerate(context.Background(), callRequest(map[string]any{"text": "hiss"}))
	if err != nil {
		t.Fatalf("HandleGenerate returned protocol error: %v", err)
	}
	if !result.IsError {
		t.Fatal("Expected tool error")
	}
	if got := textOf(t, result); !strings.Contains(got, "status 429") {
		t.Errorf("error text %q does not carry the status", got)
	}
}

func TestHandleGenerateUnexpectedErrorIsProtocolError(t *testing.T) {
	proxy := &fakeProxy{err: errors.New("disk on fire")}
	sfxTools := NewSFXTools(zerolog.Nop(), proxy, &fakeSink{})

	_, err := sfxTools.HandleGenerate(context.Background(), callRequest(map[string]any{"text": "hiss"}))
	if err == nil {
		t.Fatal("Expected protocol-level error for unexpected failure")
	}
}

func TestHandleGenerateSinkFailureIsProtocolError(t *testing.T) {
	proxy := &fakeProxy{audio: []byte("mp3")}
	snk := &fakeSink{err: errors.New("read-only filesystem")}
	sfxTools := NewSFXTools(zerolog.Nop(), proxy, snk)

	_, err := sfxTools.HandleGenerate(context.Background(), callRequest(map[string]any{"text": "hiss"}))
	if err == nil {
		t.Fatal("Expected protocol-level error for sink failure")
	}
}

func TestHandleGenerateIntegerDuration(t *testing.T) {
	proxy := &fakeProxy{audio: []byte("mp3")}
	sfxTools := NewSFXTools(zerolog.Nop(), proxy, &fakeSink{path: "/tmp/x.mp3"})

	_, err := sfxTools.HandleGenerate(context.Background(), callRequest(map[string]any{
		"text":             "hiss",
		"duration_seconds": 3,
	}))
	if err != nil {
		t.Fatalf("HandleGenerate failed: %v", err)
	}
	if proxy.lastReq.DurationSeconds == nil || *proxy.lastReq.DurationSeconds != 3.0 {
		t.Errorf("duration = %v, want 3.0", proxy.lastReq.DurationSeconds)
	}
}
