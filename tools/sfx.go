// Package tools wires the sound effect generation pipeline into MCP tools.
package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/aschepis/sfxd/sfx"
	"github.com/aschepis/sfxd/sink"
)

// AudioSink writes audio bytes and reports the absolute path of the file.
type AudioSink interface {
	Write(dir, filename string, audio []byte) (string, error)
}

// Generator produces audio bytes for a generation request.
type Generator interface {
	Generate(ctx context.Context, req sfx.Request) ([]byte, error)
}

// SFXTools bundles the generate_sfx tool and its collaborators.
type SFXTools struct {
	logger zerolog.Logger
	proxy  Generator
	sink   AudioSink
}

// NewSFXTools creates the tool set backed by the given proxy and sink.
func NewSFXTools(logger zerolog.Logger, proxy Generator, audioSink AudioSink) *SFXTools {
	return &SFXTools{
		logger: logger.With().Str("component", "sfxTools").Logger(),
		proxy:  proxy,
		sink:   audioSink,
	}
}

// Register declares the generate_sfx tool on the MCP server.
func (t *SFXTools) Register(s *server.MCPServer) {
	tool := mcp.NewTool("generate_sfx",
		mcp.WithDescription("Generates a sound effect based on a text prompt using the ElevenLabs API and returns the path to the audio file."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The text prompt for the sound effect."),
		),
		mcp.WithNumber("duration_seconds",
			mcp.Description("Optional duration of the sound effect in seconds (0.5 to 22.0)."),
		),
		mcp.WithNumber("prompt_influence",
			mcp.Description("Optional influence of the prompt on the generation (0.0 to 1.0)."),
		),
		mcp.WithString("output_directory",
			mcp.Description("Optional directory path where the sound effect should be saved. Defaults to the configured temp directory."),
		),
		mcp.WithString("output_filename",
			mcp.Description("Optional filename for the sound effect. A _v2, _v3, ... suffix is applied if the file already exists."),
		),
	)

	s.AddTool(tool, t.HandleGenerate)
	t.logger.Info().Msg("Registered generate_sfx tool")
}

// HandleGenerate handles a generate_sfx invocation: it forwards the prompt
// and any explicitly supplied parameters to the generation proxy, writes the
// audio through the sink, and returns the absolute file path.
func (t *SFXTools) HandleGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil || text == "" {
		return mcp.NewToolResultError("Missing or invalid 'text' parameter."), nil
	}

	args := request.GetArguments()

	req := sfx.Request{Text: text}
	if duration, ok := numberArg(args, "duration_seconds"); ok {
		req.DurationSeconds = &duration
	}
	if influence, ok := numberArg(args, "prompt_influence"); ok {
		req.PromptInfluence = &influence
	}
	outputDir, _ := args["output_directory"].(string)
	outputFilename, _ := args["output_filename"].(string)

	audio, err := t.proxy.Generate(ctx, req)
	if err != nil {
		return t.errorResult(err)
	}

	path, err := t.sink.Write(outputDir, outputFilename, audio)
	if err != nil {
		t.logger.Error().Err(err).Msg("Failed to write audio file")
		return nil, fmt.Errorf("failed to write audio file: %w", err)
	}

	return mcp.NewToolResultText(path), nil
}

// errorResult catalogs a generation failure into a tool error without
// changing its kind. Parameter and classified API failures surface as tool
// errors; anything unexpected propagates as a protocol-level internal error.
func (t *SFXTools) errorResult(err error) (*mcp.CallToolResult, error) {
	var sfxErr *sfx.Error
	if !errors.As(err, &sfxErr) {
		t.logger.Error().Err(err).Msg("Unexpected error during SFX generation")
		return nil, err
	}

	switch sfxErr.Kind {
	case sfx.KindParameter:
		return mcp.NewToolResultError(fmt.Sprintf("Parameter error: %v", sfxErr)), nil
	case sfx.KindUnexpected:
		t.logger.Error().Err(err).Msg("Unexpected error during SFX generation")
		return nil, err
	default:
		t.logger.Error().Err(err).Str("kind", string(sfxErr.Kind)).Msg("ElevenLabs API interaction failed")
		return mcp.NewToolResultError(fmt.Sprintf("ElevenLabs API interaction error: %v", sfxErr)), nil
	}
}

// numberArg reads an optional numeric argument, tolerating the integer form
// some MCP clients send.
func numberArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

var _ AudioSink = (*sink.Sink)(nil)
var _ Generator = (*sfx.Proxy)(nil)
