package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/aschepis/sfxd/config"
	sfxdlogger "github.com/aschepis/sfxd/logger"
	"github.com/aschepis/sfxd/sfx"
	"github.com/aschepis/sfxd/sink"
	"github.com/aschepis/sfxd/tools"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", config.GetConfigPath(), "Path to config file")
		logFile    = flag.String("logfile", "", "Path to log file. If not set, logs to stderr")
		pretty     = flag.Bool("pretty", false, "Use pretty console output (only valid when logfile is not set)")
	)
	flag.Parse()

	if *logFile != "" && *pretty {
		return fmt.Errorf("--logfile and --pretty are mutually exclusive")
	}

	logger, err := sfxdlogger.InitWithOptions(*logFile, *pretty)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info().Str("config", *configPath).Str("version", version).Msg("sfxd starting")

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.ElevenLabs.APIKey == "" {
		return fmt.Errorf("ELEVENLABS_API_KEY is not configured; set it in the environment or in %s", *configPath)
	}

	// Build the generation pipeline: proxy -> client -> ElevenLabs API.
	clientOpts := clientOptions(cfg)
	proxy := sfx.NewProxy(logger, cfg.ElevenLabs.APIKey, clientOpts...)
	audioSink := sink.New(logger, cfg.TempFiles.Dir)

	janitor, err := sink.NewJanitor(
		logger,
		cfg.TempFiles.Dir,
		time.Duration(cfg.TempFiles.MaxAgeHours)*time.Hour,
		cfg.TempFiles.CleanupSchedule,
	)
	if err != nil {
		return fmt.Errorf("failed to create temp file janitor: %w", err)
	}
	janitor.Start()
	defer janitor.Stop()

	mcpServer := server.NewMCPServer(
		"sfx-mcp",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions("MCP Server for generating sound effects using the ElevenLabs API."),
	)
	tools.NewSFXTools(logger, proxy, audioSink).Register(mcpServer)

	logger.Info().Msg("Serving MCP over stdio")
	if err := server.ServeStdio(mcpServer); err != nil {
		return fmt.Errorf("stdio server exited: %w", err)
	}
	return nil
}

// clientOptions translates config overrides into client options, leaving
// library defaults in place for anything unset.
func clientOptions(cfg *config.Config) []sfx.Option {
	var opts []sfx.Option

	policy := sfx.DefaultRetryPolicy()
	override := false
	if cfg.ElevenLabs.MaxRetries != nil {
		policy.MaxRetries = *cfg.ElevenLabs.MaxRetries
		override = true
	}
	if cfg.ElevenLabs.BackoffFactor != nil {
		policy.BackoffFactor = *cfg.ElevenLabs.BackoffFactor
		override = true
	}
	if override {
		opts = append(opts, sfx.WithRetryPolicy(policy))
	}

	if cfg.ElevenLabs.BaseURL != "" && cfg.ElevenLabs.BaseURL != sfx.DefaultBaseURL {
		opts = append(opts, sfx.WithGenerator(
			sfx.NewElevenLabsGenerator(cfg.ElevenLabs.APIKey, sfx.WithBaseURL(cfg.ElevenLabs.BaseURL)),
		))
	}

	return opts
}
