// Package sink writes generated audio to disk, handling default locations,
// default filenames, and collision-avoiding version suffixes.
package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultExtension = ".mp3"

// Sink writes audio files under a default directory unless the caller
// supplies one.
type Sink struct {
	logger     zerolog.Logger
	defaultDir string
}

// New creates a sink that falls back to defaultDir when no target directory
// is given.
func New(logger zerolog.Logger, defaultDir string) *Sink {
	return &Sink{
		logger:     logger.With().Str("component", "sink").Logger(),
		defaultDir: defaultDir,
	}
}

// Write stores audio under dir/filename and returns the absolute path of the
// written file. An empty dir falls back to the sink's default directory. An
// empty filename gets a unique generated name; a filename without an
// extension gets ".mp3" appended. When the target already exists, "_v2",
// "_v3", ... are appended before the extension until a free name is found.
func (s *Sink) Write(dir, filename string, audio []byte) (string, error) {
	if dir == "" {
		dir = s.defaultDir
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if filename == "" {
		filename = fmt.Sprintf("sfx_%s%s", uuid.New().String(), defaultExtension)
	} else if filepath.Ext(filename) == "" {
		filename += defaultExtension
	}

	path := nextFreePath(absDir, filename)
	if err := os.WriteFile(path, audio, 0o600); err != nil {
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}

	s.logger.Info().Str("path", path).Int("bytes", len(audio)).Msg("Wrote audio file")
	return path, nil
}

// nextFreePath resolves filename collisions by appending _v2, _v3, ...
// before the extension.
func nextFreePath(dir, filename string) string {
	path := filepath.Join(dir, filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	for version := 2; ; version++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_v%d%s", base, version, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
