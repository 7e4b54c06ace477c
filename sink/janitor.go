package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Janitor periodically removes generated audio files from the default temp
// directory once they exceed a maximum age. Files written to caller-supplied
// directories are never touched.
type Janitor struct {
	logger zerolog.Logger
	dir    string
	maxAge time.Duration
	cron   *cron.Cron
}

// NewJanitor creates a janitor pruning files older than maxAge from dir on
// the given cron schedule (5-field expressions or descriptors like
// "@hourly").
func NewJanitor(logger zerolog.Logger, dir string, maxAge time.Duration, schedule string) (*Janitor, error) {
	j := &Janitor{
		logger: logger.With().Str("component", "janitor").Logger(),
		dir:    dir,
		maxAge: maxAge,
		cron:   cron.New(),
	}

	if _, err := j.cron.AddFunc(schedule, j.prune); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start begins running the cleanup schedule in its own goroutine.
func (j *Janitor) Start() {
	j.logger.Info().Str("dir", j.dir).Dur("max_age", j.maxAge).Msg("Starting temp file janitor")
	j.cron.Start()
}

// Stop stops the schedule. A prune already in flight runs to completion.
func (j *Janitor) Stop() {
	j.cron.Stop()
}

// prune removes expired files. Errors on individual files are logged and
// skipped so one bad entry cannot stall cleanup.
func (j *Janitor) prune() {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			j.logger.Warn().Err(err).Str("dir", j.dir).Msg("Failed to read temp directory")
		}
		return
	}

	cutoff := time.Now().Add(-j.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			j.logger.Warn().Err(err).Str("name", entry.Name()).Msg("Failed to stat temp file")
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			j.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove expired temp file")
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.Info().Int("removed", removed).Str("dir", j.dir).Msg("Pruned expired temp files")
	}
}
