/*
unirun — batch recon automation and root-domain extraction in Go
Copyright (C) 2026  trinity999

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package core

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trinity999/UniRun/internal/domain"
	"github.com/trinity999/UniRun/internal/metrics"
	"github.com/trinity999/UniRun/internal/util"
)

// ExtractorConfig holds operational parameters for the extraction
// pipeline.
type ExtractorConfig struct {
	// OutputDir receives one root-domain list per source file.
	OutputDir string
	// BufferSize is the bufio.Writer size for output files.
	BufferSize int
	// CompressOutput gzips the output lists.
	CompressOutput bool
	// MaxWorkers caps scheduler workers. Zero means auto.
	MaxWorkers int
}

// ExtractorStats uses atomic counters for safe concurrent updates from
// workers.
type ExtractorStats struct {
	TotalSources       atomic.Int64
	ProcessedSources   atomic.Int64
	FailedSources      atomic.Int64
	EmptySources       atomic.Int64
	DomainsFound       atomic.Int64
	OutputBytesWritten atomic.Int64
	StartTime          time.Time
}

// Extractor fans source files (CSV or free text) out over the scheduler,
// builds one root-domain set per source, and writes each set to a sorted,
// deduplicated list file. Per-source work shares no mutable state, so the
// only coordination is the scheduler's WaitGroup.
type Extractor struct {
	scheduler *Scheduler
	config    *ExtractorConfig
	stats     *ExtractorStats
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewExtractor initializes the extraction pipeline, including the core
// scheduler.
func NewExtractor(ctx context.Context, config *ExtractorConfig) (*Extractor, error) {
	scheduler, err := NewScheduler(ctx, config.MaxWorkers)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultDiskBufferSize
	}

	extractorCtx, cancel := context.WithCancel(ctx)

	return &Extractor{
		scheduler: scheduler,
		config:    config,
		stats:     &ExtractorStats{StartTime: time.Now()},
		ctx:       extractorCtx,
		cancel:    cancel,
	}, nil
}

// ExtractSources processes every given source file and blocks until all
// output lists are written. A source yielding zero domains is counted but
// is not an error; only unreadable sources and write failures are.
func (ex *Extractor) ExtractSources(sources []string) error {
	ex.stats.TotalSources.Store(int64(len(sources)))
	log.Info().Int("sources", len(sources)).Str("output", ex.config.OutputDir).Msg("starting domain extraction")

	if err := os.MkdirAll(ex.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %q: %w", ex.config.OutputDir, err)
	}

	for _, src := range sources {
		if ex.ctx.Err() != nil {
			break
		}
		if err := ex.scheduler.WaitForSlot(ex.ctx, src); err != nil {
			break
		}

		submitted := false
		for attempt := 0; attempt < MaxSubmitRetries; attempt++ {
			err := ex.scheduler.SubmitWork(ex.ctx, src, src, ex.extractCallback)
			if err == nil {
				submitted = true
				break
			}
			if !errors.Is(err, ErrQueueFull) {
				break
			}
			select {
			case <-time.After(SubmitRetryDelay):
			case <-ex.ctx.Done():
				attempt = MaxSubmitRetries
			}
		}
		if !submitted {
			ex.stats.FailedSources.Add(1)
			log.Warn().Str("source", src).Msg("dropped source after submit retries")
		}
	}

	ex.scheduler.Wait()
	ex.Shutdown()

	if ex.ctx.Err() != nil {
		return ex.ctx.Err()
	}
	return nil
}

// extractCallback processes one source file end to end: read, build the
// set, write the sorted list.
func (ex *Extractor) extractCallback(item *WorkItem) error {
	src := item.Path
	start := time.Now()

	if item.Ctx != nil && item.Ctx.Err() != nil {
		// Queued behind a cancellation; left for a rerun.
		return nil
	}

	raw, err := os.ReadFile(src)
	if err != nil {
		ex.stats.FailedSources.Add(1)
		log.Error().Str("source", src).Err(err).Msg("failed to read source")
		return fmt.Errorf("reading source %s: %w", src, err)
	}

	var set *domain.Set
	if strings.EqualFold(filepath.Ext(src), ".csv") {
		set, err = domain.BuildFromCSV(string(raw))
		if err != nil {
			ex.stats.FailedSources.Add(1)
			log.Error().Str("source", src).Err(err).Msg("failed to parse source")
			return fmt.Errorf("parsing source %s: %w", src, err)
		}
	} else {
		set = domain.BuildFromText(string(raw))
	}

	written, err := ex.writeSet(src, set)
	if err != nil {
		ex.stats.FailedSources.Add(1)
		log.Error().Str("source", src).Err(err).Msg("failed to write output")
		return err
	}

	ex.stats.ProcessedSources.Add(1)
	ex.stats.DomainsFound.Add(int64(set.Len()))
	ex.stats.OutputBytesWritten.Add(written)
	if set.Len() == 0 {
		ex.stats.EmptySources.Add(1)
	}
	metrics.ObserveExtraction(set.Len(), time.Since(start))

	log.Info().
		Str("source", src).
		Int("domains", set.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("source processed")
	return nil
}

// writeSet serializes one source's set into OutputDir. Output goes to a
// temp file first and is renamed into place so a cancelled run never
// leaves a truncated list behind.
func (ex *Extractor) writeSet(src string, set *domain.Set) (int64, error) {
	name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	filename := fmt.Sprintf("%s_roots.txt", util.SanitizeFilename(name))
	if ex.config.CompressOutput {
		filename += ".gz"
	}
	finalPath := filepath.Join(ex.config.OutputDir, filename)
	tmpPath := finalPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("creating output file %s: %w", tmpPath, err)
	}

	var written int64
	if ex.config.CompressOutput {
		gz, _ := gzip.NewWriterLevel(f, gzip.BestSpeed)
		w := bufio.NewWriterSize(gz, ex.config.BufferSize)
		written, err = set.WriteTo(w)
		if err == nil {
			err = w.Flush()
		}
		if cerr := gz.Close(); err == nil {
			err = cerr
		}
	} else {
		w := bufio.NewWriterSize(f, ex.config.BufferSize)
		written, err = set.WriteTo(w)
		if err == nil {
			err = w.Flush()
		}
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("writing output file %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return 0, fmt.Errorf("finalizing output file %s: %w", finalPath, err)
	}
	return written, nil
}

// Shutdown cancels outstanding work. Safe to call more than once.
func (ex *Extractor) Shutdown() {
	ex.cancel()
	if ex.scheduler != nil {
		ex.scheduler.Shutdown()
	}
}

// GetStats returns the live counters for this extraction run.
func (ex *Extractor) GetStats() *ExtractorStats { return ex.stats }
