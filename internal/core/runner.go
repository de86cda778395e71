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
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trinity999/UniRun/internal/metrics"
	"github.com/trinity999/UniRun/internal/workspace"
)

// RunConfig holds operational parameters for a batch run.
type RunConfig struct {
	// BaseDir is the directory holding client folders.
	BaseDir string
	// Dirs optionally names the subfolders to process. When empty the
	// runner discovers leaf directories containing Marker under BaseDir.
	Dirs []string
	// Marker is the filename that identifies a processable directory.
	Marker string
	// Command is the shell command template. {dir} expands to the
	// directory's absolute path, {name} to its base name. The command
	// always executes with the directory as its working directory.
	Command string
	// Shell is the interpreter the template is passed to via -c.
	Shell string
	// DryRun prints the commands without executing them.
	DryRun bool
	// ContinueOnError keeps going after a failed command instead of
	// cancelling the remaining work.
	ContinueOnError bool
	// Verbose streams command output to the console.
	Verbose bool
	// LogFile, when set, receives the combined output of every command.
	LogFile string
	// Timeout bounds a single command. Zero means DefaultCommandTimeout.
	Timeout time.Duration
	// MaxWorkers caps scheduler workers. Zero means auto.
	MaxWorkers int
}

// RunStats uses atomic counters so workers can update them without lock
// contention. Counters are per-run accumulator state, never process-wide.
type RunStats struct {
	Total     atomic.Int64
	Succeeded atomic.Int64
	Failed    atomic.Int64
	Skipped   atomic.Int64
	StartTime time.Time
}

// ExitCode maps the tally to the process exit status: 0 when everything
// succeeded, 1 when one or more commands failed.
func (s *RunStats) ExitCode() int {
	if s.Failed.Load() > 0 {
		return 1
	}
	return 0
}

// BatchRunner executes a shell command template across a set of client
// directories, dispatching one work item per directory through the shard
// scheduler and tallying the outcomes.
type BatchRunner struct {
	scheduler *Scheduler
	config    *RunConfig
	stats     *RunStats
	ctx       context.Context
	cancel    context.CancelFunc

	logMu     sync.Mutex
	logWriter *bufio.Writer
	logFile   *os.File
}

// NewBatchRunner validates prerequisites and initializes the runner and
// its scheduler. Validation failures wrap ErrPrerequisites so the CLI can
// exit with code 2 before any command runs.
func NewBatchRunner(ctx context.Context, config *RunConfig) (*BatchRunner, error) {
	if strings.TrimSpace(config.Command) == "" {
		return nil, fmt.Errorf("%w: empty command template", ErrPrerequisites)
	}
	info, err := os.Stat(config.BaseDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: base directory %q not accessible", ErrPrerequisites, config.BaseDir)
	}
	if config.Shell == "" {
		config.Shell = "sh"
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultCommandTimeout
	}

	scheduler, err := NewScheduler(ctx, config.MaxWorkers)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	runnerCtx, cancel := context.WithCancel(ctx)

	br := &BatchRunner{
		scheduler: scheduler,
		config:    config,
		stats:     &RunStats{StartTime: time.Now()},
		ctx:       runnerCtx,
		cancel:    cancel,
	}

	if config.LogFile != "" {
		f, err := os.OpenFile(config.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			cancel()
			scheduler.Shutdown()
			return nil, fmt.Errorf("%w: cannot open log file %q", ErrPrerequisites, config.LogFile)
		}
		br.logFile = f
		br.logWriter = bufio.NewWriterSize(f, DefaultDiskBufferSize)
	}

	return br, nil
}

// Run discovers the target directories and executes the command template
// in each of them. Blocking: returns once every dispatched command has
// finished or the run is cancelled.
func (br *BatchRunner) Run() error {
	dirs, err := workspace.Discover(br.config.BaseDir, br.config.Dirs, br.config.Marker)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPrerequisites, err)
	}
	if len(dirs) == 0 {
		return fmt.Errorf("%w: no matching directories under %s", ErrPrerequisites, br.config.BaseDir)
	}

	br.stats.Total.Store(int64(len(dirs)))
	log.Info().Int("dirs", len(dirs)).Str("base", br.config.BaseDir).Msg("starting batch run")

	for _, dir := range dirs {
		if br.ctx.Err() != nil {
			// Remaining directories were never attempted.
			br.stats.Skipped.Add(1)
			continue
		}

		if err := br.scheduler.WaitForSlot(br.ctx, dir); err != nil {
			br.stats.Skipped.Add(1)
			continue
		}

		submitted := false
		for attempt := 0; attempt < MaxSubmitRetries; attempt++ {
			err := br.scheduler.SubmitWork(br.ctx, dir, dir, br.runCallback)
			if err == nil {
				submitted = true
				break
			}
			if !errors.Is(err, ErrQueueFull) {
				break
			}
			select {
			case <-time.After(SubmitRetryDelay):
			case <-br.ctx.Done():
				attempt = MaxSubmitRetries
			}
		}
		if !submitted {
			log.Warn().Str("dir", dir).Msg("dropped directory after submit retries")
			br.stats.Skipped.Add(1)
		}
	}

	br.scheduler.Wait()
	br.Shutdown()

	if br.ctx.Err() != nil && !br.config.ContinueOnError && br.stats.Failed.Load() > 0 {
		return ErrRunCancelled
	}
	return nil
}

// runCallback executes the expanded command in a single directory. It is
// invoked from scheduler workers, so everything it touches is either
// local, atomic, or mutex-guarded.
func (br *BatchRunner) runCallback(item *WorkItem) error {
	dir := item.Path
	command := br.expand(dir)

	if item.Ctx != nil && item.Ctx.Err() != nil {
		// Queued behind a failure that cancelled the run.
		br.stats.Skipped.Add(1)
		return nil
	}

	if br.config.DryRun {
		fmt.Printf("[dry-run] (%s) %s\n", filepath.Base(dir), command)
		br.stats.Skipped.Add(1)
		return nil
	}

	ctx := item.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	cmdCtx, cancel := context.WithTimeout(ctx, br.config.Timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(cmdCtx, br.config.Shell, "-c", command)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "failed"
	}
	metrics.ObserveCommand(filepath.Base(dir), status, elapsed)

	br.appendLog(dir, command, output, err)

	if br.config.Verbose && len(output) > 0 {
		fmt.Printf("--- %s\n%s", filepath.Base(dir), output)
	}

	if err != nil {
		br.stats.Failed.Add(1)
		log.Error().Str("dir", dir).Dur("elapsed", elapsed).Err(err).Msg("command failed")
		if !br.config.ContinueOnError {
			br.cancel()
		}
		return fmt.Errorf("command failed in %s: %w", dir, err)
	}

	br.stats.Succeeded.Add(1)
	log.Info().Str("dir", dir).Dur("elapsed", elapsed).Msg("command succeeded")
	return nil
}

// expand substitutes the {dir} and {name} placeholders in the template.
func (br *BatchRunner) expand(dir string) string {
	command := strings.ReplaceAll(br.config.Command, "{dir}", dir)
	return strings.ReplaceAll(command, "{name}", filepath.Base(dir))
}

func (br *BatchRunner) appendLog(dir, command string, output []byte, err error) {
	if br.logWriter == nil {
		return
	}
	br.logMu.Lock()
	defer br.logMu.Unlock()

	fmt.Fprintf(br.logWriter, "=== %s | %s | %s\n", time.Now().Format(time.RFC3339), dir, command)
	br.logWriter.Write(output)
	if err != nil {
		fmt.Fprintf(br.logWriter, "!!! error: %v\n", err)
	}
}

// Shutdown cancels outstanding work and flushes the run log. Safe to call
// more than once.
func (br *BatchRunner) Shutdown() {
	br.cancel()
	if br.scheduler != nil {
		br.scheduler.Shutdown()
	}

	br.logMu.Lock()
	defer br.logMu.Unlock()
	if br.logWriter != nil {
		if err := br.logWriter.Flush(); err != nil {
			log.Error().Err(err).Msg("flushing run log")
		}
		br.logWriter = nil
	}
	if br.logFile != nil {
		if err := br.logFile.Close(); err != nil {
			log.Error().Err(err).Msg("closing run log")
		}
		br.logFile = nil
	}
}

// GetStats returns the live counters for this run.
func (br *BatchRunner) GetStats() *RunStats { return br.stats }
