/*
Package main is the entry point for the unirun command-line application.

unirun is a batch automation tool for reconnaissance workflows over a
tree of locally-stored client directories. Its primary functionalities
include:
  - Running a shell command template across every client directory that
    carries a marker file, with success/failure/skip tallies and
    deterministic exit codes.
  - Extracting canonical root domains from CSV and text scope exports and
    writing one sorted, deduplicated list per source.
  - Unpacking scope-export ZIP archives in place.
  - Tidying loose files in client directories into temp subfolders.

The application uses the Cobra library for command-line interface
structure and flag parsing. It leverages several internal packages:
  - `internal/domain`: the root-domain normalizer and set builder.
  - `internal/core`: the shard scheduler, batch runner and extraction
    pipeline.
  - `internal/workspace`: marker-file discovery and tidying.
  - `internal/archive`: ZIP extraction.
  - `internal/metrics`: optional Prometheus metrics exposition.

Graceful shutdown is handled via context cancellation triggered by OS
signals (SIGINT, SIGTERM). Exit codes: 0 all succeeded, 1 one or more
failures, 2 prerequisites unmet.
*/
package main

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

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/trinity999/UniRun/internal/archive"
	"github.com/trinity999/UniRun/internal/config"
	"github.com/trinity999/UniRun/internal/core"
	"github.com/trinity999/UniRun/internal/logger"
	"github.com/trinity999/UniRun/internal/metrics"
	"github.com/trinity999/UniRun/internal/workspace"
)

// Global flags (persistent across commands)
var (
	enableMetrics bool
	metricsPort   int
)

// Flags specific to the run command
var (
	runBaseDir    string
	runDirs       []string
	runMarker     string
	runCommand    string
	runShell      string
	runDryRun     bool
	runContinue   bool
	runVerbose    bool
	runLogFile    string
	runTimeout    time.Duration
	runMaxWorkers int
)

// Flags specific to the extract command
var (
	extractInputs   []string
	extractInputDir string
	extractOutput   string
	extractBuffer   int
	extractCompress bool
	extractStats    bool
)

// Flags shared by the unzip and tidy commands
var (
	fsBaseDir string
	fsMarker  string
	fsDirs    []string
)

var rootCmd = &cobra.Command{
	Use:   "unirun",
	Short: "unirun - batch command runner and root-domain extractor for recon workspaces",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := config.InitConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
			os.Exit(2)
		}
		logger.InitializeLogger()

		cfg := config.GetConfig()
		if enableMetrics || cfg.Metrics.Enabled {
			metrics.EnableMetrics()
			port := metricsPort
			if port == 0 {
				port = cfg.Metrics.Port
			}
			if err := metrics.StartMetricsServer(fmt.Sprintf(":%d", port)); err != nil {
				log.Error().Err(err).Msg("failed to start metrics server")
			}
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a shell command template in every client directory",
	Long: `Runs a shell command template once per client directory. Directories are
either named explicitly with --dir, or discovered by walking --base for
folders that contain the marker file. The template may reference {dir}
(absolute path) and {name} (folder name); it always executes with the
directory as its working directory.

Exit codes: 0 all commands succeeded, 1 one or more failed, 2 the run
could not start (missing base directory, empty template, unknown --dir).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch()
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract root domains from CSV/TXT sources into sorted list files",
	Long: `Extracts registrable root domains from scope exports. CSV sources are
scanned column-wise (headers matching domain/scope/asset/target/url/host
heuristics); text sources and CSVs without a matching column fall back to
a domain-shaped pattern scan. Each source produces one deduplicated,
sorted output list; sources with no domains produce a placeholder line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract()
	},
}

var unzipCmd = &cobra.Command{
	Use:   "unzip",
	Short: "Extract every ZIP archive under the base directory in place",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUnzip()
	},
}

var tidyCmd = &cobra.Command{
	Use:   "tidy",
	Short: "Move loose files in each client directory into a temp subfolder",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTidy()
	},
}

func init() {
	// Persistent flags (available for all commands)
	rootCmd.PersistentFlags().BoolVar(&enableMetrics, "metrics", false, "Expose Prometheus metrics while running")
	rootCmd.PersistentFlags().IntVar(&metricsPort, "metrics-port", 0, "Prometheus metrics port (0 for config default)")

	// Flags for the run command
	runCmd.Flags().StringVarP(&runBaseDir, "base", "b", ".", "Base directory holding client folders")
	runCmd.Flags().StringSliceVarP(&runDirs, "dir", "d", nil, "Client folder name(s) to process (repeatable; default: discover by marker)")
	runCmd.Flags().StringVarP(&runMarker, "marker", "m", "", "Marker filename identifying processable directories (default from config)")
	runCmd.Flags().StringVarP(&runCommand, "cmd", "c", "", "Shell command template to execute ({dir}, {name} placeholders)")
	runCmd.Flags().StringVar(&runShell, "shell", "", "Shell interpreter (default from config)")
	runCmd.Flags().BoolVarP(&runDryRun, "dry-run", "n", false, "Print commands without executing them")
	runCmd.Flags().BoolVarP(&runContinue, "continue-on-error", "k", false, "Keep going after a failed command")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Stream command output to the console")
	runCmd.Flags().StringVarP(&runLogFile, "log-file", "l", "", "Append combined command output to this file")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Per-command timeout (default from config)")
	runCmd.Flags().IntVarP(&runMaxWorkers, "concurrency", "j", 0, "Maximum concurrent commands (0 for auto based on CPU)")

	// Flags for the extract command
	extractCmd.Flags().StringSliceVarP(&extractInputs, "input", "i", nil, "Source file(s) to extract from (repeatable)")
	extractCmd.Flags().StringVarP(&extractInputDir, "input-dir", "I", "", "Directory scanned recursively for .csv and .txt sources")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Output directory for root-domain lists (default from config)")
	extractCmd.Flags().IntVar(&extractBuffer, "buffer", 0, "Internal buffer size in bytes for disk I/O (default from config)")
	extractCmd.Flags().BoolVar(&extractCompress, "compress", false, "Compress output lists with gzip")
	extractCmd.Flags().BoolVarP(&extractStats, "stats", "s", true, "Show statistics during processing")

	// Flags for the unzip and tidy commands
	for _, cmd := range []*cobra.Command{unzipCmd, tidyCmd} {
		cmd.Flags().StringVarP(&fsBaseDir, "base", "b", ".", "Base directory to operate on")
	}
	tidyCmd.Flags().StringVarP(&fsMarker, "marker", "m", "", "Marker filename identifying client directories (default from config)")
	tidyCmd.Flags().StringSliceVarP(&fsDirs, "dir", "d", nil, "Client folder name(s) to tidy (repeatable)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(unzipCmd)
	rootCmd.AddCommand(tidyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, core.ErrPrerequisites) {
			color.Red("Error: %v", err)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("interrupt received, initiating graceful shutdown")
		cancel()
	}()
	return ctx, cancel
}

// runBatch is the handler for the 'run' command.
func runBatch() error {
	cfg := config.GetConfig()
	marker := runMarker
	if marker == "" {
		marker = cfg.Runner.Marker
	}
	shell := runShell
	if shell == "" {
		shell = cfg.Runner.Shell
	}
	timeout := runTimeout
	if timeout == 0 {
		timeout = cfg.Runner.Timeout
	}
	maxWorkers := runMaxWorkers
	if maxWorkers == 0 {
		maxWorkers = cfg.Runner.MaxWorkers
	}

	ctx, cancel := signalContext()
	defer cancel()

	runner, err := core.NewBatchRunner(ctx, &core.RunConfig{
		BaseDir:         runBaseDir,
		Dirs:            runDirs,
		Marker:          marker,
		Command:         runCommand,
		Shell:           shell,
		DryRun:          runDryRun,
		ContinueOnError: runContinue,
		Verbose:         runVerbose,
		LogFile:         runLogFile,
		Timeout:         timeout,
		MaxWorkers:      maxWorkers,
	})
	if err != nil {
		return err
	}
	defer runner.Shutdown()

	var statsWg sync.WaitGroup
	if !runVerbose && !runDryRun {
		statsWg.Add(1)
		go func() {
			defer statsWg.Done()
			displayRunStats(ctx, runner)
		}()
	}

	runErr := runner.Run()
	cancel()
	statsWg.Wait()

	displayFinalRunStats(runner)

	if runErr != nil && !errors.Is(runErr, core.ErrRunCancelled) {
		return runErr
	}
	if code := runner.GetStats().ExitCode(); code != 0 {
		os.Exit(code)
	}
	return nil
}

// displayRunStats periodically shows batch progress in place.
func displayRunStats(ctx context.Context, runner *core.BatchRunner) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			stats := runner.GetStats()
			done := stats.Succeeded.Load() + stats.Failed.Load() + stats.Skipped.Load()
			fmt.Printf("\rDirs: %d/%d | OK: %d | Failed: %d | Skipped: %d | Elapsed: %s",
				done,
				stats.Total.Load(),
				stats.Succeeded.Load(),
				stats.Failed.Load(),
				stats.Skipped.Load(),
				time.Since(stats.StartTime).Round(time.Second),
			)
		case <-ctx.Done():
			fmt.Println()
			return
		}
	}
}

// displayFinalRunStats shows the summary after a batch run.
func displayFinalRunStats(runner *core.BatchRunner) {
	stats := runner.GetStats()
	elapsed := time.Since(stats.StartTime)

	fmt.Println()
	fmt.Printf("--- Batch Run Summary ---\n")
	fmt.Printf(" Processing Time: %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("     Directories: %d\n", stats.Total.Load())
	color.Green("       Succeeded: %d", stats.Succeeded.Load())
	if failed := stats.Failed.Load(); failed > 0 {
		color.Red("          Failed: %d", failed)
	} else {
		fmt.Printf("          Failed: 0\n")
	}
	if skipped := stats.Skipped.Load(); skipped > 0 {
		color.Yellow("         Skipped: %d", skipped)
	} else {
		fmt.Printf("         Skipped: 0\n")
	}
	fmt.Printf("-------------------------\n")
}

// collectSources resolves the extract command's inputs.
func collectSources() ([]string, error) {
	var sources []string
	sources = append(sources, extractInputs...)

	if extractInputDir != "" {
		err := filepath.WalkDir(extractInputDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".csv", ".txt":
				sources = append(sources, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning input directory: %w", err)
		}
	}

	for _, src := range sources {
		if _, err := os.Stat(src); err != nil {
			return nil, fmt.Errorf("%w: source %q not readable", core.ErrPrerequisites, src)
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no input sources (use --input or --input-dir)", core.ErrPrerequisites)
	}
	sort.Strings(sources)
	return sources, nil
}

// runExtract is the handler for the 'extract' command.
func runExtract() error {
	cfg := config.GetConfig()
	output := extractOutput
	if output == "" {
		output = cfg.Extract.OutputDir
	}
	buffer := extractBuffer
	if buffer == 0 {
		buffer = cfg.Extract.BufferSize
	}

	sources, err := collectSources()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	extractor, err := core.NewExtractor(ctx, &core.ExtractorConfig{
		OutputDir:      output,
		BufferSize:     buffer,
		CompressOutput: extractCompress || cfg.Extract.Compress,
	})
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}
	defer extractor.Shutdown()

	var statsWg sync.WaitGroup
	if extractStats {
		statsWg.Add(1)
		go func() {
			defer statsWg.Done()
			displayExtractStats(ctx, extractor)
		}()
	}

	extractErr := extractor.ExtractSources(sources)
	cancel()
	statsWg.Wait()

	displayFinalExtractStats(extractor)

	if extractErr != nil && !errors.Is(extractErr, context.Canceled) {
		return extractErr
	}
	if extractor.GetStats().FailedSources.Load() > 0 {
		os.Exit(1)
	}
	return nil
}

// displayExtractStats periodically shows extraction progress in place.
func displayExtractStats(ctx context.Context, extractor *core.Extractor) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			stats := extractor.GetStats()
			fmt.Printf("\rSources: %d/%d | Domains: %d | Failed: %d | Written: %.2fKB",
				stats.ProcessedSources.Load(),
				stats.TotalSources.Load(),
				stats.DomainsFound.Load(),
				stats.FailedSources.Load(),
				float64(stats.OutputBytesWritten.Load())/1024,
			)
		case <-ctx.Done():
			fmt.Println()
			return
		}
	}
}

// displayFinalExtractStats shows the summary after extraction.
func displayFinalExtractStats(extractor *core.Extractor) {
	stats := extractor.GetStats()
	elapsed := time.Since(stats.StartTime)

	fmt.Println()
	fmt.Printf("--- Extraction Summary ---\n")
	fmt.Printf(" Processing Time: %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Total Sources: %d\n", stats.TotalSources.Load())
	fmt.Printf("       Processed: %d\n", stats.ProcessedSources.Load())
	fmt.Printf("           Empty: %d\n", stats.EmptySources.Load())
	if failed := stats.FailedSources.Load(); failed > 0 {
		color.Red("          Failed: %d", failed)
	} else {
		fmt.Printf("          Failed: 0\n")
	}
	fmt.Printf("    Root Domains: %d\n", stats.DomainsFound.Load())
	fmt.Printf("  Output Written: %.2f KB\n", float64(stats.OutputBytesWritten.Load())/1024)
	fmt.Printf("--------------------------\n")
}

// runUnzip is the handler for the 'unzip' command.
func runUnzip() error {
	if info, err := os.Stat(fsBaseDir); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: base directory %q not accessible", core.ErrPrerequisites, fsBaseDir)
	}

	res, err := archive.UnzipAll(fsBaseDir)
	fmt.Printf("Archives: %d | Files extracted: %d | Failed: %d\n", res.Archives, res.Extracted, res.Failed)
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		os.Exit(1)
	}
	return nil
}

// runTidy is the handler for the 'tidy' command.
func runTidy() error {
	cfg := config.GetConfig()
	marker := fsMarker
	if marker == "" {
		marker = cfg.Runner.Marker
	}

	if info, err := os.Stat(fsBaseDir); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: base directory %q not accessible", core.ErrPrerequisites, fsBaseDir)
	}

	res, err := workspace.TidyAll(fsBaseDir, fsDirs, marker)
	fmt.Printf("Files moved: %d | Left in place: %d\n", res.Moved, res.Skipped)
	if err != nil {
		return err
	}
	return nil
}
