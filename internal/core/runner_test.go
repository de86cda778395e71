package core

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
	"os"
	"path/filepath"
	"testing"
)

// mkClients creates base/<name> directories each holding a scope.txt
// marker and returns base.
func mkClients(t *testing.T, names ...string) string {
	t.Helper()
	base := t.TempDir()
	for _, name := range names {
		dir := filepath.Join(base, name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("MkdirAll(%s): %v", dir, err)
		}
		if err := os.WriteFile(filepath.Join(dir, "scope.txt"), []byte("example.com\n"), 0644); err != nil {
			t.Fatalf("WriteFile marker: %v", err)
		}
	}
	return base
}

func TestNewBatchRunnerPrerequisites(t *testing.T) {
	t.Parallel()
	base := mkClients(t, "acme")

	testCases := []struct {
		name   string
		config *RunConfig
	}{
		{"Empty command", &RunConfig{BaseDir: base, Command: "   ", Marker: "scope.txt"}},
		{"Missing base dir", &RunConfig{BaseDir: filepath.Join(base, "nope"), Command: "true", Marker: "scope.txt"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBatchRunner(context.Background(), tc.config)
			if !errors.Is(err, ErrPrerequisites) {
				t.Errorf("NewBatchRunner error = %v, want ErrPrerequisites", err)
			}
		})
	}
}

func TestRunNoMatchingDirs(t *testing.T) {
	t.Parallel()
	base := t.TempDir()

	runner, err := NewBatchRunner(context.Background(), &RunConfig{
		BaseDir: base,
		Command: "true",
		Marker:  "scope.txt",
	})
	if err != nil {
		t.Fatalf("NewBatchRunner: %v", err)
	}
	defer runner.Shutdown()

	if err := runner.Run(); !errors.Is(err, ErrPrerequisites) {
		t.Errorf("Run error = %v, want ErrPrerequisites", err)
	}
}

func TestRunDryRunSkipsEverything(t *testing.T) {
	t.Parallel()
	base := mkClients(t, "acme", "globex")

	runner, err := NewBatchRunner(context.Background(), &RunConfig{
		BaseDir: base,
		Command: "touch should-not-exist",
		Marker:  "scope.txt",
		DryRun:  true,
	})
	if err != nil {
		t.Fatalf("NewBatchRunner: %v", err)
	}
	defer runner.Shutdown()

	if err := runner.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	stats := runner.GetStats()
	if stats.Total.Load() != 2 {
		t.Errorf("Total = %d, want 2", stats.Total.Load())
	}
	if stats.Skipped.Load() != 2 {
		t.Errorf("Skipped = %d, want 2", stats.Skipped.Load())
	}
	if stats.Succeeded.Load() != 0 || stats.Failed.Load() != 0 {
		t.Errorf("dry run executed commands: %+v", stats)
	}
	if stats.ExitCode() != 0 {
		t.Errorf("ExitCode = %d, want 0", stats.ExitCode())
	}
	if _, err := os.Stat(filepath.Join(base, "acme", "should-not-exist")); err == nil {
		t.Error("dry run executed the command")
	}
}

func TestRunTemplateExpansion(t *testing.T) {
	t.Parallel()
	base := mkClients(t, "acme")

	runner, err := NewBatchRunner(context.Background(), &RunConfig{
		BaseDir: base,
		Command: `printf '%s' "{name}" > name.txt`,
		Marker:  "scope.txt",
		Shell:   "sh",
	})
	if err != nil {
		t.Fatalf("NewBatchRunner: %v", err)
	}
	defer runner.Shutdown()

	if err := runner.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := runner.GetStats().Succeeded.Load(); got != 1 {
		t.Fatalf("Succeeded = %d, want 1", got)
	}

	// The command runs with the client directory as its working directory,
	// so the relative path lands inside it.
	data, err := os.ReadFile(filepath.Join(base, "acme", "name.txt"))
	if err != nil {
		t.Fatalf("reading expanded output: %v", err)
	}
	if string(data) != "acme" {
		t.Errorf("{name} expanded to %q, want %q", data, "acme")
	}
}

func TestRunContinueOnError(t *testing.T) {
	t.Parallel()
	base := mkClients(t, "failing", "passing")
	if err := os.WriteFile(filepath.Join(base, "passing", "ok"), []byte("1"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	runner, err := NewBatchRunner(context.Background(), &RunConfig{
		BaseDir:         base,
		Command:         "test -f ok",
		Marker:          "scope.txt",
		ContinueOnError: true,
	})
	if err != nil {
		t.Fatalf("NewBatchRunner: %v", err)
	}
	defer runner.Shutdown()

	if err := runner.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	stats := runner.GetStats()
	if stats.Succeeded.Load() != 1 {
		t.Errorf("Succeeded = %d, want 1", stats.Succeeded.Load())
	}
	if stats.Failed.Load() != 1 {
		t.Errorf("Failed = %d, want 1", stats.Failed.Load())
	}
	if stats.ExitCode() != 1 {
		t.Errorf("ExitCode = %d, want 1", stats.ExitCode())
	}
}

func TestRunFailureCancelsRemaining(t *testing.T) {
	t.Parallel()
	base := mkClients(t, "acme")

	runner, err := NewBatchRunner(context.Background(), &RunConfig{
		BaseDir: base,
		Command: "false",
		Marker:  "scope.txt",
	})
	if err != nil {
		t.Fatalf("NewBatchRunner: %v", err)
	}
	defer runner.Shutdown()

	runErr := runner.Run()
	if runErr != nil && !errors.Is(runErr, ErrRunCancelled) {
		t.Fatalf("Run error = %v, want nil or ErrRunCancelled", runErr)
	}
	if got := runner.GetStats().Failed.Load(); got != 1 {
		t.Errorf("Failed = %d, want 1", got)
	}
}

func TestRunWritesLogFile(t *testing.T) {
	t.Parallel()
	base := mkClients(t, "acme")
	logPath := filepath.Join(t.TempDir(), "run.log")

	runner, err := NewBatchRunner(context.Background(), &RunConfig{
		BaseDir: base,
		Command: "echo hello-from-acme",
		Marker:  "scope.txt",
		LogFile: logPath,
	})
	if err != nil {
		t.Fatalf("NewBatchRunner: %v", err)
	}

	if err := runner.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	runner.Shutdown()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty after a run")
	}
}

func TestExpand(t *testing.T) {
	t.Parallel()
	br := &BatchRunner{config: &RunConfig{Command: "subfinder -dL {dir}/scope.txt -o {name}.out"}}
	got := br.expand("/work/clients/acme")
	want := "subfinder -dL /work/clients/acme/scope.txt -o acme.out"
	if got != want {
		t.Errorf("expand = %q, want %q", got, want)
	}
}
