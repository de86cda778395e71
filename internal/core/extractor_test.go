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
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/trinity999/UniRun/internal/domain"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
	return path
}

func TestExtractSources(t *testing.T) {
	t.Parallel()
	srcDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "roots")

	csvSrc := writeSource(t, srcDir, "hackerone.csv",
		"identifier,domain,severity\n"+
			"1,www.acme.com,high\n"+
			"2,*.api.acme.com,low\n"+
			"3,shop.globex.co.uk,medium\n")
	txtSrc := writeSource(t, srcDir, "notes.txt",
		"found https://dev.initech.com/login during recon\n"+
			"also initech.com and 10.0.0.1 showed up\n")

	extractor, err := NewExtractor(context.Background(), &ExtractorConfig{
		OutputDir: outDir,
	})
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	defer extractor.Shutdown()

	if err := extractor.ExtractSources([]string{csvSrc, txtSrc}); err != nil {
		t.Fatalf("ExtractSources: %v", err)
	}

	stats := extractor.GetStats()
	if stats.ProcessedSources.Load() != 2 {
		t.Errorf("ProcessedSources = %d, want 2", stats.ProcessedSources.Load())
	}
	if stats.FailedSources.Load() != 0 {
		t.Errorf("FailedSources = %d, want 0", stats.FailedSources.Load())
	}
	if stats.DomainsFound.Load() != 3 {
		t.Errorf("DomainsFound = %d, want 3 (acme.com, globex.co.uk, initech.com)", stats.DomainsFound.Load())
	}

	data, err := os.ReadFile(filepath.Join(outDir, "hackerone_roots.txt"))
	if err != nil {
		t.Fatalf("reading CSV output: %v", err)
	}
	if got, want := string(data), "acme.com\nglobex.co.uk\n"; got != want {
		t.Errorf("CSV output = %q, want %q", got, want)
	}

	data, err = os.ReadFile(filepath.Join(outDir, "notes_roots.txt"))
	if err != nil {
		t.Fatalf("reading text output: %v", err)
	}
	if got, want := string(data), "initech.com\n"; got != want {
		t.Errorf("text output = %q, want %q", got, want)
	}
}

func TestExtractEmptySourceWritesPlaceholder(t *testing.T) {
	t.Parallel()
	srcDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "roots")

	src := writeSource(t, srcDir, "empty.txt", "nothing domain-shaped here\n")

	extractor, err := NewExtractor(context.Background(), &ExtractorConfig{OutputDir: outDir})
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	defer extractor.Shutdown()

	if err := extractor.ExtractSources([]string{src}); err != nil {
		t.Fatalf("ExtractSources: %v", err)
	}
	if got := extractor.GetStats().EmptySources.Load(); got != 1 {
		t.Errorf("EmptySources = %d, want 1", got)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "empty_roots.txt"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), domain.EmptyPlaceholder) {
		t.Errorf("empty output = %q, want placeholder %q", data, domain.EmptyPlaceholder)
	}
}

func TestExtractCompressedOutput(t *testing.T) {
	t.Parallel()
	srcDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "roots")

	src := writeSource(t, srcDir, "list.txt", "a.example.com\nb.example.com\n")

	extractor, err := NewExtractor(context.Background(), &ExtractorConfig{
		OutputDir:      outDir,
		CompressOutput: true,
	})
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	defer extractor.Shutdown()

	if err := extractor.ExtractSources([]string{src}); err != nil {
		t.Fatalf("ExtractSources: %v", err)
	}

	f, err := os.Open(filepath.Join(outDir, "list_roots.txt.gz"))
	if err != nil {
		t.Fatalf("opening compressed output: %v", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("decompressing output: %v", err)
	}
	if got, want := string(data), "example.com\n"; got != want {
		t.Errorf("decompressed output = %q, want %q", got, want)
	}
}

func TestExtractUnreadableSourceCounted(t *testing.T) {
	t.Parallel()
	outDir := filepath.Join(t.TempDir(), "roots")

	extractor, err := NewExtractor(context.Background(), &ExtractorConfig{OutputDir: outDir})
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	defer extractor.Shutdown()

	missing := filepath.Join(t.TempDir(), "missing.csv")
	if err := extractor.ExtractSources([]string{missing}); err != nil {
		t.Fatalf("ExtractSources: %v", err)
	}
	if got := extractor.GetStats().FailedSources.Load(); got != 1 {
		t.Errorf("FailedSources = %d, want 1", got)
	}
}
