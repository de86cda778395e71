package workspace

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
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// TempDirName is the subfolder loose files are tidied into.
const TempDirName = "temp"

// TidyResult is the per-directory accumulator for a tidy pass.
type TidyResult struct {
	Moved   int
	Skipped int
}

// Tidy moves every loose regular file in dir into dir/temp, leaving
// subdirectories, dotfiles and the marker file in place. The marker names
// the directory as a processable client folder and tools expect it at the
// top level, so it never moves.
func Tidy(dir, marker string) (TidyResult, error) {
	var res TidyResult

	entries, err := os.ReadDir(dir)
	if err != nil {
		return res, fmt.Errorf("reading %s: %w", dir, err)
	}

	tempDir := filepath.Join(dir, TempDirName)
	created := false

	for _, e := range entries {
		if e.IsDir() {
			res.Skipped++
			continue
		}
		name := e.Name()
		if name == marker || name[0] == '.' {
			res.Skipped++
			continue
		}

		if !created {
			if err := os.MkdirAll(tempDir, 0755); err != nil {
				return res, fmt.Errorf("creating %s: %w", tempDir, err)
			}
			created = true
		}

		src := filepath.Join(dir, name)
		dst := filepath.Join(tempDir, name)
		if err := os.Rename(src, dst); err != nil {
			return res, fmt.Errorf("moving %s: %w", src, err)
		}
		res.Moved++
		log.Debug().Str("file", src).Str("dest", dst).Msg("tidied file")
	}

	return res, nil
}

// TidyAll runs Tidy over every discovered directory and aggregates the
// result. Per-directory failures do not stop the pass; the first error is
// reported after all directories were attempted.
func TidyAll(base string, names []string, marker string) (TidyResult, error) {
	dirs, err := Discover(base, names, marker)
	if err != nil {
		return TidyResult{}, err
	}

	var total TidyResult
	var firstErr error
	for _, dir := range dirs {
		res, err := Tidy(dir, marker)
		total.Moved += res.Moved
		total.Skipped += res.Skipped
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return total, firstErr
}
