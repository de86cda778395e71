/*
Package archive unpacks scope-export ZIP files delivered alongside client
directories.
*/
package archive

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
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// UnzipResult is the accumulator for an unzip pass.
type UnzipResult struct {
	Archives  int
	Extracted int
	Failed    int
}

// Unzip extracts src into destDir. Entries that would escape destDir
// (zip-slip) abort the extraction.
func Unzip(src, destDir string) (int, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return 0, fmt.Errorf("opening archive %s: %w", src, err)
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return 0, fmt.Errorf("creating %s: %w", destDir, err)
	}

	extracted := 0
	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return extracted, fmt.Errorf("archive %s: illegal path %q", src, f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return extracted, fmt.Errorf("creating %s: %w", target, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return extracted, fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
		}
		if err := extractFile(f, target); err != nil {
			return extracted, err
		}
		extracted++
	}
	return extracted, nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}

	_, err = io.Copy(out, rc)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("extracting %s: %w", target, err)
	}
	return nil
}

// UnzipAll walks base and extracts every .zip next to the archive, into a
// folder named after it. Per-archive failures are logged and counted;
// the walk continues.
func UnzipAll(base string) (UnzipResult, error) {
	var res UnzipResult

	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".zip") {
			return nil
		}

		res.Archives++
		destDir := strings.TrimSuffix(path, filepath.Ext(path))
		n, uerr := Unzip(path, destDir)
		res.Extracted += n
		if uerr != nil {
			res.Failed++
			log.Error().Str("archive", path).Err(uerr).Msg("extraction failed")
			return nil
		}
		log.Info().Str("archive", path).Int("files", n).Msg("archive extracted")
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("walking %s: %w", base, err)
	}
	return res, nil
}
