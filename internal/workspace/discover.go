/*
Package workspace handles the on-disk layout of client directories:
discovering which folders are processable and tidying their loose files
into temp subfolders.
*/
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
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Discover resolves the set of directories a batch run operates on,
// returned in sorted order.
//
// When names is non-empty every name must exist as a directory under
// base; a missing one is an error rather than a silent skip, since an
// explicitly requested target that is absent means the run was
// misconfigured. When names is empty the tree under base is walked and
// every directory containing marker is selected. An empty marker selects
// the immediate subdirectories of base.
func Discover(base string, names []string, marker string) ([]string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolving base directory: %w", err)
	}

	if len(names) > 0 {
		dirs := make([]string, 0, len(names))
		for _, name := range names {
			dir := filepath.Join(absBase, name)
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				return nil, fmt.Errorf("requested directory %q not found under %s", name, absBase)
			}
			dirs = append(dirs, dir)
		}
		sort.Strings(dirs)
		return dirs, nil
	}

	if marker == "" {
		entries, err := os.ReadDir(absBase)
		if err != nil {
			return nil, fmt.Errorf("reading base directory: %w", err)
		}
		var dirs []string
		for _, e := range entries {
			if e.IsDir() {
				dirs = append(dirs, filepath.Join(absBase, e.Name()))
			}
		}
		sort.Strings(dirs)
		return dirs, nil
	}

	var dirs []string
	err = filepath.WalkDir(absBase, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if _, statErr := os.Stat(filepath.Join(path, marker)); statErr == nil {
			dirs = append(dirs, path)
			// Marker directories are leaves; nothing nested below them
			// is processed independently.
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", absBase, err)
	}
	sort.Strings(dirs)
	return dirs, nil
}
