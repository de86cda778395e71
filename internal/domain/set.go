package domain

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
	"bufio"
	"io"
	"sort"
)

// EmptyPlaceholder is written instead of domain lines when a source
// yielded no root domains. An empty result is distinct from an error and
// callers may grep for this marker.
const EmptyPlaceholder = "# no domains found"

// Set is a deduplicated collection of root domains. Insertion order is
// irrelevant; uniqueness and sorted serialization are the only invariants.
// The zero value is not usable, construct with NewSet.
type Set struct {
	members map[string]struct{}
}

// NewSet returns an empty root-domain set.
func NewSet() *Set {
	return &Set{members: make(map[string]struct{})}
}

// Add normalizes candidate and merges the result into the set. It reports
// whether the candidate was accepted; rejected candidates leave the set
// untouched.
func (s *Set) Add(candidate string) bool {
	root, ok := Normalize(candidate)
	if !ok {
		return false
	}
	s.members[root] = struct{}{}
	return true
}

// Len returns the number of unique root domains held.
func (s *Set) Len() int { return len(s.members) }

// Sorted returns the members in ascending lexicographic order.
func (s *Set) Sorted() []string {
	out := make([]string, 0, len(s.members))
	for d := range s.members {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// WriteTo serializes the set as newline-delimited UTF-8, one root domain
// per line in sorted order. An empty set writes the placeholder marker
// line instead. Implements io.WriterTo.
func (s *Set) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64

	if s.Len() == 0 {
		n, err := bw.WriteString(EmptyPlaceholder + "\n")
		written += int64(n)
		if err != nil {
			return written, err
		}
		return written, bw.Flush()
	}

	for _, d := range s.Sorted() {
		n, err := bw.WriteString(d + "\n")
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, bw.Flush()
}
