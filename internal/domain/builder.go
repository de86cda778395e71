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
	"encoding/csv"
	"fmt"
	"regexp"
	"strings"
)

// Column headers considered domain-bearing. Exact matches are checked
// case-insensitively first, then the substring set; "Target_URL" matches
// via substring on both "target" and "url".
var (
	exactHeaders = map[string]struct{}{
		"domain":    {},
		"scope":     {},
		"asset":     {},
		"target":    {},
		"url":       {},
		"host":      {},
		"hostname":  {},
		"subdomain": {},
	}
	headerSubstrings = []string{"domain", "scope", "asset", "target", "url", "host"}
)

// tokenSplit breaks a cell value into independent candidates. One cell may
// carry several domains separated by commas or whitespace.
var tokenSplit = regexp.MustCompile(`[\s,]+`)

// domainPattern is the free-text fallback shape: dot-separated labels of
// letters/digits/hyphens (1-63 chars, no hyphen at either end) with a final
// alphabetic label of 2+ chars. ASCII only; non-ASCII domains are simply
// never matched.
var domainPattern = regexp.MustCompile(`(?i)(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}`)

// isDomainHeader reports whether a CSV column header marks a
// domain-bearing column.
func isDomainHeader(header string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	if _, ok := exactHeaders[h]; ok {
		return true
	}
	for _, sub := range headerSubstrings {
		if strings.Contains(h, sub) {
			return true
		}
	}
	return false
}

// detectDelimiter picks the CSV delimiter from the header line. Semicolon
// wins only when it outnumbers commas, so "Domain,Notes;misc" still parses
// as comma-separated.
func detectDelimiter(headerLine string) rune {
	if strings.Count(headerLine, ";") > strings.Count(headerLine, ",") {
		return ';'
	}
	return ','
}

// BuildFromCSV extracts a root-domain set from CSV content. Columns whose
// header matches the domain-bearing heuristic contribute every token of
// every cell to the normalizer. When structured extraction accepts nothing
// (no matching column, or all tokens rejected) the raw text is rescanned
// with the free-text fallback.
//
// A result with zero domains is not an error; only malformed CSV reports
// one, and even then the fallback scan runs first so salvageable content
// still yields domains.
func BuildFromCSV(raw string) (*Set, error) {
	set := NewSet()

	lines := strings.SplitN(raw, "\n", 2)
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return set, nil
	}

	r := csv.NewReader(strings.NewReader(raw))
	r.Comma = detectDelimiter(lines[0])
	r.FieldsPerRecord = -1 // scope exports are ragged more often than not
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		// Salvage what the fallback pattern can find before reporting.
		scanText(raw, set)
		if set.Len() > 0 {
			return set, nil
		}
		return set, fmt.Errorf("parsing csv: %w", err)
	}
	if len(records) == 0 {
		return set, nil
	}

	var wanted []int
	for i, header := range records[0] {
		if isDomainHeader(header) {
			wanted = append(wanted, i)
		}
	}

	for _, row := range records[1:] {
		for _, col := range wanted {
			if col >= len(row) {
				continue
			}
			addTokens(row[col], set)
		}
	}

	if set.Len() == 0 {
		scanText(raw, set)
	}
	return set, nil
}

// BuildFromText extracts a root-domain set from a free-text blob using the
// domain-shaped pattern. Every match is fed to the normalizer; rejected
// matches are skipped silently.
func BuildFromText(raw string) *Set {
	set := NewSet()
	scanText(raw, set)
	return set
}

func addTokens(cell string, set *Set) {
	for _, token := range tokenSplit.Split(cell, -1) {
		if token == "" {
			continue
		}
		set.Add(token)
	}
}

func scanText(raw string, set *Set) {
	for _, match := range domainPattern.FindAllString(raw, -1) {
		set.Add(match)
	}
}
