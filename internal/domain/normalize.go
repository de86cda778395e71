/*
Package domain reduces raw scraped strings to canonical registrable root
domains and accumulates them into deduplicated, sorted sets.

The normalizer is a pure string transform: no I/O, no state, no lookups
against a live public suffix list. Compound second-level TLD handling is
limited to a fixed list so callers get stable, narrow behavior.
*/
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
	"regexp"
	"strings"
)

// compoundTLDs is the fixed set of two-label public suffixes treated
// atomically when computing the root domain. Checked in order, first
// match wins. Deliberately not extensible at runtime.
var compoundTLDs = []string{
	"co.uk",
	"com.au",
	"co.jp",
	"co.in",
	"com.br",
	"co.za",
}

// ipv4Pattern matches strict dotted quads (four numeric groups). IP
// literals are never root domains.
var ipv4Pattern = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`)

// Normalize reduces an arbitrary candidate string to a registrable root
// domain. The second return value is false when the candidate is rejected:
// empty input, IPv4 literals and dotless bare labels all reject. Rejection
// is the only failure mode; Normalize never returns an error.
//
// The cleanup pipeline runs in a fixed order: lowercase/trim, leading
// wildcard and separator stripping, scheme stripping, www stripping, then
// truncation at path/query/fragment and port boundaries. Only after cleanup
// is the suffix logic applied, so "host.sub.example.com:8443" resolves to
// "example.com" rather than rejecting on the port.
func Normalize(candidate string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(candidate))

	// Wildcard DNS entries (*.example.com), service labels (_dmarc...) and
	// malformed leading separators all reduce to the same cleanup: drop the
	// run of *, _ and . from the front.
	s = strings.TrimLeft(s, "*._")

	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "www.")

	// Keep only the authority portion.
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}

	// Trailing dots (FQDN notation, "example.com.") carry no meaning here.
	s = strings.TrimRight(s, ".")

	if strings.TrimSpace(s) == "" {
		return "", false
	}
	if ipv4Pattern.MatchString(s) {
		return "", false
	}
	if !strings.Contains(s, ".") {
		return "", false
	}

	labels := strings.Split(s, ".")

	// Compound suffixes take priority over the generic two-label rule;
	// a.b.company.com.au must become company.com.au, not com.au.
	for _, tld := range compoundTLDs {
		if s == tld {
			return s, true
		}
		if strings.HasSuffix(s, "."+tld) {
			n := len(labels)
			if n >= 3 {
				return labels[n-3] + "." + tld, true
			}
			return s, true
		}
	}

	if len(labels) > 2 {
		labels = labels[len(labels)-2:]
	}
	return strings.Join(labels, "."), true
}
