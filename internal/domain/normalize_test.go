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
	"strings"
	"testing"
)

// TestNormalize provides table-driven tests for various candidate formats
// and edge cases. Uses t.Parallel() to allow tests within this function to
// run concurrently.
func TestNormalize(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"Simple domain", "example.com", "example.com", true},
		{"Subdomain stripped", "sub.example.com", "example.com", true},
		{"Deep subdomain", "a.b.example.com", "example.com", true},
		{"Uppercase", "EXAMPLE.COM", "example.com", true},
		{"Mixed case subdomain", "Www.Example.Com", "example.com", true},
		{"Leading www", "www.example.com", "example.com", true},
		{"Wildcard", "*.example.com", "example.com", true},
		{"Wildcard with service label", "*._sub.example.com", "example.com", true},
		{"Leading underscore", "_dmarc.example.com", "example.com", true},
		{"Leading dots", "..example.com", "example.com", true},
		{"Trailing dot", "example.com.", "example.com", true},
		{"HTTP scheme", "http://example.com", "example.com", true},
		{"HTTPS scheme with path and query", "https://www.Example.CO.UK/path?x=1", "example.co.uk", true},
		{"Fragment", "example.com#section", "example.com", true},
		{"Port stripped before suffix logic", "host.sub.example.com:8443", "example.com", true},
		{"Compound TLD co.uk", "a.b.example.co.uk", "example.co.uk", true},
		{"Compound TLD com.au beats generic rule", "a.b.company.com.au", "company.com.au", true},
		{"Compound TLD co.jp", "shop.tokyo.acme.co.jp", "acme.co.jp", true},
		{"Compound TLD co.za", "x.firm.co.za", "firm.co.za", true},
		{"Bare compound suffix", "co.uk", "co.uk", true},
		{"Leading/Trailing spaces", "  example.com  ", "example.com", true},
		{"Punycode passes through", "xn--bcher-kva.example.com", "example.com", true},
		{"Empty string", "", "", false},
		{"Just spaces", "   ", "", false},
		{"Just dots", "...", "", false},
		{"Just wildcard", "*.", "", false},
		{"IPv4 literal", "10.20.30.40", "", false},
		{"IPv4 with port", "10.20.30.40:8080", "", false},
		{"Bare label", "not-a-domain", "", false},
		{"Bare label with port", "localhost:3000", "", false},
		{"Scheme only", "https://", "", false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			actual, ok := Normalize(tc.input)
			if ok != tc.ok {
				t.Fatalf("Normalize(%q) ok = %v; want %v", tc.input, ok, tc.ok)
			}
			if actual != tc.expected {
				t.Errorf("Normalize(%q) = %q; want %q", tc.input, actual, tc.expected)
			}
		})
	}
}

// TestNormalizeIdempotent verifies that a bare root domain is a fixed point
// of the pipeline.
func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()
	roots := []string{"example.com", "example.co.uk", "company.com.au", "a-b.io"}
	for _, root := range roots {
		first, ok := Normalize(root)
		if !ok {
			t.Fatalf("Normalize(%q) rejected a valid root", root)
		}
		second, ok := Normalize(first)
		if !ok || second != first {
			t.Errorf("Normalize not idempotent for %q: %q -> %q", root, first, second)
		}
	}
}

func TestNormalizeCompoundSuffixIsLabelAligned(t *testing.T) {
	t.Parallel()
	// "marco.uk" ends in the string "co.uk" but not on a label boundary;
	// the generic two-label rule must apply.
	got, ok := Normalize("www.marco.uk")
	if !ok || got != "marco.uk" {
		t.Fatalf("Normalize(www.marco.uk) = %q, %v; want marco.uk, true", got, ok)
	}
}

// BenchmarkNormalizeSimple measures performance for a common, simple
// candidate.
func BenchmarkNormalizeSimple(b *testing.B) {
	candidate := "www.example.com"
	for i := 0; i < b.N; i++ {
		_, _ = Normalize(candidate)
	}
}

// BenchmarkNormalizeURL measures performance for candidates needing the
// full cleanup pipeline.
func BenchmarkNormalizeURL(b *testing.B) {
	candidate := "https://Host.Sub.Example.CO.UK:8443/path?x=1#frag"
	for i := 0; i < b.N; i++ {
		_, _ = Normalize(candidate)
	}
}

// BenchmarkNormalizeDeep measures performance on pathologically deep
// label chains.
func BenchmarkNormalizeDeep(b *testing.B) {
	candidate := strings.Repeat("a.", 100) + "example.com"
	for i := 0; i < b.N; i++ {
		_, _ = Normalize(candidate)
	}
}
