// Package textutil has the small string helpers shared by the extraction and
// lookup engines: Unicode folding, whitespace collapsing and the
// SequenceMatcher similarity ratio both engines score with.
package textutil

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/unicode/norm"
)

// Fold applies NFKC so OCR output with full-width digits, ligatures or
// non-breaking spaces compares equal to plain ASCII text.
func Fold(s string) string {
	return norm.NFKC.String(s)
}

// CollapseSpace trims s and replaces every run of whitespace with one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Ratio returns the character-level similarity of a and b in [0,1],
// 2*matches/(len(a)+len(b)), the same measure as Python's difflib.
// Two empty strings are identical.
func Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	m := difflib.NewMatcher(chars(a), chars(b))
	return m.Ratio()
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// IsDigits reports whether s is a non-empty run of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// CountLetters counts ASCII letters in s.
func CountLetters(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			n++
		}
	}
	return n
}
