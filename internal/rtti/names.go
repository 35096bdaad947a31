package rtti

import (
	"slices"

	"golang.org/x/text/unicode/norm"
)

// normalizeName returns the form names are ordered by. Two spellings of the
// same identifier must order identically on every run.
func normalizeName(s string) string {
	return norm.NFC.String(s)
}

func sortedStrings(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}
