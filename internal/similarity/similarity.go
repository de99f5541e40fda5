// Package similarity provides the string and size similarity scores shared by
// duplicate detection and search.
package similarity

import "strings"

// Strings returns the Jaccard similarity of the character sets of a and b,
// compared case-insensitively. The result is always in [0, 1]: identical
// strings and two empty strings score 1, a single empty string scores 0.
func Strings(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	setA := charSet(strings.ToLower(a))
	setB := charSet(strings.ToLower(b))

	intersection := 0
	for r := range setA {
		if _, ok := setB[r]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 1
	}
	return float64(intersection) / float64(union)
}

// Sizes returns min/max of two sizes. Two zero sizes score 1.
func Sizes(a, b int64) float64 {
	if a == b {
		return 1
	}
	if a <= 0 || b <= 0 {
		return 0
	}
	if a > b {
		a, b = b, a
	}
	return float64(a) / float64(b)
}

func charSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}
