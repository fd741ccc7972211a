// Package match compares free-text guesses against solution strings.
package match

import "strings"

// Fuzzy reports whether guess matches solution after trimming and case
// folding. A guess counts as a match when the normalized strings are equal
// or one contains the other ("bohemian" matches "Bohemian Rhapsody").
// There is no edit-distance tolerance; typos do not match. Known
// limitation, kept deliberately.
func Fuzzy(guess, solution string) bool {
	g := normalize(guess)
	s := normalize(solution)
	if g == "" || s == "" {
		return false
	}
	if g == s {
		return true
	}
	return strings.Contains(s, g) || strings.Contains(g, s)
}

// Decade reports whether a decade guess matches the solution label exactly,
// ignoring surrounding whitespace and case.
func Decade(guess, solution string) bool {
	g := normalize(guess)
	return g != "" && g == normalize(solution)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
