package services

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LowerUsername case-folds a username for equality comparisons.
// It does not trim or otherwise validate; callers hand in already validated input.
func LowerUsername(s string) string {
	// A Caser is stateful, so each call gets its own.
	return cases.Lower(language.Und).String(s)
}
