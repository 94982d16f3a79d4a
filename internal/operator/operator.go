// Package operator converts command-line tokens into primitive Go values.
package operator

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// IntRegex is the regex checked for integer tokens. Underscores will be
	// removed if they are in a valid position (not the first or last character).
	IntRegex = regexp.MustCompile("^-?[0-9](_?[0-9])*?$")
)

// ParseInt parses an integer token.
func ParseInt(s string) (int, error) {
	// Replace all underscores *only* if it matches the pattern
	if IntRegex.MatchString(s) {
		s = strings.ReplaceAll(s, "_", "")
	}
	return strconv.Atoi(s)
}

// ParseFloat parses a real-number token.
func ParseFloat(s string) (float64, error) {
	// ParseFloat replaces relevant underscores for us.
	return strconv.ParseFloat(s, 64)
}

// ParseBool parses a boolean token.
func ParseBool(s string) (bool, error) {
	return strconv.ParseBool(s)
}

// ParseComplex parses a complex-number token (e.g. "3+4i").
func ParseComplex(s string) (complex128, error) {
	return strconv.ParseComplex(s, 128)
}
