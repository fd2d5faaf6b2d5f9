package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// leading decimal prefix, so "12,5 m2" still reads as 12.5
var numericPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// Number parses a decimal cell, accepting a comma as decimal separator.
// Empty or unparsable input reports ok=false; callers decide whether that is an issue.
func Number(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	s = strings.Replace(s, ",", ".", 1)
	m := numericPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// NumberPtr is Number returning nil instead of ok=false.
func NumberPtr(raw string) *float64 {
	f, ok := Number(raw)
	if !ok {
		return nil
	}
	return &f
}
