package utils

import (
	"strconv"
	"strings"
)

// ParseCSV splits a comma-separated string and returns trimmed non-empty values.
// Returns nil for empty/whitespace-only input.
// Used for currency lists and tenor lists typed into the allocation editor.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	for _, v := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

// ParseTenors parses a comma-separated list of tenors in years, e.g. "0.5, 1, 3".
// Items that are not numbers are skipped.
func ParseTenors(s string) []float64 {
	var tenors []float64
	for _, item := range ParseCSV(s) {
		t, err := strconv.ParseFloat(item, 64)
		if err != nil {
			continue
		}
		tenors = append(tenors, t)
	}
	return tenors
}
