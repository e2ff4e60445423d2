package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "single value",
			input:    "EUR",
			expected: []string{"EUR"},
		},
		{
			name:     "varied spacing",
			input:    "EUR,  usd , GBP",
			expected: []string{"EUR", "usd", "GBP"},
		},
		{
			name:     "trailing comma",
			input:    "EUR,",
			expected: []string{"EUR"},
		},
		{
			name:     "multiple commas",
			input:    ",,EUR,,USD,,",
			expected: []string{"EUR", "USD"},
		},
		{
			name:     "only spaces",
			input:    "   ",
			expected: nil,
		},
		{
			name:     "comma only",
			input:    ",",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseCSV(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseTenors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []float64
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "whole and fractional years",
			input:    "0.25, 0.5,1, 10",
			expected: []float64{0.25, 0.5, 1, 10},
		},
		{
			name:     "invalid items skipped",
			input:    "1, two, 3Y, 5",
			expected: []float64{1, 5},
		},
		{
			name:     "negative kept for later filtering",
			input:    "-1, 2",
			expected: []float64{-1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseTenors(tt.input))
		})
	}
}
