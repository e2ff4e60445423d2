package horizon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		input     string
		canonical string
		years     float64
	}{
		{"3Y", "3Y", 3},
		{"6m", "6M", 0.5},
		{" 18 M ", "18M", 1.5},
		{"26W", "26W", 0.5},
		{"73d", "73D", 0.2},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			l, err := Parse(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.canonical, l.String())
			assert.InDelta(t, tc.years, l.Years(), 1e-12)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, input := range []string{"", "Y", "0Y", "1.5Y", "-2M", "3Q", "three years", "3YY"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestNormalize(t *testing.T) {
	label, err := Normalize("10 y")
	require.NoError(t, err)
	assert.Equal(t, "10Y", label)

	label, err = Normalize("   ")
	require.NoError(t, err)
	assert.Empty(t, label)

	_, err = Normalize("soon")
	assert.Error(t, err)
}

func TestToYears(t *testing.T) {
	years, err := ToYears("9M")
	require.NoError(t, err)
	assert.InDelta(t, 0.75, years, 1e-12)

	_, err = ToYears("")
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	merged := Merge(
		[]string{"1Y", "6m", "bogus", ""},
		[]string{"12M", "2W", "1y", "30D"},
	)

	assert.Equal(t, []string{"2W", "30D", "6M", "12M", "1Y"}, merged)
}
