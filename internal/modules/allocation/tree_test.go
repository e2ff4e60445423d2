package allocation

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrencyCodes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "eur", []string{"EUR"}},
		{"duplicates and spacing", " usd, EUR ,Usd", []string{"USD", "EUR"}},
		{"aliases dropped", "N/A, gbp, none", []string{"GBP"}},
		{"only aliases", "Unspecified, NA", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCurrencyCodes(tt.input))
		})
	}
}

func TestFlatten_AggregatesByHorizon(t *testing.T) {
	tree := []Node{
		{
			Name:      "Liabilities",
			SortOrder: 2,
			Children: []Node{
				{Name: "Pension", Horizon: "10y", Minimum: decimal.NewFromInt(300), Currencies: "EUR", SortOrder: 1},
				{Name: "School", Horizon: "3Y", Minimum: decimal.NewFromInt(200), Currencies: "EUR, USD", SortOrder: 0},
			},
		},
		{
			Name:      "Reserve",
			SortOrder: 1,
			Children: []Node{
				{Name: "Cash", Horizon: "6M", Minimum: decimal.NewFromInt(100), Currencies: "usd", SortOrder: 0},
				{Name: "Car", Horizon: "3 y", Minimum: decimal.NewFromInt(50), Currencies: "GBP,EUR", SortOrder: 1},
			},
		},
	}

	buckets, err := NewTreeFlattener(zerolog.Nop()).Flatten(tree)
	require.NoError(t, err)
	require.Len(t, buckets, 3)

	assert.Equal(t, "6M", buckets[0].ID)
	assert.Equal(t, 0.5, buckets[0].Horizon)
	assert.Equal(t, 0, buckets[0].Order)
	assert.Equal(t, []string{"USD"}, buckets[0].Currencies)

	assert.Equal(t, "3Y", buckets[1].ID)
	assert.Equal(t, 3.0, buckets[1].Horizon)
	assert.Equal(t, 1, buckets[1].Order)
	assert.True(t, decimal.NewFromInt(250).Equal(buckets[1].Minimum))
	assert.Equal(t, []string{"GBP", "EUR", "USD"}, buckets[1].Currencies, "first-seen order across leaves")

	assert.Equal(t, "10Y", buckets[2].ID)
	assert.True(t, decimal.NewFromInt(300).Equal(buckets[2].Minimum))
}

func TestFlatten_SkipsIncompleteLeaves(t *testing.T) {
	tree := []Node{
		{Name: "No horizon", Currencies: "EUR", Minimum: decimal.NewFromInt(10)},
		{Name: "No currencies", Horizon: "1Y", Minimum: decimal.NewFromInt(10)},
		{Name: "Group without children", Minimum: decimal.NewFromInt(10)},
		{Name: "Unspecified", Horizon: "2Y", Currencies: "N/A"},
	}

	buckets, err := NewTreeFlattener(zerolog.Nop()).Flatten(tree)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, "2Y", buckets[0].ID)
	assert.Empty(t, buckets[0].Currencies)
}

func TestFlatten_Errors(t *testing.T) {
	tests := []struct {
		name string
		tree []Node
	}{
		{
			name: "invalid horizon",
			tree: []Node{{Name: "Goal", Children: []Node{{Name: "Bad", Horizon: "soon", Currencies: "EUR"}}}},
		},
		{
			name: "negative minimum",
			tree: []Node{{Name: "Bad", Horizon: "1Y", Currencies: "EUR", Minimum: decimal.NewFromInt(-5)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buckets, err := NewTreeFlattener(zerolog.Nop()).Flatten(tt.tree)
			assert.Error(t, err)
			assert.Nil(t, buckets)
		})
	}
}

func TestFlatten_ErrorNamesPath(t *testing.T) {
	tree := []Node{{Name: "Goal", Children: []Node{{Name: "Bad", Horizon: "0Y", Currencies: "EUR"}}}}

	_, err := NewTreeFlattener(zerolog.Nop()).Flatten(tree)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Goal/Bad")
}
