package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenorsOf(eligible []EligibleTenor) []float64 {
	out := make([]float64, 0, len(eligible))
	for _, e := range eligible {
		out = append(out, e.Tenor)
	}
	return out
}

func TestTenorPool_ForwardOnly(t *testing.T) {
	short := Bucket{ID: "1Y", Horizon: 1, Currencies: []string{"EUR"}}
	long := Bucket{ID: "5Y", Horizon: 5, Currencies: []string{"EUR"}}
	supply := TenorSupply{
		{BucketID: "1Y", Group: DV01, Tenors: []float64{0.5, 1}},
		{BucketID: "5Y", Group: DV01, Tenors: []float64{0.25, 5, 7}},
	}

	var pool TenorPool
	pool.Add(short, supply)
	assert.Equal(t, []float64{0.5, 1}, tenorsOf(pool.Eligible(short, DV01)))

	pool.Add(long, supply)
	assert.Equal(t, []float64{0.25, 0.5, 1, 5}, tenorsOf(pool.Eligible(long, DV01)), "7Y exceeds the horizon")
	assert.Empty(t, pool.Eligible(long, CS01))
}

func TestTenorPool_IgnoresNonPositiveTenorsAndMergesDuplicates(t *testing.T) {
	b := Bucket{ID: "2Y", Horizon: 2, Currencies: []string{"EUR"}}
	supply := TenorSupply{
		{BucketID: "2Y", Group: BEI01, Tenors: []float64{0, -1, 2, 1}},
		{BucketID: "2Y", Group: BEI01, Tenors: []float64{1.0000000000001}},
	}

	var pool TenorPool
	pool.Add(b, supply)

	assert.Equal(t, []float64{1, 2}, tenorsOf(pool.Eligible(b, BEI01)))
}

func TestTenorPool_CurrencyIntersection(t *testing.T) {
	first := Bucket{ID: "1Y", Horizon: 1, Currencies: []string{"USD", "EUR"}}
	second := Bucket{ID: "3Y", Horizon: 3, Currencies: []string{"GBP", "EUR", "USD"}}
	supply := TenorSupply{
		{BucketID: "1Y", Group: DV01, Tenors: []float64{1}, Currencies: []string{"EUR"}},
		{BucketID: "1Y", Group: DV01, Tenors: []float64{1}, Currencies: []string{"USD", "CHF"}},
		{BucketID: "3Y", Group: DV01, Tenors: []float64{3}, Currencies: []string{"CHF"}},
	}

	var pool TenorPool
	pool.Add(first, supply)
	pool.Add(second, supply)

	eligible := pool.Eligible(first, DV01)
	require.Len(t, eligible, 1)
	assert.Equal(t, []string{"USD", "EUR"}, eligible[0].Currencies, "bucket currency order is kept")

	eligible = pool.Eligible(second, DV01)
	require.Len(t, eligible, 1, "3Y tenor is not offered in any bucket currency")
	assert.Equal(t, 1.0, eligible[0].Tenor)
	assert.Equal(t, []string{"EUR", "USD"}, eligible[0].Currencies)
}

func TestTenorPool_EqualHorizonNotShared(t *testing.T) {
	a := Bucket{ID: "A", Horizon: 2, Currencies: []string{""}}
	b := Bucket{ID: "B", Horizon: 2, Currencies: []string{""}}
	supply := TenorSupply{{BucketID: "A", Group: DV01, Tenors: []float64{2}}}

	var pool TenorPool
	pool.Add(a, supply)
	pool.Add(b, supply)

	assert.Len(t, pool.Eligible(a, DV01), 1)
	assert.Empty(t, pool.Eligible(b, DV01))
}

func TestDeriveTenor(t *testing.T) {
	eligible := []EligibleTenor{{Tenor: 1}, {Tenor: 3}, {Tenor: 7}}

	testCases := []struct {
		name     string
		dv01     float64
		expected float64
	}{
		{"exact match", 3, 3},
		{"nearest below", 4, 3},
		{"nearest above", 6, 7},
		{"tie prefers shorter", 2, 1},
		{"beyond the longest", 10, 7},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			derived, ok := DeriveTenor(tc.dv01, eligible)
			require.True(t, ok)
			assert.Equal(t, tc.expected, derived.Tenor)
		})
	}

	_, ok := DeriveTenor(1, nil)
	assert.False(t, ok)
}

func TestEvenShare(t *testing.T) {
	assert.Equal(t, 1.0, EvenShare(1))
	assert.Equal(t, 0.5, EvenShare(2))
	assert.InDelta(t, 1.0/3.0, EvenShare(3), 1e-15)
	assert.Equal(t, 0.0, EvenShare(0))
}

func TestOrderBuckets(t *testing.T) {
	buckets := []Bucket{
		{ID: "c", Horizon: 5, Order: 0},
		{ID: "b", Horizon: 1, Order: 2},
		{ID: "a", Horizon: 1, Order: 2},
		{ID: "d", Horizon: 1, Order: 1},
	}

	ordered := OrderBuckets(buckets)

	var ids []string
	for _, b := range ordered {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"d", "b", "a", "c"}, ids, "equal keys keep their declared position")
	assert.Equal(t, "c", buckets[0].ID, "input is left untouched")
}
